package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dsn")
	if err := os.WriteFile(file, []byte("  postgres://file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TALENT_MATCHER_TEST_DSN", "postgres://env")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins", src: Source{File: file, Env: "TALENT_MATCHER_TEST_DSN", Value: "inline"}, want: "postgres://file"},
		{name: "env before value", src: Source{Env: "TALENT_MATCHER_TEST_DSN", Value: "inline"}, want: "postgres://env"},
		{name: "unset env falls back", src: Source{Env: "TALENT_MATCHER_TEST_UNSET", Value: " inline "}, want: "inline"},
		{name: "empty file", src: Source{Name: "dsn", File: empty}, wantErr: "is empty"},
		{name: "nothing", src: Source{Name: "dsn", Env: "TALENT_MATCHER_TEST_UNSET"}, wantErr: "set TALENT_MATCHER_TEST_UNSET"},
		{name: "missing file", src: Source{File: filepath.Join(dir, "missing")}, wantErr: "reading secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
