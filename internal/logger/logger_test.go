package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     Options
		encoding string
		level    zapcore.Level
		output   string
	}{
		{name: "defaults", opts: Options{}, encoding: "console", level: zapcore.InfoLevel, output: "stdout"},
		{name: "json debug", opts: Options{JSON: true, Debug: true}, encoding: "json", level: zapcore.DebugLevel, output: "stdout"},
		{name: "custom output", opts: Options{Output: "stderr"}, encoding: "console", level: zapcore.InfoLevel, output: "stderr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config(tt.opts)
			if cfg.Encoding != tt.encoding {
				t.Fatalf("expected encoding %q, got %q", tt.encoding, cfg.Encoding)
			}
			if cfg.Level.Level() != tt.level {
				t.Fatalf("expected level %s, got %s", tt.level, cfg.Level.Level())
			}
			if len(cfg.OutputPaths) != 1 || cfg.OutputPaths[0] != tt.output {
				t.Fatalf("unexpected outputs %v", cfg.OutputPaths)
			}
			if cfg.EncoderConfig.MessageKey != "step" {
				t.Fatalf("expected message key step, got %q", cfg.EncoderConfig.MessageKey)
			}
			if cfg.DisableStacktrace == tt.opts.Debug {
				t.Fatalf("stacktraces should only be kept in debug mode")
			}
		})
	}
}

func TestNewAddsComponent(t *testing.T) {
	t.Parallel()

	l, err := New(Options{JSON: true, Component: "worker", Output: "stderr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l == nil {
		t.Fatal("expected a logger")
	}
}
