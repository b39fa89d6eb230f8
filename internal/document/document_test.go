package document

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	failures int
	calls    int
	body     string
	bucket   string
	key      string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(f.body))}, nil
}

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mime    string
		data    []byte
		want    string
		wantErr bool
	}{
		{name: "plain text", mime: MimeText, data: []byte("Go developer"), want: "Go developer"},
		{name: "unsupported", mime: "image/png", data: []byte{0x89}, wantErr: true},
		{name: "broken pdf", mime: MimePDF, data: []byte("not a pdf"), wantErr: true},
		{name: "broken docx", mime: MimeDOCX, data: []byte("not a zip"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Extract(tt.mime, tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Extract("image/png", nil)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestMimeFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MimePDF, MimeFromPath("cv/Ann.PDF"))
	assert.Equal(t, MimeDOCX, MimeFromPath("s3://bucket/ann.docx"))
	assert.Equal(t, MimeText, MimeFromPath("ann.txt"))
	assert.Empty(t, MimeFromPath("ann.png"))
}

func TestLoadLocalFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Python and SQL"), 0o600))

	text, err := NewLoader(nil, nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Python and SQL", text)

	_, err = NewLoader(nil, nil).Load(context.Background(), "s3://bucket/resume.txt")
	assert.ErrorContains(t, err, "s3 is not configured")
}

func TestLoadFromS3Retries(t *testing.T) {
	t.Parallel()

	objects := &fakeObjects{failures: 2, body: "Kubernetes operator"}
	loader := NewLoader(objects, nil)
	loader.backoff = 0

	text, err := loader.Load(context.Background(), "s3://resumes/2025/ann.txt")
	require.NoError(t, err)
	assert.Equal(t, "Kubernetes operator", text)
	assert.Equal(t, 3, objects.calls)
	assert.Equal(t, "resumes", objects.bucket)
	assert.Equal(t, "2025/ann.txt", objects.key)

	failing := &fakeObjects{failures: downloadAttempts}
	loader = NewLoader(failing, nil)
	loader.backoff = 0
	_, err = loader.Load(context.Background(), "s3://resumes/ann.txt")
	assert.ErrorContains(t, err, "connection reset")

	_, err = loader.Load(context.Background(), "s3://resumes")
	assert.ErrorContains(t, err, "invalid s3 path")
}
