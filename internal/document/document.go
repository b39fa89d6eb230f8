// Package document reads resume documents and extracts their plain text.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/utils"
)

const (
	MimeText = "text/plain"
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	s3Scheme = "s3://"

	downloadAttempts = 3
)

var ErrUnsupported = errors.New("unsupported document type")

// ObjectGetter is the part of the S3 client used to download resumes.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Extract returns the plain text of a document of the given mime type.
func Extract(mime string, data []byte) (string, error) {
	switch mime {
	case MimeText:
		return string(data), nil
	case MimePDF:
		return extractPDF(data)
	case MimeDOCX:
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}
}

// MimeFromPath guesses the mime type from the file extension.
func MimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".txt", ".md", "":
		return MimeText
	default:
		return ""
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}

// Loader reads resumes from the local filesystem or from S3.
type Loader struct {
	objects ObjectGetter
	logger  *zap.Logger
	backoff time.Duration
}

// NewLoader creates a loader. objects may be nil when only local paths are used.
func NewLoader(objects ObjectGetter, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{objects: objects, logger: log, backoff: 500 * time.Millisecond}
}

// NewS3Client builds an S3 client from the default AWS configuration chain.
// A non-empty endpoint overrides the service endpoint for S3 compatible stores.
func NewS3Client(ctx context.Context, endpoint string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Load reads the document at path and returns its text. Paths of the form
// s3://bucket/key are downloaded.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	mime := MimeFromPath(path)
	if mime == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(path, s3Scheme) {
		data, err = l.download(ctx, path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}

	text, err := Extract(mime, data)
	if err != nil {
		return "", err
	}

	l.logger.Debug("document loaded",
		zap.String("path", path),
		zap.String("mime", mime),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

func (l *Loader) download(ctx context.Context, path string) ([]byte, error) {
	if l.objects == nil {
		return nil, fmt.Errorf("s3 is not configured for %s", path)
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(path, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid s3 path %q", path)
	}

	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		data, err := l.getObject(ctx, bucket, key)
		if err == nil {
			return data, nil
		}
		lastErr = err

		l.logger.Warn("s3 download failed",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if err := utils.WaitFor(ctx, time.Duration(attempt)*l.backoff); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("download %s after %d attempts: %w", path, downloadAttempts, lastErr)
}

func (l *Loader) getObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := l.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
