package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"posintake/pkg/platform/sentinel"
)

var tracer = otel.Tracer("posintake/blob")

// Local stores payloads as files under a single directory. Locators are the
// generated file names; they never contain path separators, so a locator
// cannot escape the directory.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Store(ctx context.Context, data []byte, contentType, suggestedName string) (string, error) {
	_, span := tracer.Start(ctx, "blob.store", trace.WithAttributes(
		attribute.Int("blob.size", len(data)),
		attribute.String("blob.content_type", contentType),
	))
	defer span.End()

	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString()[:8], sanitize(suggestedName))
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o640); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return name, nil
}

func (l *Local) Fetch(ctx context.Context, locator string) ([]byte, error) {
	_, span := tracer.Start(ctx, "blob.fetch")
	defer span.End()

	if locator != filepath.Base(locator) || locator == "." {
		return nil, sentinel.ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(l.dir, locator))
	if os.IsNotExist(err) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// sanitize keeps only characters safe for a file name and caps the length.
func sanitize(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if s == "" || s == "." {
		s = "file"
	}
	if len(s) > 100 {
		s = s[len(s)-100:]
	}
	return s
}
