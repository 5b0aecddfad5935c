package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	immutableCacheControl = "public, max-age=31536000, immutable"

	// MaxSingleRequestSize is the largest object sent without chunking.
	MaxSingleRequestSize = 8 << 20
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

// Media hosts listing images on an object storage backend and hands out
// permanent public URLs for them.
type Media struct {
	backend   ObjectStorage
	publicURL string
	now       func() time.Time
}

// NewMedia returns a media host that stores objects in backend and builds
// URLs under publicURL.
func NewMedia(backend ObjectStorage, publicURL string) (*Media, error) {
	publicURL = strings.TrimRight(strings.TrimSpace(publicURL), "/")
	if publicURL == "" {
		return nil, errors.New("media public url is required")
	}
	return &Media{backend: backend, publicURL: publicURL, now: time.Now}, nil
}

// Upload stores content under a fresh key and returns its public URL.
func (m *Media) Upload(ctx context.Context, content []byte, contentType string) (string, error) {
	if len(content) == 0 {
		return "", errors.New("empty image")
	}
	key := ImageKey(m.now(), contentType)
	if err := m.backend.Put(ctx, key, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
		return "", fmt.Errorf("put %s/%s: %w", m.backend.Bucket(), key, err)
	}
	return m.publicURL + "/" + key, nil
}

// ImageKey returns a date-partitioned random object key such as
// "hotels/2026/3/14/<uuid>.jpg".
func ImageKey(t time.Time, contentType string) string {
	t = t.UTC()
	return fmt.Sprintf("hotels/%d/%d/%d/%s%s", t.Year(), t.Month(), t.Day(), uuid.New(), extension(contentType))
}

func extension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if ext, ok := imageExtensions[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
