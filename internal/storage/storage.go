package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hotelbook/apiserver/config"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// NewObjectStorage builds the backend selected by cfg.Backend.
func NewObjectStorage(ctx context.Context, cfg config.MediaConfig) (ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.MediaBackendMinio:
		return NewMinioClient(cfg.Minio)
	case config.MediaBackendGCS:
		return NewGCSClient(ctx, cfg.GCS)
	case config.MediaBackendS3:
		return NewS3Client(ctx, cfg.S3)
	case "":
		return nil, errors.New("media backend is required")
	default:
		return nil, fmt.Errorf("unsupported media backend %q", cfg.Backend)
	}
}
