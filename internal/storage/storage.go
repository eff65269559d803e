package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/replenish/internal/config"
)

// ErrObjectNotFound is returned when a key does not exist in the backing store.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// ObjectStorage captures the read operations the baseline and forecast
// repositories need. Objects are small result files, so they are returned
// whole.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// New builds the ObjectStorage selected by cfg.Kind.
func New(ctx context.Context, cfg config.SourcesConfig) (ObjectStorage, error) {
	switch cfg.Kind {
	case "", "local":
		return NewLocalStorage(cfg.LocalDir), nil
	case "s3":
		return NewS3Client(cfg.S3)
	case "drive":
		return NewDriveStorage(ctx, cfg.DriveCredentialsJSON, cfg.DriveFolderID)
	default:
		return nil, fmt.Errorf("unknown sources kind %q", cfg.Kind)
	}
}
