package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	cmstorage "github.com/chartmuseum/storage"
)

// LocalStorage serves objects from a directory on disk.
type LocalStorage struct {
	backend *cmstorage.LocalFilesystemBackend
}

func NewLocalStorage(dir string) *LocalStorage {
	if dir == "" {
		dir = "."
	}
	return &LocalStorage{backend: cmstorage.NewLocalFilesystemBackend(dir)}
}

func (s *LocalStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if prefix != "" && !isLocalKey(prefix) {
		return nil, fmt.Errorf("%s: %w", prefix, ErrObjectNotFound)
	}
	objects, err := s.backend.ListObjects(prefix)
	if err != nil {
		return nil, fmt.Errorf("local list failed: %w", err)
	}
	results := make([]ObjectInfo, 0, len(objects))
	for _, object := range objects {
		results = append(results, ObjectInfo{
			Key:          object.Path,
			Size:         int64(len(object.Content)),
			LastModified: object.LastModified,
		})
	}
	return results, nil
}

func (s *LocalStorage) GetObject(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !isLocalKey(key) {
		return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	object, err := s.backend.GetObject(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("local read %s failed: %w", key, err)
	}
	return object.Content, nil
}

// isLocalKey reports whether key stays inside the storage root.
func isLocalKey(key string) bool {
	return filepath.IsLocal(filepath.FromSlash(key))
}

var _ ObjectStorage = (*LocalStorage)(nil)
