package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveStorage reads objects from a single Google Drive folder. Keys are file
// names inside that folder.
type DriveStorage struct {
	srv      *drive.Service
	folderID string
}

func NewDriveStorage(ctx context.Context, credentialsJSON, folderID string) (*DriveStorage, error) {
	if credentialsJSON == "" {
		return nil, fmt.Errorf("google drive credentials must be provided")
	}

	// Parse credentials from JSON
	config, err := google.JWTConfigFromJSON([]byte(credentialsJSON), drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	// If no folder ID is provided, use "root"
	if folderID == "" {
		folderID = "root"
	}

	return &DriveStorage{srv: srv, folderID: folderID}, nil
}

func (s *DriveStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", s.folderID)).
		Fields("files(id, name, modifiedTime, size)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	results := make([]ObjectInfo, 0, len(result.Files))
	for _, f := range result.Files {
		if !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		results = append(results, ObjectInfo{
			Key:          f.Name,
			Size:         f.Size,
			LastModified: parseDriveTime(f.ModifiedTime),
		})
	}
	return results, nil
}

func (s *DriveStorage) GetObject(ctx context.Context, key string) ([]byte, error) {
	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and name='%s' and trashed=false", s.folderID, escapeDriveQuery(key))).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error finding file %s: %w", key, err)
	}
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}

	resp, err := s.srv.Files.Get(result.Files[0].Id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("unable to download file %s: %w", key, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("unable to read file %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

// parseDriveTime reads Drive's RFC 3339 timestamps; unparseable values become the zero time.
func parseDriveTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func escapeDriveQuery(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `'`, `\'`)
}

var _ ObjectStorage = (*DriveStorage)(nil)
