package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/landreg/title-registry-backend/interfaces"
)

// FileBackend stores archive content on the local filesystem. Each content
// type gets its own subdirectory and files are named by their content ID.
type FileBackend struct {
	basePath string
	log      *slog.Logger
}

// NewFileBackend creates a filesystem backend rooted at basePath, creating
// the namespace directories if needed.
func NewFileBackend(basePath string, log *slog.Logger) (*FileBackend, error) {
	for _, ct := range []interfaces.ContentType{interfaces.ImageType, interfaces.DeedType} {
		dir := filepath.Join(basePath, ct.String()+"s")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: cannot create directory %s: %v", interfaces.ErrBackendUnavailable, dir, err)
		}
	}

	return &FileBackend{basePath: basePath, log: log}, nil
}

func (f *FileBackend) pathFor(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return filepath.Join(f.basePath, contentType.String()+"s", id.String())
}

// Fetch retrieves content from disk by its content ID.
func (f *FileBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.pathFor(id, contentType))
	if os.IsNotExist(err) {
		return nil, interfaces.ErrContentNotFound
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	return data, nil
}

// Store writes content to disk and returns its content ID. Writes go through
// a temp file and rename so a crash cannot leave a partial object behind.
func (f *FileBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.ContentID{}, err
	}

	id := interfaces.ComputeContentID(data)
	path := f.pathFor(id, contentType)

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+id.String()+".tmp")
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return interfaces.ContentID{}, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return interfaces.ContentID{}, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return interfaces.ContentID{}, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	f.log.Debug("Stored archive content",
		slog.String("contentID", id.String()),
		slog.String("contentType", contentType.String()),
		slog.String("backend", f.Name()))
	return id, nil
}

// Available reports whether the base directory is accessible.
func (f *FileBackend) Available(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	_, err := os.Stat(f.basePath)
	return err == nil
}

// Name returns a short identifier for logging.
func (f *FileBackend) Name() string {
	return fmt.Sprintf("file(%s)", f.basePath)
}

// LocationURI returns the URI this backend was created from.
func (f *FileBackend) LocationURI() string {
	return "file://" + f.basePath
}
