// Package storage abstracts where uploaded files live. The room module uses
// it for room photos; LocalStorage is the only backend currently shipped.
package storage

import (
	"context"
	"io"
)

// Storage stores and retrieves files by relative path.
type Storage interface {
	// Save writes content at path, creating parent directories as needed.
	Save(ctx context.Context, path string, content io.Reader) error

	// Get opens the file at path. The caller closes the returned reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the file at path. Deleting a missing file is not an
	// error.
	Delete(ctx context.Context, path string) error
}
