package filestorage

import (
	"context"
	"io"
)

// ContentStore stores uploaded photo bytes and hands back an opaque reference
type ContentStore interface {
	// Store saves the content and returns its reference. filename is only
	// used for its extension.
	Store(ctx context.Context, content io.Reader, filename string) (string, error)

	// Delete removes the content. Deleting a missing reference is not an error.
	Delete(ctx context.Context, ref string) error

	// URL returns where clients can fetch the content
	URL(ref string) string
}

// FileInfo represents information about a stored file
type FileInfo struct {
	Ref      string // Reference returned by Store
	Filename string // Original filename
	FileSize int64  // Size in bytes
}
