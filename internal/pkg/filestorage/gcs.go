package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GCSStorage keeps photo content in a Google Cloud Storage bucket
type GCSStorage struct {
	client *storage.Client
	bucket string
	prefix string
	logger zerolog.Logger
}

var _ ContentStore = (*GCSStorage)(nil)

// NewGCSStorage creates a GCSStorage. Objects are written under prefix.
func NewGCSStorage(client *storage.Client, bucket, prefix string, logger zerolog.Logger) *GCSStorage {
	return &GCSStorage{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

func (g *GCSStorage) objectName(ref string) string {
	if g.prefix == "" {
		return ref
	}
	return path.Join(g.prefix, ref)
}

// Store uploads content as a new object
func (g *GCSStorage) Store(ctx context.Context, content io.Reader, filename string) (string, error) {
	ref := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	obj := g.client.Bucket(g.bucket).Object(g.objectName(ref))

	// The name is fresh, so refuse to overwrite anything.
	w := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("while writing object %s: %w", ref, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("while closing object writer: %w", err)
	}

	g.logger.Info().Str("bucket", g.bucket).Str("ref", ref).Msg("Object stored")
	return ref, nil
}

// Delete removes an object. A missing object is not an error.
func (g *GCSStorage) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	err := g.client.Bucket(g.bucket).Object(g.objectName(ref)).Delete(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			g.logger.Warn().Str("ref", ref).Msg("Object to delete does not exist")
			return nil
		}
		return fmt.Errorf("while deleting object %s: %w", ref, err)
	}
	return nil
}

// URL returns the public object URL
func (g *GCSStorage) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return "https://storage.googleapis.com/" + url.PathEscape(g.bucket) + "/" + g.objectName(ref)
}
