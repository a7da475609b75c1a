package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath  string // The root directory where files will be stored
	publicURL string // URL prefix the files are served under
	logger    zerolog.Logger
}

var _ ContentStore = (*LocalStorage)(nil)

// NewLocalStorage creates a new LocalStorage instance.
// basePath is the required directory path on the server.
// publicURL is prepended to references by URL; "/uploads" when empty.
func NewLocalStorage(basePath, publicURL string, logger zerolog.Logger) (*LocalStorage, error) {
	// Ensure the base path exists
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	if publicURL == "" {
		publicURL = "/uploads"
	}
	return &LocalStorage{
		basePath:  basePath,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}, nil
}

// BasePath returns the directory files are written to
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// Store writes content under a fresh unique name keeping the original extension
func (ls *LocalStorage) Store(_ context.Context, content io.Reader, filename string) (string, error) {
	ref := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	dstPath := filepath.Join(ls.basePath, ref)

	dst, err := os.Create(dstPath)
	if err != nil {
		ls.logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, content); err != nil {
		ls.logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		// Attempt to remove the partially created file
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	ls.logger.Info().Str("filename", filename).Str("ref", ref).Msg("File saved successfully")
	return ref, nil
}

// Delete removes a stored file. Missing files are ignored.
func (ls *LocalStorage) Delete(_ context.Context, ref string) error {
	physicalPath, err := ls.pathFor(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			ls.logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		ls.logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	ls.logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// URL returns the public URL of ref
func (ls *LocalStorage) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return ls.publicURL + "/" + ref
}

// pathFor maps a reference to a file inside basePath, rejecting anything
// that would escape it.
func (ls *LocalStorage) pathFor(ref string) (string, error) {
	name := filepath.Base(ref)
	if ref == "" || name != ref || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file reference: %q", ref)
	}
	return filepath.Join(ls.basePath, name), nil
}
