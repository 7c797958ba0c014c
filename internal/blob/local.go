package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"inkwell/internal/config"

	"github.com/google/uuid"
)

const (
	DefaultDir        = "/tmp/inkwell/blobs"
	DefaultBaseURL    = "/blobs"
	DefaultMaxSizeMB  = 10
	filePermissions   = 0o600
	folderPermissions = 0o750
)

// LocalStore keeps blobs as files named <uuid><ext> under one directory
// and serves them from BaseURL.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewLocalStore builds a store from cfg, falling back to the defaults for
// unset values.
func NewLocalStore(cfg *config.Config) *LocalStore {
	dir, baseURL, maxMB := DefaultDir, DefaultBaseURL, DefaultMaxSizeMB
	if cfg != nil {
		if cfg.BlobDir != "" {
			dir = cfg.BlobDir
		}
		if cfg.BlobBaseURL != "" {
			baseURL = cfg.BlobBaseURL
		}
		if cfg.BlobMaxUploadMB > 0 {
			maxMB = cfg.BlobMaxUploadMB
		}
	}
	return &LocalStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: int64(maxMB) * 1024 * 1024,
	}
}

// Dir is the directory blobs are written to.
func (s *LocalStore) Dir() string { return s.dir }

// BaseURL is the path prefix blobs are served under.
func (s *LocalStore) BaseURL() string { return s.baseURL }

// Upload validates in and writes it, returning the public URL.
func (s *LocalStore) Upload(_ context.Context, in Upload) (string, error) {
	ext, err := Validate(in, s.maxBytes)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, folderPermissions); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), in.Content, filePermissions); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

// Delete removes every file whose name is ref plus an extension. A ref
// with nothing stored is not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if ref == "" || strings.ContainsAny(ref, `/\*?[`) || ref == "." || ref == ".." {
		return fmt.Errorf("invalid blob ref %q", ref)
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, ref+".*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		slog.DebugContext(ctx, "blob removed", slog.String("ref", ref), slog.String("path", m))
	}
	return nil
}
