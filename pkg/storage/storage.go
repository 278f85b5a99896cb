package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anonto42/prehome/backend/pkg/config"
)

// Storage keeps uploaded property images and returns the URL they are served from
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
}

// New creates the backend selected by cfg.Type
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.UploadDir, cfg.BaseURL)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// LocalStorage writes files under a directory that echo serves statically
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage creates the upload directory if needed
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes r to dir/name. name must be a bare file name.
func (s *LocalStorage) Save(_ context.Context, name string, r io.Reader, _ string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if err := writeAndClose(f, r); err != nil {
		os.Remove(path)
		return "", err
	}
	return s.baseURL + "/" + name, nil
}

// writeAndClose copies r into w. A failed Close means the data may not be on disk.
func writeAndClose(w io.WriteCloser, r io.Reader) error {
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// Dir is the directory files are written to
func (s *LocalStorage) Dir() string {
	return s.dir
}
