package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StorageService keeps uploads on disk for the duration of their processing.
type StorageService interface {
	Save(ctx context.Context, name string, file io.Reader) (string, error)
	Remove(path string) error
	Dir() string
}

// LocalStorage writes uploads into a single directory.
type LocalStorage struct {
	dir      string
	maxBytes int64
}

// NewStorageService creates the upload directory if needed. At most
// maxBytes+1 bytes of an upload are written so that the size check
// downstream still sees an oversized file.
func NewStorageService(dir string, maxBytes int64) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &LocalStorage{dir: abs, maxBytes: maxBytes}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Save(ctx context.Context, name string, file io.Reader) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid storage name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	src := file
	if s.maxBytes > 0 {
		src = io.LimitReader(file, s.maxBytes+1)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

// Remove deletes a stored upload. Missing files are not an error.
func (s *LocalStorage) Remove(path string) error {
	if filepath.Dir(path) != s.dir {
		return fmt.Errorf("refusing to remove %s outside the upload directory", filepath.Base(path))
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
