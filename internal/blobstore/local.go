package blobstore

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Local stores blobs as files under a directory and names them with file:// URIs.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blob directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Local{dir: abs}, nil
}

func (l *Local) Put(mimeType string, data []byte) (string, error) {
	path := filepath.Join(l.dir, objectName(mimeType))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
}

func (l *Local) Get(uri string) ([]byte, error) {
	path, err := l.pathFor(uri)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (l *Local) Delete(uri string) error {
	path, err := l.pathFor(uri)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (l *Local) pathFor(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return "", ErrUnknownURI
	}
	path := filepath.Clean(filepath.FromSlash(u.Path))
	if !strings.HasPrefix(path, l.dir+string(filepath.Separator)) {
		return "", ErrUnknownURI
	}
	return path, nil
}
