// Package storage persists uploaded event images on the local file system.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidImage is returned for uploads whose extension is not an
// accepted image format.
var ErrInvalidImage = errors.New("invalid image format. Only JPG, PNG, and GIF allowed")

// URLPrefix is the path under which stored images are served.
const URLPrefix = "/static/uploads/"

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// LocalStorage writes images into a single directory and names them by
// a random UUID so uploads never collide.
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage creates dir if needed. baseURL is the public origin
// used to build image URLs, e.g. "http://localhost:6543".
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory images are stored in.
func (s *LocalStorage) Dir() string { return s.dir }

// Save copies content into a new file and returns its generated name.
// A partially written file is removed before returning an error.
func (s *LocalStorage) Save(originalName string, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExt[ext] {
		return "", ErrInvalidImage
	}
	name := strings.ReplaceAll(uuid.NewString(), "-", "") + ext

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close image file: %w", err)
	}
	return name, nil
}

// Delete removes a stored image. Missing files are not an error.
func (s *LocalStorage) Delete(name string) error {
	if name == "" {
		return nil
	}
	// Names are generated by Save; anything with a path component is
	// not ours to remove.
	if filepath.Base(name) != name {
		return fmt.Errorf("delete image: invalid name %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// URL resolves a stored name to its public URL, or nil for no image.
func (s *LocalStorage) URL(name *string) *string {
	if name == nil || *name == "" {
		return nil
	}
	u := s.baseURL + URLPrefix + *name
	return &u
}
