// Package storage persists derived rendition files on local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pawdex/pawdex/internal/domain"
)

// FileStore writes rendition files into a single flat directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create media dir %s: %w", domain.ErrFile, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (s *FileStore) Dir() string { return s.dir }

// Save writes data under name, replacing any existing file.
func (s *FileStore) Save(_ context.Context, name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrFile, name, err)
	}
	return nil
}

// Remove deletes the named files. Missing files are not an error.
func (s *FileStore) Remove(_ context.Context, names ...string) error {
	var errs []error
	for _, name := range names {
		path, err := s.resolve(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%w: remove %s: %w", domain.ErrFile, name, err))
		}
	}
	return errors.Join(errs...)
}

// RemoveByPrefix deletes every file whose name starts with reportID followed
// by an underscore, covering the whole rendition set of one report.
func (s *FileStore) RemoveByPrefix(_ context.Context, reportID string) error {
	if reportID == "" || strings.ContainsAny(reportID, `/\`) {
		return fmt.Errorf("%w: invalid report ID %q", domain.ErrValidation, reportID)
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, reportID+"_*"))
	if err != nil {
		return fmt.Errorf("%w: glob %s: %w", domain.ErrFile, reportID, err)
	}

	var errs []error
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%w: remove %s: %w", domain.ErrFile, filepath.Base(path), err))
		}
	}
	return errors.Join(errs...)
}

// Writable checks the directory accepts writes (used by the health check).
func (s *FileStore) Writable(_ context.Context) error {
	f, err := os.CreateTemp(s.dir, ".healthz-*")
	if err != nil {
		return fmt.Errorf("%w: media dir not writable: %w", domain.ErrFile, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// resolve joins name onto the store directory, rejecting path traversal.
func (s *FileStore) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: invalid file name %q", domain.ErrValidation, name)
	}
	return filepath.Join(s.dir, name), nil
}
