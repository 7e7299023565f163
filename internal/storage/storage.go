// Package storage keeps uploaded files on the local filesystem,
// one directory per category under a configured root.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/studentserving/backend/internal/apperrors"
)

// Categories of stored files. Each maps to a directory under the upload root.
const (
	CategoryCertificates = "certificates"
	CategoryNews         = "news"
)

// StoredFile describes a file found in a category directory
type StoredFile struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// fileStore implements file storage on the local filesystem
type fileStore struct {
	root string
}

// NewFileStore creates a new fileStore rooted at root.
// Category directories are created lazily on first write.
func NewFileStore(root string) *fileStore {
	return &fileStore{root: root}
}

// Root returns the upload root directory
func (s *fileStore) Root() string {
	return s.root
}

// Path returns the path of a stored file relative to the working directory, e.g. uploads/news/<name>
func (s *fileStore) Path(category, storedName string) string {
	return filepath.Join(s.root, category, storedName)
}

// Store streams r into <root>/<category>/<storedName>.
// Data goes to a temp file first and is renamed into place after fsync,
// so readers never observe a partially written file. Returns the number of bytes written.
func (s *fileStore) Store(category, storedName string, r io.Reader) (int64, error) {
	if err := validateCategory(category); err != nil {
		return 0, err
	}
	if err := validateName(storedName); err != nil {
		return 0, err
	}

	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("%w: failed to create directory %s: %v", apperrors.ErrStorageIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create temp file: %v", apperrors.ErrStorageIO, err)
	}
	tmpPath := tmp.Name()

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		if errors.Is(err, apperrors.ErrPayloadTooLarge) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: failed to write %s: %v", apperrors.ErrStorageIO, storedName, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: failed to sync %s: %v", apperrors.ErrStorageIO, storedName, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: failed to close %s: %v", apperrors.ErrStorageIO, storedName, err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, storedName)); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("%w: failed to move %s into place: %v", apperrors.ErrStorageIO, storedName, err)
	}

	return size, nil
}

// Open opens a stored file for reading. The caller must close it.
func (s *fileStore) Open(category, storedName string) (*os.File, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if err := validateName(storedName); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path(category, storedName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: file %s", apperrors.ErrNotFound, storedName)
		}
		return nil, fmt.Errorf("%w: failed to open %s: %v", apperrors.ErrStorageIO, storedName, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to stat %s: %v", apperrors.ErrStorageIO, storedName, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: file %s", apperrors.ErrNotFound, storedName)
	}

	return f, nil
}

// Delete removes a stored file. A file that does not exist reports false without error.
func (s *fileStore) Delete(category, storedName string) (bool, error) {
	if err := validateCategory(category); err != nil {
		return false, err
	}
	if err := validateName(storedName); err != nil {
		return false, err
	}

	err := os.Remove(s.Path(category, storedName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to delete %s: %v", apperrors.ErrStorageIO, storedName, err)
	}
	return true, nil
}

// List returns the regular files of a category sorted by name.
// A category directory that does not exist yet yields an empty list.
func (s *fileStore) List(category string) ([]StoredFile, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.root, category))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []StoredFile{}, nil
		}
		return nil, fmt.Errorf("%w: failed to list %s: %v", apperrors.ErrStorageIO, category, err)
	}

	files := make([]StoredFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, StoredFile{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func validateCategory(category string) error {
	switch category {
	case CategoryCertificates, CategoryNews:
		return nil
	default:
		return fmt.Errorf("%w: unknown storage category %q", apperrors.ErrValidation, category)
	}
}

// validateName rejects names that could escape the category directory.
// Hidden names are rejected too since in-progress writes use dot-prefixed temp files.
func validateName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.Contains(name, "..") ||
		strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		return fmt.Errorf("%w: invalid file name %q", apperrors.ErrValidation, name)
	}
	for _, r := range name {
		if !isNameRune(r) && r != '-' {
			return fmt.Errorf("%w: invalid file name %q", apperrors.ErrValidation, name)
		}
	}
	return nil
}
