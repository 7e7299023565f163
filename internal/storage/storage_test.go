package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentserving/backend/internal/apperrors"
)

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestFileStore_StoreAndOpen(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore(root)

	size, err := store.Store(CategoryNews, "1700000000000_abcd1234_cat.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	data, err := os.ReadFile(filepath.Join(root, "news", "1700000000000_abcd1234_cat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	f, err := store.Open(CategoryNews, "1700000000000_abcd1234_cat.jpg")
	require.NoError(t, err)
	defer f.Close()
	read, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(read))

	assert.Equal(t, filepath.Join(root, "news", "1700000000000_abcd1234_cat.jpg"), store.Path(CategoryNews, "1700000000000_abcd1234_cat.jpg"))
}

func TestFileStore_StoreErrors(t *testing.T) {
	tests := []struct {
		name          string
		category      string
		storedName    string
		reader        io.Reader
		expectedError error
	}{
		{name: "unknown category", category: "avatars", storedName: "a.png", reader: strings.NewReader("x"), expectedError: apperrors.ErrValidation},
		{name: "parent traversal", category: CategoryNews, storedName: "../escape.png", reader: strings.NewReader("x"), expectedError: apperrors.ErrValidation},
		{name: "absolute path", category: CategoryNews, storedName: "/etc/passwd", reader: strings.NewReader("x"), expectedError: apperrors.ErrValidation},
		{name: "backslash", category: CategoryNews, storedName: `a\b.png`, reader: strings.NewReader("x"), expectedError: apperrors.ErrValidation},
		{name: "empty name", category: CategoryNews, storedName: "", reader: strings.NewReader("x"), expectedError: apperrors.ErrValidation},
		{name: "reader failure", category: CategoryNews, storedName: "broken.png", reader: failingReader{}, expectedError: apperrors.ErrStorageIO},
		{name: "over limit", category: CategoryNews, storedName: "big.png", reader: NewMaxSizeReader(strings.NewReader("0123456789"), 4), expectedError: apperrors.ErrPayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			store := NewFileStore(root)

			_, err := store.Store(tt.category, tt.storedName, tt.reader)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedError)

			// nothing may be left behind, not even temp files
			files, listErr := store.List(CategoryNews)
			require.NoError(t, listErr)
			assert.Empty(t, files)
		})
	}
}

func TestFileStore_Open(t *testing.T) {
	store := NewFileStore(t.TempDir())

	t.Run("missing file", func(t *testing.T) {
		_, err := store.Open(CategoryCertificates, "nope.pdf")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("traversal rejected", func(t *testing.T) {
		_, err := store.Open(CategoryCertificates, "..")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("in-progress temp file not served", func(t *testing.T) {
		dir := filepath.Join(store.Root(), CategoryNews)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".upload-123.tmp"), []byte("partial"), 0o644))

		_, err := store.Open(CategoryNews, ".upload-123.tmp")
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		files, err := store.List(CategoryNews)
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestFileStore_Delete(t *testing.T) {
	store := NewFileStore(t.TempDir())
	_, err := store.Store(CategoryCertificates, "S1_general_x.pdf", bytes.NewReader([]byte("%PDF")))
	require.NoError(t, err)

	deleted, err := store.Delete(CategoryCertificates, "S1_general_x.pdf")
	require.NoError(t, err)
	assert.True(t, deleted)

	// second delete is a no-op
	deleted, err = store.Delete(CategoryCertificates, "S1_general_x.pdf")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.Delete(CategoryCertificates, "../../go.mod")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFileStore_List(t *testing.T) {
	store := NewFileStore(t.TempDir())

	files, err := store.List(CategoryNews)
	require.NoError(t, err)
	assert.Empty(t, files)

	for _, name := range []string{"b.png", "a.png"} {
		_, err := store.Store(CategoryNews, name, strings.NewReader("img"))
		require.NoError(t, err)
	}
	require.NoError(t, os.Mkdir(filepath.Join(store.Root(), CategoryNews, "subdir"), 0o755))

	files, err = store.List(CategoryNews)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.png", files[0].Name)
	assert.Equal(t, "b.png", files[1].Name)
	assert.Equal(t, int64(3), files[0].Size)
	assert.False(t, files[0].ModTime.IsZero())
}
