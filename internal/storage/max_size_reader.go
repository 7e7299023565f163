package storage

import (
	"fmt"
	"io"

	"github.com/studentserving/backend/internal/apperrors"
)

// ReachLimitError is returned by a max-size reader once more than MaxBytes were offered.
// It matches apperrors.ErrPayloadTooLarge with errors.Is.
type ReachLimitError struct {
	MaxBytes int64
}

func (e *ReachLimitError) Error() string {
	return fmt.Sprintf("payload exceeds limit of %d bytes", e.MaxBytes)
}

func (e *ReachLimitError) Unwrap() error {
	return apperrors.ErrPayloadTooLarge
}

// NewMaxSizeReader returns a reader that fails with *ReachLimitError
// when r yields more than maxSize bytes.
func NewMaxSizeReader(r io.Reader, maxSize int64) io.Reader {
	return &maxSizeReader{reader: r, limit: maxSize, remaining: maxSize}
}

type maxSizeReader struct {
	reader    io.Reader
	limit     int64
	remaining int64
}

func (r *maxSizeReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	// One byte past the remaining budget is enough to detect an overflow
	if int64(len(p)) > r.remaining+1 {
		p = p[:r.remaining+1]
	}

	n, err := r.reader.Read(p)
	if int64(n) <= r.remaining {
		r.remaining -= int64(n)
		return n, err
	}

	n = int(r.remaining)
	r.remaining = 0
	return n, &ReachLimitError{MaxBytes: r.limit}
}
