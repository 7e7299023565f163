package services

import (
	"context"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/studentserving/backend/internal/cleanup"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studentserving_uploads_total",
			Help: "Total number of files accepted into the upload store",
		},
		[]string{"category"},
	)

	uploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studentserving_upload_bytes_total",
			Help: "Total number of bytes written to the upload store",
		},
		[]string{"category"},
	)
)

// FileStore is the interface that wraps methods for physical file storage
type FileStore interface {
	// Method Store streams "r" into the "category" directory under "storedName".
	//
	// The caller is responsible for a unique "storedName". The number of written bytes is returned.
	// A write failure is reported as ErrStorageIO, an oversized stream keeps its ErrPayloadTooLarge error.
	Store(category, storedName string, r io.Reader) (int64, error)
	// Method Open opens a stored file for reading. The caller must close the file.
	//
	// A missing file is reported as ErrNotFound, an unsafe name as ErrValidation.
	Open(category, storedName string) (*os.File, error)
	// Method Path returns the full filesystem path of a stored file without checking that it exists.
	Path(category, storedName string) string
}

// discardAsset hands a stored file over to the janitor after its owning record is gone or no longer points at it.
// The janitor never returns an error, so the caller's result is decided before this is called.
func discardAsset(ctx context.Context, janitor cleanup.Janitor, category, storedName string) {
	if storedName == "" {
		return
	}
	janitor.Discard(ctx, category, storedName)
}

// recordUpload counts a non-empty file that was written to the store
func recordUpload(category string, written int64) {
	uploadsTotal.WithLabelValues(category).Inc()
	uploadBytesTotal.WithLabelValues(category).Add(float64(written))
}
