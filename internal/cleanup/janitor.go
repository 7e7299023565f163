// Package cleanup discards physical assets whose owning record is gone.
// Discarding is best-effort: failures are logged and counted, never returned to the caller.
package cleanup

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var assetCleanupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "studentserving_asset_cleanup_total",
		Help: "Asset discard attempts by mode and result",
	},
	[]string{"mode", "result"},
)

// AssetDeleter removes a stored file. A missing file is not an error.
type AssetDeleter interface {
	Delete(category, storedName string) (bool, error)
}

// Janitor discards a stored asset on a best-effort basis
type Janitor interface {
	Discard(ctx context.Context, category, storedName string)
}

// inlineJanitor deletes assets synchronously inside the request
type inlineJanitor struct {
	store  AssetDeleter
	logger *zap.Logger
}

// NewInlineJanitor creates a janitor that deletes files immediately
func NewInlineJanitor(store AssetDeleter, logger *zap.Logger) *inlineJanitor {
	return &inlineJanitor{
		store:  store,
		logger: logger,
	}
}

// Discard deletes the asset and logs a warning when that fails
func (j *inlineJanitor) Discard(ctx context.Context, category, storedName string) {
	if storedName == "" {
		return
	}

	deleted, err := j.store.Delete(category, storedName)
	if err != nil {
		assetCleanupTotal.WithLabelValues("inline", "failed").Inc()
		j.logger.Warn("failed to discard asset",
			zap.String("category", category),
			zap.String("stored_name", storedName),
			zap.Error(err),
		)
		return
	}

	if !deleted {
		assetCleanupTotal.WithLabelValues("inline", "missing").Inc()
		j.logger.Debug("asset already gone", zap.String("category", category), zap.String("stored_name", storedName))
		return
	}

	assetCleanupTotal.WithLabelValues("inline", "deleted").Inc()
	j.logger.Debug("asset discarded", zap.String("category", category), zap.String("stored_name", storedName))
}
