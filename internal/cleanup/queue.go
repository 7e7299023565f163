package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/studentserving/backend/internal/apperrors"
	"go.uber.org/zap"
)

const (
	// TypeAssetDelete is the asynq task type for deferred asset deletion
	TypeAssetDelete = "asset:delete"
	// QueueName is the asynq queue cleanup tasks are sent to
	QueueName = "cleanup"

	maxRetry = 5
)

// AssetDeletePayload is the JSON payload of an asset:delete task
type AssetDeletePayload struct {
	Category   string `json:"category"`
	StoredName string `json:"stored_name"`
}

// NewAssetDeleteTask builds an asset:delete task
func NewAssetDeleteTask(category, storedName string) (*asynq.Task, error) {
	payload, err := json.Marshal(AssetDeletePayload{Category: category, StoredName: storedName})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal asset delete payload: %w", err)
	}
	return asynq.NewTask(TypeAssetDelete, payload, asynq.Queue(QueueName), asynq.MaxRetry(maxRetry)), nil
}

// TaskEnqueuer is the part of *asynq.Client the queue janitor needs
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// queueJanitor hands deletions to the worker process through asynq
type queueJanitor struct {
	client   TaskEnqueuer
	fallback Janitor
	logger   *zap.Logger
}

// NewQueueJanitor creates a janitor that enqueues deletions.
// When enqueueing fails the deletion is attempted through fallback instead.
func NewQueueJanitor(client TaskEnqueuer, fallback Janitor, logger *zap.Logger) *queueJanitor {
	return &queueJanitor{
		client:   client,
		fallback: fallback,
		logger:   logger,
	}
}

// Discard enqueues an asset:delete task
func (j *queueJanitor) Discard(ctx context.Context, category, storedName string) {
	if storedName == "" {
		return
	}

	task, err := NewAssetDeleteTask(category, storedName)
	if err == nil {
		_, err = j.client.EnqueueContext(ctx, task)
	}
	if err != nil {
		assetCleanupTotal.WithLabelValues("queue", "enqueue_failed").Inc()
		j.logger.Warn("failed to enqueue asset deletion, deleting inline",
			zap.String("category", category),
			zap.String("stored_name", storedName),
			zap.Error(err),
		)
		j.fallback.Discard(ctx, category, storedName)
		return
	}

	assetCleanupTotal.WithLabelValues("queue", "enqueued").Inc()
}

// TaskHandler processes asset:delete tasks in the worker
type TaskHandler struct {
	store  AssetDeleter
	logger *zap.Logger
}

// NewTaskHandler creates a new asset:delete task handler
func NewTaskHandler(store AssetDeleter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		store:  store,
		logger: logger,
	}
}

// HandleAssetDelete deletes the asset named in the payload.
// Malformed payloads and invalid names are not retried.
func (h *TaskHandler) HandleAssetDelete(ctx context.Context, t *asynq.Task) error {
	var payload AssetDeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to parse asset delete payload: %v: %w", err, asynq.SkipRetry)
	}

	deleted, err := h.store.Delete(payload.Category, payload.StoredName)
	if err != nil {
		assetCleanupTotal.WithLabelValues("worker", "failed").Inc()
		if errors.Is(err, apperrors.ErrValidation) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to delete asset %s: %w", payload.StoredName, err)
	}

	result := "deleted"
	if !deleted {
		result = "missing"
	}
	assetCleanupTotal.WithLabelValues("worker", result).Inc()

	taskID, _ := asynq.GetTaskID(ctx)
	h.logger.Info("asset delete task processed",
		zap.String("task_id", taskID),
		zap.String("category", payload.Category),
		zap.String("stored_name", payload.StoredName),
		zap.Bool("deleted", deleted),
	)
	return nil
}
