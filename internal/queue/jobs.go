package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// DeleteObjectTask is scheduled for every upload a session no longer references.
	DeleteObjectTask = "object:delete"
)

// DeletePayload names the object the worker should remove from storage.
type DeletePayload struct {
	Path string `json:"path"`
}

// NewDeleteTask builds the asynq task for one object.
func NewDeleteTask(path string) (*asynq.Task, error) {
	data, err := json.Marshal(DeletePayload{Path: path})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(DeleteObjectTask, data), nil
}

// EnqueueDelete enqueues a delete job.
func EnqueueDelete(ctx context.Context, client *asynq.Client, path string) error {
	task, err := NewDeleteTask(path)
	if err != nil {
		return err
	}
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue delete task: %w", err)
	}
	return nil
}

// Client discards objects by handing them to the worker process.
type Client struct {
	client *asynq.Client
	log    *zap.SugaredLogger
}

// NewClient wraps an asynq client.
func NewClient(client *asynq.Client, log *zap.SugaredLogger) *Client {
	return &Client{client: client, log: log}
}

// Discard enqueues one task per path. Enqueue failures are logged; the object
// then falls to the bucket lifecycle policy.
func (j *Client) Discard(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if err := EnqueueDelete(ctx, j.client, p); err != nil {
			j.log.Warnw("enqueue discard failed", "path", p, "err", err)
		}
	}
}
