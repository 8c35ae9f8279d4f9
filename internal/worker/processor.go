package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/weavd/internal/cleanup"
	"github.com/dharsanguruparan/weavd/internal/model"
	"github.com/dharsanguruparan/weavd/internal/queue"
)

// Processor is plugged into the asynq worker loop.
type Processor struct {
	store cleanup.Deleter
	log   *zap.SugaredLogger
}

// NewProcessor constructs a worker processor.
func NewProcessor(store cleanup.Deleter, log *zap.SugaredLogger) *Processor {
	return &Processor{store: store, log: log}
}

// Handler registers the delete job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.DeleteObjectTask, p.handleDelete)
	return mux
}

func (p *Processor) handleDelete(ctx context.Context, task *asynq.Task) error {
	var payload queue.DeletePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	// only session uploads are ever discarded; anything else is a bad task
	if !strings.HasPrefix(payload.Path, model.TempPrefix) && !strings.HasPrefix(payload.Path, model.PermanentPrefix) {
		return fmt.Errorf("refusing to delete %q: %w", payload.Path, asynq.SkipRetry)
	}
	if err := p.store.Delete(ctx, payload.Path); err != nil {
		p.log.Warnw("delete failed", "path", payload.Path, "err", err)
		return err
	}
	p.log.Infow("object discarded", "path", payload.Path)
	return nil
}
