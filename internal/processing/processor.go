// Package processing runs object deletions on a small in-process worker pool.
// It stands in for the asynq worker when no Redis is configured.
package processing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/weavd/internal/cleanup"
)

const deleteTimeout = 10 * time.Second

// Job is one object to delete.
type Job struct {
	Path string
}

// Pool consumes Jobs until it is stopped. Stopping closes the queue; workers
// still finish every job that was queued before.
type Pool struct {
	store   cleanup.Deleter
	log     *zap.SugaredLogger
	queue   chan Job
	workers int
	wg      sync.WaitGroup

	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

// New builds a Pool with queue capacity tied to worker count.
func New(store cleanup.Deleter, workers int, log *zap.SugaredLogger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		store:   store,
		log:     log,
		queue:   make(chan Job, workers*64),
		workers: workers,
	}
}

// Start launches worker goroutines. Cancelling ctx stops the pool.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	context.AfterFunc(ctx, p.Stop)
}

// Stop refuses new jobs. Queued jobs are still processed; call Wait to block
// until they are done.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.stopped = true
		close(p.queue)
	})
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Discard queues the paths for deletion. When the queue is full, or the pool
// is stopped, the object is left for the bucket lifecycle policy and the drop
// is logged.
func (p *Pool) Discard(_ context.Context, paths ...string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, path := range paths {
		if p.stopped {
			p.log.Warnw("cleanup pool stopped, dropping object", "path", path)
			continue
		}
		select {
		case p.queue <- Job{Path: path}:
		default:
			p.log.Warnw("cleanup queue full, dropping object", "path", path)
		}
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.queue {
		p.process(job)
	}
}

func (p *Pool) process(job Job) {
	// the request that queued the job may be long gone
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := p.store.Delete(ctx, job.Path); err != nil {
		p.log.Warnw("discard object failed", "path", job.Path, "err", err)
		return
	}
	p.log.Debugw("discarded object", "path", job.Path)
}
