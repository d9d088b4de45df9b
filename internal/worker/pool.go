package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Bilal079/dropvault/internal/apperrors"
	"github.com/Bilal079/dropvault/internal/lockmgr"
	"github.com/Bilal079/dropvault/internal/logger"
	"github.com/Bilal079/dropvault/internal/metadata"
	"github.com/Bilal079/dropvault/internal/queue"
	"github.com/Bilal079/dropvault/internal/telemetry"
)

// NewPool creates a worker Pool backed by its own task queue of the given
// capacity. Call Start to launch the worker goroutines.
func NewPool(store metadata.Store, rootDir string, queueCapacity, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		tasks:   queue.New[*Task](queueCapacity),
		store:   store,
		locks:   lockmgr.New(),
		rootDir: rootDir,
		workers: workers,
		done:    make(chan struct{}),
	}
}

// Submit enqueues t, blocking while the queue is full. It returns
// queue.ErrClosed if the pool has been stopped.
func (p *Pool) Submit(t *Task) error {
	return p.tasks.Push(t)
}

// QueueDepth reports how many tasks are currently buffered, for metrics.
func (p *Pool) QueueDepth() int {
	return p.tasks.Len()
}

// Start launches the configured number of worker goroutines. Each pops
// tasks off the queue until it is closed and drained.
func (p *Pool) Start(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		id := i
		go func() {
			defer wg.Done()
			p.run(ctx, id)
		}()
	}
	go func() {
		wg.Wait()
		close(p.done)
	}()
}

// Stop closes the task queue, causing every worker goroutine to exit once
// the queue has drained, and blocks until they have all returned.
func (p *Pool) Stop() {
	p.tasks.Close()
	<-p.done
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		t, err := p.tasks.Pop()
		if err != nil {
			return
		}
		p.execute(ctx, t)
	}
}

func (p *Pool) execute(ctx context.Context, t *Task) {
	ctx, span := telemetry.StartTaskSpan(ctx, strings.ToLower(t.Kind.String()),
		telemetry.Username(t.Username), telemetry.Filename(t.Filename))
	defer span.End()

	var err error
	switch t.Kind {
	case KindUpload:
		err = p.handleUpload(ctx, t)
	case KindDownload:
		err = p.handleDownload(ctx, t)
	case KindDelete:
		err = p.handleDelete(ctx, t)
	case KindList:
		err = p.handleList(ctx, t)
	default:
		err = fmt.Errorf("%w: task kind %v", apperrors.ErrUnknown, t.Kind)
	}

	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Warn("task failed", "kind", t.Kind.String(), "username", t.Username, "filename", t.Filename, "error", err)
	}
	t.Result.Err = err
	t.Result.signal()
}
