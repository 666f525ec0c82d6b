package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// workerPool runs handle on a fixed number of goroutines fed by a bounded
// queue. A panicking job is logged and the worker keeps going.
type workerPool[T any] struct {
	queue  chan T
	handle func(ctx context.Context, job T) error
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func newWorkerPool[T any](ctx context.Context, workers, depth int, handle func(context.Context, T) error) *workerPool[T] {
	p := &workerPool[T]{
		queue:  make(chan T, depth),
		handle: handle,
	}
	p.wg.Add(workers)
	for range workers {
		go p.work(ctx)
	}
	return p
}

func (p *workerPool[T]) work(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			if err := p.run(ctx, job); err != nil {
				slog.Error("worker job failed", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *workerPool[T]) run(ctx context.Context, job T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.handle(ctx, job)
}

// Submit enqueues job without blocking. It returns false when the queue is
// full or the pool has been drained.
func (p *workerPool[T]) Submit(job T) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- job:
		return true
	default:
		return false
	}
}

// Drain stops intake and waits for the workers. Queued jobs still run unless
// the pool's context is cancelled. Safe to call more than once.
func (p *workerPool[T]) Drain() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// QueueLen returns how many jobs are waiting.
func (p *workerPool[T]) QueueLen() int { return len(p.queue) }

// QueueCap returns the queue capacity.
func (p *workerPool[T]) QueueCap() int { return cap(p.queue) }
