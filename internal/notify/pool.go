package notify

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Job is one outbound dispatch unit. The context carries the per-job timeout.
type Job func(ctx context.Context)

// Dispatcher hands dispatch jobs off for execution. The scheduler depends on
// this rather than on Pool so tests can run jobs inline.
type Dispatcher interface {
	Submit(job Job) error
}

// ErrPoolSaturated reports that the dispatch queue is full; the caller drops
// the job and retries on a later tick instead of blocking.
var ErrPoolSaturated = errors.New("dispatch pool saturated")

// Pool runs dispatch jobs on a bounded set of workers so one slow
// notification backend cannot stall a scheduler tick.
type Pool struct {
	jobs    chan Job
	timeout time.Duration
	workers int

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewPool(workers int, timeout time.Duration) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		jobs:    make(chan Job, workers*4),
		timeout: timeout,
		workers: workers,
	}
}

func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.run()
		}
	})
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		job(ctx)
		cancel()
	}
}

// Submit enqueues a job without blocking.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrPoolSaturated
	}
}

// Stop closes the queue and waits for in-flight jobs up to the grace period.
func (p *Pool) Stop(grace time.Duration) {
	p.stopOnce.Do(func() {
		close(p.jobs)
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(grace):
			log.Printf("[warn] dispatch pool stop timed out after %s", grace)
		}
	})
}
