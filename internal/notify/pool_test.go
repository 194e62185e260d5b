package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsSubmittedJobs(t *testing.T) {
	pool := NewPool(2, time.Second)
	pool.Start()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := pool.Submit(func(ctx context.Context) {
			defer wg.Done()
			ran.Add(1)
		})
		if err != nil {
			wg.Done()
			t.Fatalf("submit: %v", err)
		}
	}
	wg.Wait()
	pool.Stop(time.Second)

	if ran.Load() != 10 {
		t.Errorf("ran %d jobs, want 10", ran.Load())
	}
}

func TestPool_SubmitRejectsWhenSaturated(t *testing.T) {
	pool := NewPool(1, time.Second)
	// Not started: nothing drains, so the queue fills up.
	var saturated bool
	for i := 0; i < 100; i++ {
		if err := pool.Submit(func(ctx context.Context) {}); err == ErrPoolSaturated {
			saturated = true
			break
		}
	}
	if !saturated {
		t.Error("expected ErrPoolSaturated once the queue is full")
	}
}

func TestPool_JobContextCarriesTimeout(t *testing.T) {
	pool := NewPool(1, 10*time.Millisecond)
	pool.Start()
	defer pool.Stop(time.Second)

	done := make(chan struct{})
	err := pool.Submit(func(ctx context.Context) {
		defer close(done)
		if _, ok := ctx.Deadline(); !ok {
			t.Error("job context should carry a deadline")
		}
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
}

func TestPool_StopDrainsInFlightJobs(t *testing.T) {
	pool := NewPool(1, time.Second)
	pool.Start()

	var ran atomic.Bool
	err := pool.Submit(func(ctx context.Context) {
		time.Sleep(50 * time.Millisecond)
		ran.Store(true)
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	pool.Stop(time.Second)
	if !ran.Load() {
		t.Error("Stop returned before the in-flight job finished")
	}
}
