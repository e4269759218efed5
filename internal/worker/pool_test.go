package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
)

// prefetchFunc adapts a function to Prefetcher
type prefetchFunc func(ctx context.Context, c model.Citation) error

func (f prefetchFunc) Prefetch(ctx context.Context, c model.Citation) error {
	return f(ctx, c)
}

func bookJob(i int, p Prefetcher) *PrefetchJob {
	return &PrefetchJob{
		Citation:   model.Citation{ID: fmt.Sprint(i), Kind: model.KindBook, ISBN: fmt.Sprintf("978%010d", i)},
		Prefetcher: p,
	}
}

func TestNewPool_Workers(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{5, 5},
		{0, 1},
		{-1, 1},
	}
	for _, tt := range tests {
		if got := NewPool(context.Background(), tt.in).workers; got != tt.want {
			t.Errorf("NewPool(%d).workers = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPool_RunsEveryLookup(t *testing.T) {
	var looked int32
	p := prefetchFunc(func(context.Context, model.Citation) error {
		atomic.AddInt32(&looked, 1)
		return nil
	})

	pool := NewPool(context.Background(), 2)
	pool.Start()
	for i := 0; i < 8; i++ {
		if !pool.Submit(bookJob(i, p)) {
			t.Fatalf("Submit(%d) rejected", i)
		}
	}
	results := pool.Wait()

	if len(results) != 8 {
		t.Errorf("got %d results, want 8", len(results))
	}
	if n := atomic.LoadInt32(&looked); n != 8 {
		t.Errorf("looked up %d citations, want 8", n)
	}
}

func TestPool_BoundsConcurrentLookups(t *testing.T) {
	const workers = 4
	var current, peak int32
	p := prefetchFunc(func(context.Context, model.Citation) error {
		n := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return nil
	})

	pool := NewPool(context.Background(), workers)
	pool.Start()
	for i := 0; i < 16; i++ {
		pool.Submit(bookJob(i, p))
	}
	pool.Wait()

	if got := atomic.LoadInt32(&peak); got > workers {
		t.Errorf("peak concurrency %d exceeded %d workers", got, workers)
	}
}

func TestPool_ReportsLookupErrors(t *testing.T) {
	errDown := errors.New("service down")
	p := prefetchFunc(func(_ context.Context, c model.Citation) error {
		if c.ID == "1" {
			return errDown
		}
		return nil
	})

	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Submit(bookJob(0, p))
	pool.Submit(bookJob(1, p))

	failed := 0
	for _, res := range pool.Wait() {
		if errors.Is(res.GetError(), errDown) {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("got %d failed lookups, want 1", failed)
	}
}

func TestPool_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	slow := prefetchFunc(func(ctx context.Context, _ model.Citation) error {
		select {
		case <-time.After(time.Minute):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	pool.Submit(bookJob(0, slow))
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after parent cancel")
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool)
	go func() {
		done <- pool.Submit(bookJob(0, prefetchFunc(func(context.Context, model.Citation) error { return nil })))
	}()

	select {
	case accepted := <-done:
		if accepted {
			t.Error("Submit after Shutdown was accepted")
		}
	case <-time.After(time.Second):
		t.Fatal("Submit after Shutdown blocked")
	}
}

func TestPool_ShutdownInterruptsLookup(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(bookJob(0, prefetchFunc(func(ctx context.Context, _ model.Citation) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})))
	<-started

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		for range pool.results {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown timed out")
	}
}
