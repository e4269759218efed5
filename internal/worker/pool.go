// Package worker runs bounded background work for the judge, such as warming
// the metadata cache before cases execute.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a Job
type Result interface {
	GetError() error
}

// Pool executes jobs on a fixed number of goroutines
type Pool struct {
	workers   int
	jobs      chan Job
	results   chan Result
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		results: make(chan Result, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.loop()
	}
}

func (p *Pool) loop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			res := job.Execute(p.ctx)
			select {
			case p.results <- res:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job; it is dropped if the pool is already cancelled
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Wait closes the queue and collects every result in completion order.
// Submit must not be called concurrently with Wait.
func (p *Pool) Wait() []Result {
	p.closeQueue()
	return p.collect()
}

func (p *Pool) closeQueue() {
	close(p.jobs)
}

// collect drains results until every worker has exited
func (p *Pool) collect() []Result {
	go func() {
		p.wg.Wait()
		p.closeResults()
	}()

	var out []Result
	for r := range p.results {
		out = append(out, r)
	}
	p.cancel()
	return out
}

// Shutdown cancels outstanding work and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() { close(p.results) })
}
