package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Pool manages a fixed number of worker goroutines that process email
// deliveries. Bounded concurrency keeps the relay happy; results are
// collected after Stop.
type Pool struct {
	numWorkers int
	jobs       chan Delivery
	results    chan Result
	deliverer  *Deliverer
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// NewPool creates a worker pool. expected sizes the result buffer so
// submission never blocks on an undrained channel.
func NewPool(numWorkers int, expected int, deliverer *Deliverer, logger *slog.Logger) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan Delivery, numWorkers*2),
		results:    make(chan Result, expected),
		deliverer:  deliverer,
		logger:     logger,
	}
}

// Start launches all worker goroutines. They read from the jobs
// channel until it is closed.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.logger.Info("delivery pool started", "num_workers", p.numWorkers)
}

// Submit sends a delivery to the worker pool.
func (p *Pool) Submit(job Delivery) {
	p.jobs <- job
}

// Stop closes the jobs channel, waits for all workers to finish, and
// closes the results channel for draining.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
	p.logger.Info("delivery pool stopped")
}

// Results returns the drained outcomes. Call after Stop.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// worker is a single goroutine that processes deliveries.
func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for job := range p.jobs {
		p.results <- p.deliverer.Deliver(ctx, job)
	}
}
