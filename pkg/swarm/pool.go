// Package swarm runs independent solver tasks over a fixed worker
// pool. Scenario sweeps are CPU-bound, so the pool size stays pinned
// instead of chasing latency feedback.
package swarm

import (
	"context"
	"runtime"
	"sync"
)

// Task represents a unit of work for the swarm.
type Task func(ctx context.Context) error

// Engine manages the worker pool.
type Engine struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup
	pending sync.WaitGroup
	quit    chan struct{}
	mu      sync.Mutex
	stats   Stats
}

// Stats holds runtime statistics for the engine.
type Stats struct {
	ActiveWorkers  int
	Workers        int
	TasksCompleted int64
	TasksFailed    int64
}

// NewEngine creates a pool with the given worker count. Zero or
// negative means one worker per CPU.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		workers: workers,
		tasks:   make(chan Task, workers*4),
		quit:    make(chan struct{}),
	}
}

// Start spawns the workers.
func (e *Engine) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx)
	}
}

// Submit adds a task to the queue. Blocks when the queue is full,
// which keeps a huge sweep from buffering every scenario at once.
func (e *Engine) Submit(t Task) {
	e.pending.Add(1)
	e.tasks <- t
}

// Drain blocks until every submitted task has finished.
func (e *Engine) Drain() {
	e.pending.Wait()
}

// Stop shuts the workers down. Pending tasks still in the queue are
// abandoned; call Drain first when they matter.
func (e *Engine) Stop() {
	close(e.quit)
	e.wg.Wait()
}

// GetStats returns current engine stats.
func (e *Engine) GetStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) worker(ctx context.Context) {
	e.mu.Lock()
	e.stats.ActiveWorkers++
	e.stats.Workers = e.workers
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.stats.ActiveWorkers--
		e.mu.Unlock()
		e.wg.Done()
	}()

	// Cancellation flows through the task's ctx, not the dequeue loop.
	// Workers keep consuming until Stop so Drain always returns.
	for {
		select {
		case <-e.quit:
			return
		case task := <-e.tasks:
			err := task(ctx)

			e.mu.Lock()
			e.stats.TasksCompleted++
			if err != nil {
				e.stats.TasksFailed++
			}
			e.mu.Unlock()

			e.pending.Done()
		}
	}
}
