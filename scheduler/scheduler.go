// Copyright (C) 2026 Blobnet Labs, Inc.
// See LICENSE for copying information.

// Package scheduler runs transform jobs on a fixed pool of workers.
package scheduler

import (
	"context"
	"sync"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/blobnet/datapath/transform"
)

var (
	// Error is the default scheduler errs class.
	Error = errs.Class("scheduler")

	// ErrClosed is returned by Submit after Close and delivered to
	// every job the scheduler cancels during shutdown.
	ErrClosed = errs.Class("scheduler closed")

	mon = monkit.Package()
)

// Scheduler executes submitted jobs on a fixed number of worker
// goroutines. Close stops intake, cancels every job still queued
// (never silent discard) and waits for running jobs to finish
// normally.
type Scheduler struct {
	log     *zap.Logger
	workers sync.WaitGroup

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []transform.Job
	closed bool
}

// NewScheduler starts workers goroutines ready to execute jobs. A
// non-positive workers count is treated as one.
func NewScheduler(log *zap.Logger, workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &Scheduler{log: log}
	s.cond = sync.NewCond(&s.mu)

	s.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker(context.Background())
	}
	return s
}

// Submit enqueues job for asynchronous execution on some worker. After
// Close it fails with ErrClosed without touching the job: the caller
// still owns it and remains responsible for settling it, typically by
// cancelling it.
func (s *Scheduler) Submit(job transform.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed.New("job rejected")
	}
	s.queue = append(s.queue, job)
	s.cond.Signal()
	return nil
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.workers.Done()

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		job := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		job.Run(ctx)
		mon.Counter("jobs_executed").Inc(1)
	}
}

// Close stops accepting jobs, cancels every job still queued with
// ErrClosed and waits for jobs already running to complete normally.
// Idempotent and safe to call from any goroutine.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.workers.Wait()
		return nil
	}
	s.closed = true
	cancelled := s.queue
	s.queue = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	if len(cancelled) > 0 {
		s.log.Debug("cancelling queued jobs", zap.Int("count", len(cancelled)))
	}
	for _, job := range cancelled {
		job.Cancel(ErrClosed.New("scheduler shut down"))
		mon.Counter("jobs_cancelled").Inc(1)
	}

	s.workers.Wait()
	return nil
}
