// Copyright 2026 The Soli Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package future

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// defaultWorkerFactor sizes the pool relative to GOMAXPROCS when no
// explicit worker count is configured. Producers are expected to be
// I/O bound (outbound HTTP calls), so the pool is oversubscribed.
const defaultWorkerFactor = 8

// Option defines functional options for scheduler configuration.
type Option func(*Scheduler)

// WithWorkers sets the maximum number of producers executing
// concurrently. Values below 1 fail validation in New.
//
// Example:
//
//	sched, err := future.New(future.WithWorkers(64))
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		s.workers = n
	}
}

// Scheduler runs future producers on a bounded pool of goroutines.
//
// Spawn never blocks the caller: the producer goroutine itself waits
// for a pool slot. N independent I/O-bound producers spawned
// back-to-back therefore run concurrently, and their combined wall
// time approximates the slowest producer, not the sum.
//
// The Scheduler is safe for concurrent use.
type Scheduler struct {
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	workers int
	closed  atomic.Bool

	// mu serializes producer registration against Shutdown so wg.Add
	// can never race wg.Wait on a drained group.
	mu sync.Mutex
}

// acquire claims a waitgroup slot for one producer. It fails once
// Shutdown has begun.
func (s *Scheduler) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return false
	}
	s.wg.Add(1)

	return true
}

// New creates a scheduler with optional configuration.
// The default pool size is 8× GOMAXPROCS.
func New(opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		workers: runtime.GOMAXPROCS(0) * defaultWorkerFactor,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.workers < 1 {
		return nil, fmt.Errorf("scheduler workers must be positive, got %d", s.workers)
	}
	s.sem = semaphore.NewWeighted(int64(s.workers))

	return s, nil
}

// MustNew creates a scheduler and panics if configuration is invalid.
func MustNew(opts ...Option) *Scheduler {
	s, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("future.MustNew: %v", err))
	}

	return s
}

// Workers returns the configured pool size.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Shutdown waits for all in-flight producers to finish or for ctx to
// expire. After Shutdown, Spawn returns futures that fail immediately
// with ErrSchedulerClosed.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed.Store(true)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Spawn schedules producer on the pool and returns a Pending future
// without blocking. The producer is executed at most once; its result
// or error becomes the future's terminal state. A panicking producer
// fails the future with ErrProducerPanic instead of crashing the
// worker.
//
// Spawn is a package-level function because Go methods cannot
// introduce type parameters.
func Spawn[T any](s *Scheduler, producer func() (T, error)) *Future[T] {
	f := newFuture[T]()

	if !s.acquire() {
		var zero T
		f.complete(zero, ErrSchedulerClosed)
		return f
	}

	go func() {
		defer s.wg.Done()

		// The goroutine, not the caller, waits for a pool slot.
		if err := s.sem.Acquire(context.Background(), 1); err != nil {
			var zero T
			f.complete(zero, err)
			return
		}
		defer s.sem.Release(1)

		run(f, producer)
	}()

	return f
}

// SpawnTimeout is Spawn with a bounded producer duration. If the
// producer does not complete within d, the future fails with
// ErrTimeout through the normal Failed path. The producer goroutine
// is not killed; its late result is discarded by the one-shot
// completion guard.
func SpawnTimeout[T any](s *Scheduler, d time.Duration, producer func() (T, error)) *Future[T] {
	if d <= 0 {
		return Spawn(s, producer)
	}

	f := newFuture[T]()

	if !s.acquire() {
		var zero T
		f.complete(zero, ErrSchedulerClosed)
		return f
	}

	go func() {
		defer s.wg.Done()

		if err := s.sem.Acquire(context.Background(), 1); err != nil {
			var zero T
			f.complete(zero, err)
			return
		}
		defer s.sem.Release(1)

		timer := time.NewTimer(d)
		defer timer.Stop()

		inner := make(chan struct{})
		go func() {
			defer close(inner)
			run(f, producer)
		}()

		select {
		case <-inner:
		case <-timer.C:
			var zero T
			f.complete(zero, fmt.Errorf("%w after %s", ErrTimeout, d))
		}
	}()

	return f
}

// run executes producer and completes f, converting panics into
// ErrProducerPanic failures.
func run[T any](f *Future[T], producer func() (T, error)) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			f.complete(zero, fmt.Errorf("%w: %v", ErrProducerPanic, r))
		}
	}()

	v, err := producer()
	f.complete(v, err)
}
