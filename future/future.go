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
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrFutureFailed indicates that a future's producer returned an error.
	// The producer's error is attached as a wrapped cause.
	ErrFutureFailed = errors.New("future failed")

	// ErrTimeout indicates that a producer exceeded its bounded duration.
	// Surfaced through the normal failure path: errors.Is(err, ErrFutureFailed)
	// and errors.Is(err, ErrTimeout) both hold.
	ErrTimeout = errors.New("producer timed out")

	// ErrProducerPanic indicates that a producer panicked. The panic value
	// is included in the error message; the worker goroutine survives.
	ErrProducerPanic = errors.New("producer panicked")

	// ErrSchedulerClosed indicates that Spawn was called after Shutdown.
	ErrSchedulerClosed = errors.New("scheduler closed")
)

// State describes the lifecycle position of a Future.
// The state machine is Pending → Resolved | Failed; transitions are
// one-shot and performed only by the worker that ran the producer.
type State int32

const (
	// Pending means the producer has not completed yet.
	Pending State = iota

	// Resolved means the producer completed and its value is available.
	Resolved

	// Failed means the producer returned an error or panicked.
	Failed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Future is a handle to a value produced asynchronously by a Scheduler
// worker. The zero value is not usable; obtain futures from Spawn or
// SpawnTimeout.
//
// A Future is safe for concurrent use: any number of goroutines may
// call Resolve, State, or Materialize simultaneously. The value and
// error fields are published before the done channel closes, so
// readers that return from Resolve observe a fully written result.
type Future[T any] struct {
	done      chan struct{}
	state     atomic.Int32
	completed atomic.Bool
	value     T
	err       error
}

// newFuture returns a Future in the Pending state.
func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete transitions the future to a terminal state exactly once.
// Returns false if the future was already completed; in that case the
// arguments are discarded. The compare-and-set guard is what makes
// concurrent resolvers and racing workers safe.
func (f *Future[T]) complete(value T, err error) bool {
	if !f.completed.CompareAndSwap(false, true) {
		return false
	}
	f.value = value
	f.err = err
	if err != nil {
		f.state.Store(int32(Failed))
	} else {
		f.state.Store(int32(Resolved))
	}
	close(f.done)

	return true
}

// State reports the current lifecycle state without blocking.
func (f *Future[T]) State() State {
	return State(f.state.Load())
}

// Resolve blocks until the future leaves Pending and returns its
// terminal value. If the future is already terminal, Resolve returns
// immediately. Resolving a resolved future any number of times yields
// the identical value without re-invoking the producer.
//
// On failure the returned error wraps ErrFutureFailed and the
// producer's cause, so callers can test either with errors.Is.
func (f *Future[T]) Resolve() (T, error) {
	return f.ResolveContext(context.Background())
}

// ResolveContext is Resolve with a caller-supplied context. It returns
// the context's error if ctx is cancelled before the producer
// completes; the future itself keeps running and can be resolved
// again later.
func (f *Future[T]) ResolveContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	if f.err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrFutureFailed, f.err)
	}

	return f.value, nil
}

// Materialize resolves the future and returns its value untyped.
// It exists so Materialize (the package-level coercion seam) can
// resolve futures of any element type through one interface.
func (f *Future[T]) Materialize() (any, error) {
	v, err := f.Resolve()
	if err != nil {
		return nil, err
	}

	return v, nil
}
