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

// Package future implements the asynchronous value model of the Soli
// runtime: a Future is a handle to a value produced on a background
// worker, and resolving it blocks the caller until the producer
// completes.
//
// Futures are created by spawning a producer on a Scheduler:
//
//	sched := future.MustNew()
//	f := future.Spawn(sched, func() ([]byte, error) {
//	    return fetchBody("https://example.com")
//	})
//	// ... other work runs concurrently ...
//	body, err := f.Resolve()
//
// A Future transitions exactly once from Pending to Resolved or
// Failed. Any number of goroutines may resolve the same Future; all of
// them observe the identical terminal value, and the producer runs at
// most once.
//
// Language builtins that need a concrete value (length, iteration,
// stringification, arithmetic) must not resolve futures ad hoc.
// Materialize is the single coercion seam: it resolves any Future it
// is handed and passes every other value through unchanged.
package future
