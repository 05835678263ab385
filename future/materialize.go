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

// Resolvable is implemented by values that must be materialized before
// use. Future[T] implements it for every element type.
type Resolvable interface {
	// Materialize blocks until a concrete value is available.
	Materialize() (any, error)
}

// Materialize is the single coercion seam between the runtime's
// value-consuming operations and the scheduler. Every builtin that
// needs a concrete value (length, iteration, stringification,
// arithmetic) calls Materialize on its operand before use.
//
// If v is a Future (or anything else Resolvable), Materialize blocks
// with Resolve semantics and returns the terminal value or failure.
// Any other value is returned unchanged with a nil error, so the call
// is cheap on the non-future path.
func Materialize(v any) (any, error) {
	if r, ok := v.(Resolvable); ok {
		return r.Materialize()
	}

	return v, nil
}
