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

package middleware

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrDuplicateMiddleware indicates two registrations under one name.
	ErrDuplicateMiddleware = errors.New("duplicate middleware name")

	// ErrInvalidDescriptor indicates a descriptor with an empty name or
	// nil handler.
	ErrInvalidDescriptor = errors.New("invalid middleware descriptor")

	// ErrUnknownMiddleware indicates a scope block references a name that
	// was never registered. Raised at load time by BuildChain.
	ErrUnknownMiddleware = errors.New("unknown middleware")

	// ErrScopeViolation indicates a global-only middleware was referenced
	// inside an explicit scope block. Raised at load time; the
	// application must not start routing with such a table.
	ErrScopeViolation = errors.New("global-only middleware referenced in scope")
)

// Registry holds all declared middleware. Like the route table it is
// write-once-at-boot: Register during the load phase, then BuildChain
// freely from any goroutine.
type Registry struct {
	byName map[string]*Descriptor
	all    []*Descriptor
}

// NewRegistry creates an empty middleware registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor, 8)}
}

// Register adds a middleware declaration. Names must be unique.
func (reg *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: name must be non-empty", ErrInvalidDescriptor)
	}
	if d.Handler == nil {
		return fmt.Errorf("%w: %q has a nil handler", ErrInvalidDescriptor, d.Name)
	}
	if d.Scope < ScopeGlobal || d.Scope > ScopeBoth {
		return fmt.Errorf("%w: %q has unknown scope %d", ErrInvalidDescriptor, d.Name, d.Scope)
	}
	if _, exists := reg.byName[d.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateMiddleware, d.Name)
	}

	d.seq = len(reg.all)
	stored := &d
	reg.byName[d.Name] = stored
	reg.all = append(reg.all, stored)

	return nil
}

// MustRegister is Register that panics on error, for load-time tables
// built from literals.
func (reg *Registry) MustRegister(d Descriptor) {
	if err := reg.Register(d); err != nil {
		panic(fmt.Sprintf("middleware.MustRegister: %v", err))
	}
}

// Lookup returns the descriptor registered under name.
func (reg *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := reg.byName[name]
	return d, ok
}

// Len returns the number of registered middleware.
func (reg *Registry) Len() int {
	return len(reg.all)
}

// BuildChain computes the execution chain for a route nested inside
// the given scopes (outermost first).
//
// The chain contains every Global and Both middleware, plus the
// middleware named by each enclosing scope. A name already present is
// not added twice. The final chain is ordered by ascending Order with
// registration order breaking ties.
//
// Load-time failures:
//   - ErrUnknownMiddleware: a scope names an unregistered middleware
//   - ErrScopeViolation: a scope names a global-only middleware
func (reg *Registry) BuildChain(scopes []string) ([]*Descriptor, error) {
	chain := make([]*Descriptor, 0, len(reg.all))
	included := make(map[string]bool, len(reg.all))

	for _, d := range reg.all {
		if d.Scope == ScopeGlobal || d.Scope == ScopeBoth {
			chain = append(chain, d)
			included[d.Name] = true
		}
	}

	for _, scope := range scopes {
		d, ok := reg.byName[scope]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMiddleware, scope)
		}
		if d.Scope == ScopeGlobal {
			return nil, fmt.Errorf("%w: %q", ErrScopeViolation, scope)
		}
		if included[d.Name] {
			continue
		}
		chain = append(chain, d)
		included[d.Name] = true
	}

	slices.SortStableFunc(chain, func(a, b *Descriptor) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}

		return a.seq - b.seq
	})

	return chain, nil
}
