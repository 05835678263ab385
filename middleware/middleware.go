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

// Package middleware implements scoped middleware composition for the
// Soli runtime.
//
// A middleware is declared once with a name, an execution order, and a
// scope. Global middleware run on every route; scope-only middleware
// run only for routes nested inside a middleware block naming them;
// Both-scoped middleware do both without duplication. The chain for a
// route is computed once at load time by Registry.BuildChain and is
// immutable afterwards.
//
// Each middleware step either continues the chain with a (possibly
// extended) request, or short-circuits it with a final response:
//
//	func requireAuth(req router.Request) (middleware.Result, error) {
//	    token, ok := req.Headers.Get("Authorization")
//	    if !ok {
//	        return middleware.ShortCircuit(router.NewResponse(401, nil)), nil
//	    }
//	    return middleware.Continue(req.WithValue("auth.token", token)), nil
//	}
package middleware

import "soli.dev/runtime/router"

// Scope controls where a middleware may run.
type Scope int

const (
	// ScopeGlobal middleware run on every route and may not be named
	// inside an explicit middleware block.
	ScopeGlobal Scope = iota

	// ScopeOnly middleware never run unless a route is nested inside a
	// middleware block naming them.
	ScopeOnly

	// ScopeBoth middleware run globally and may additionally be named in
	// scopes; a route inside such a scope still runs them once.
	ScopeBoth
)

// String returns the directive spelling of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global_only"
	case ScopeOnly:
		return "scope_only"
	case ScopeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Handler is a middleware step. A returned error aborts the chain and
// is converted to a 500-class response at the dispatch boundary.
type Handler func(router.Request) (Result, error)

// Result is the outcome of one middleware step: either Continue with
// the request the rest of the chain should see, or ShortCircuit with
// a final response.
type Result struct {
	req  router.Request
	resp router.Response
	halt bool
}

// Continue passes req on to the next step of the chain.
func Continue(req router.Request) Result {
	return Result{req: req}
}

// ShortCircuit terminates the chain; resp becomes the dispatch result
// and later middleware and the handler never run.
func ShortCircuit(resp router.Response) Result {
	return Result{resp: resp, halt: true}
}

// ShortCircuited returns the final response and true if the step
// terminated the chain.
func (r Result) ShortCircuited() (router.Response, bool) {
	return r.resp, r.halt
}

// Request returns the request the next step should receive. Only
// meaningful for Continue results.
func (r Result) Request() router.Request {
	return r.req
}

// Descriptor declares a middleware: its name, execution order, scope,
// and handler. Lower orders run earlier; ties are broken by
// registration order.
type Descriptor struct {
	Name    string
	Order   int
	Scope   Scope
	Handler Handler

	// seq is the registration sequence number, the tie-breaker for
	// equal orders. Assigned by Registry.Register.
	seq int
}
