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

// Package routes is the route-definition surface of the Soli runtime.
// It mirrors the declaration forms of a Soli routes file:
//
//	table, err := routes.Define(func(r *routes.Builder) {
//	    r.Get("/", "pages#home")
//	    r.Namespace("api", func(r *routes.Builder) {
//	        r.Middleware("auth", func(r *routes.Builder) {
//	            r.Resources("posts")
//	        })
//	    })
//	    r.WebSocket("/chat", "chat#connect")
//	})
//
// Define produces an immutable Table consumed once at boot by the
// dispatcher; declaration errors are collected and returned together
// so a routes file reports every problem in one pass.
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"soli.dev/runtime/router"
)

// ErrRouteInvalid indicates a malformed declaration in a routes block.
var ErrRouteInvalid = errors.New("invalid route declaration")

// resourceActions are the RESTful actions Resources expands to, in
// declaration order.
var resourceActions = []string{"index", "show", "create", "update", "destroy"}

// Entry is one declared route before registration: raw pattern and
// binding strings plus the enclosing middleware scopes, outermost
// first.
type Entry struct {
	Method  string
	Path    string
	Binding string
	Scopes  []string
	Kind    router.RouteKind
}

// Table is an immutable set of declared routes.
type Table struct {
	entries []Entry
}

// Entries returns the declarations in declaration order. Callers must
// not modify the returned slice.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Len returns the number of declared routes.
func (t *Table) Len() int {
	return len(t.entries)
}

// Define runs fn against a fresh Builder and returns the resulting
// table. All declaration errors encountered in the block are joined
// into the returned error; a non-nil error means the table must not
// be served.
func Define(fn func(r *Builder)) (*Table, error) {
	table := &Table{}
	var errs []error
	b := &Builder{table: table, errs: &errs}

	fn(b)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return table, nil
}

// Builder accumulates route declarations. Namespace and Middleware
// return nested builders sharing the same table, so declarations
// inside blocks inherit the enclosing prefix and scopes.
type Builder struct {
	table  *Table
	prefix string
	scopes []string
	errs   *[]error
}

// Get declares a GET route bound to "controller#action".
func (b *Builder) Get(path, binding string) {
	b.add(http.MethodGet, path, binding, router.KindHTTP)
}

// Post declares a POST route.
func (b *Builder) Post(path, binding string) {
	b.add(http.MethodPost, path, binding, router.KindHTTP)
}

// Put declares a PUT route.
func (b *Builder) Put(path, binding string) {
	b.add(http.MethodPut, path, binding, router.KindHTTP)
}

// Patch declares a PATCH route.
func (b *Builder) Patch(path, binding string) {
	b.add(http.MethodPatch, path, binding, router.KindHTTP)
}

// Delete declares a DELETE route.
func (b *Builder) Delete(path, binding string) {
	b.add(http.MethodDelete, path, binding, router.KindHTTP)
}

// WebSocket declares a route served by upgrading the connection after
// the middleware chain passes. Upgrade requests arrive as GETs.
func (b *Builder) WebSocket(path, binding string) {
	b.add(http.MethodGet, path, binding, router.KindWebSocket)
}

// Live declares a live-view channel under "/<name>", served over the
// websocket upgrade path.
func (b *Builder) Live(name, binding string) {
	if name == "" {
		b.fail(fmt.Errorf("%w: live view name must be non-empty", ErrRouteInvalid))
		return
	}
	b.add(http.MethodGet, "/"+name, binding, router.KindLive)
}

// Namespace nests declarations under a path prefix.
func (b *Builder) Namespace(name string, fn func(r *Builder)) {
	if name == "" {
		b.fail(fmt.Errorf("%w: namespace name must be non-empty", ErrRouteInvalid))
		return
	}

	fn(&Builder{
		table:  b.table,
		prefix: b.prefix + "/" + strings.Trim(name, "/"),
		scopes: b.scopes,
		errs:   b.errs,
	})
}

// Middleware nests declarations inside a middleware scope block.
// Routes declared in the block record name as an enclosing scope
// (outermost first); the chain builder validates the reference at
// load time.
func (b *Builder) Middleware(name string, fn func(r *Builder)) {
	if name == "" {
		b.fail(fmt.Errorf("%w: middleware scope name must be non-empty", ErrRouteInvalid))
		return
	}

	scopes := make([]string, 0, len(b.scopes)+1)
	scopes = append(scopes, b.scopes...)
	scopes = append(scopes, name)

	fn(&Builder{
		table:  b.table,
		prefix: b.prefix,
		scopes: scopes,
		errs:   b.errs,
	})
}

// ResourceOption restricts the actions Resources declares.
type ResourceOption func(*resourceConfig)

type resourceConfig struct {
	only   []string
	except []string
}

// Only keeps just the named actions.
func Only(actions ...string) ResourceOption {
	return func(c *resourceConfig) {
		c.only = actions
	}
}

// Except drops the named actions.
func Except(actions ...string) ResourceOption {
	return func(c *resourceConfig) {
		c.except = actions
	}
}

// Resources declares the RESTful route set for a resource:
//
//	GET    /name      name#index
//	GET    /name/:id  name#show
//	POST   /name      name#create
//	PUT    /name/:id  name#update
//	PATCH  /name/:id  name#update
//	DELETE /name/:id  name#destroy
func (b *Builder) Resources(name string, opts ...ResourceOption) {
	if name == "" {
		b.fail(fmt.Errorf("%w: resource name must be non-empty", ErrRouteInvalid))
		return
	}

	var cfg resourceConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, action := range cfg.actions(b, name) {
		binding := name + "#" + action
		base := "/" + name
		switch action {
		case "index":
			b.add(http.MethodGet, base, binding, router.KindHTTP)
		case "show":
			b.add(http.MethodGet, base+"/:id", binding, router.KindHTTP)
		case "create":
			b.add(http.MethodPost, base, binding, router.KindHTTP)
		case "update":
			b.add(http.MethodPut, base+"/:id", binding, router.KindHTTP)
			b.add(http.MethodPatch, base+"/:id", binding, router.KindHTTP)
		case "destroy":
			b.add(http.MethodDelete, base+"/:id", binding, router.KindHTTP)
		}
	}
}

// actions resolves the Only/Except filters against the full action
// set, reporting unknown action names as declaration errors.
func (c *resourceConfig) actions(b *Builder, resource string) []string {
	for _, a := range append(append([]string{}, c.only...), c.except...) {
		if !slices.Contains(resourceActions, a) {
			b.fail(fmt.Errorf("%w: resource %q has unknown action %q", ErrRouteInvalid, resource, a))
		}
	}

	out := make([]string, 0, len(resourceActions))
	for _, a := range resourceActions {
		if c.only != nil && !slices.Contains(c.only, a) {
			continue
		}
		if slices.Contains(c.except, a) {
			continue
		}
		out = append(out, a)
	}

	return out
}

// add appends one entry, validating the declaration shape. Pattern
// semantics (splat placement, conflicts) are validated later by the
// router; the DSL only rejects what it can see locally.
func (b *Builder) add(method, path, binding string, kind router.RouteKind) {
	if path == "" || path[0] != '/' {
		b.fail(fmt.Errorf("%w: path %q must start with '/'", ErrRouteInvalid, path))
		return
	}
	if _, err := router.ParseBinding(binding); err != nil {
		b.fail(err)
		return
	}

	fullPath := b.prefix + path
	if fullPath != "/" {
		fullPath = strings.TrimSuffix(fullPath, "/")
	}

	// Scopes are shared across sibling builders; copy so later blocks
	// cannot alias this entry's slice.
	scopes := slices.Clone(b.scopes)

	b.table.entries = append(b.table.entries, Entry{
		Method:  method,
		Path:    fullPath,
		Binding: binding,
		Scopes:  scopes,
		Kind:    kind,
	})
}

// fail records a declaration error.
func (b *Builder) fail(err error) {
	*b.errs = append(*b.errs, err)
}
