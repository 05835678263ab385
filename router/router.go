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

package router

import (
	"fmt"
	"slices"
	"strings"
)

// RouteID identifies a registered route. IDs are assigned in
// registration order starting at 0 and are stable for the lifetime of
// the router.
type RouteID int

// RouteKind distinguishes how a matched route is served at the
// transport boundary.
type RouteKind int

const (
	// KindHTTP is an ordinary request/response route.
	KindHTTP RouteKind = iota

	// KindWebSocket is served by upgrading the connection after the
	// middleware chain passes.
	KindWebSocket

	// KindLive is a live-view channel; it rides the websocket upgrade
	// path.
	KindLive
)

// Route is one entry of the routing table.
type Route struct {
	ID      RouteID
	Method  string
	Pattern Pattern
	Binding Binding
	Kind    RouteKind

	// Scopes lists the middleware scope blocks enclosing this route,
	// outermost first. Consumed by the middleware chain builder.
	Scopes []string

	// handler is resolved eagerly at registration for fixed actions.
	// Dynamic (wildcard) bindings resolve per request and leave it nil.
	handler HandlerFunc
}

// Match is the result of a successful resolution: the route, the
// extracted path parameters, and the concrete handler (including
// dynamically resolved wildcard actions).
type Match struct {
	Route   *Route
	Params  map[string]string
	Handler HandlerFunc
}

// RouteOption configures a route at registration time.
type RouteOption func(*Route)

// WithScopes records the enclosing middleware scopes, outermost first.
func WithScopes(scopes ...string) RouteOption {
	return func(rt *Route) {
		rt.Scopes = scopes
	}
}

// WithKind sets the route kind. The default is KindHTTP.
func WithKind(kind RouteKind) RouteOption {
	return func(rt *Route) {
		rt.Kind = kind
	}
}

// Router maintains an ordered table of path patterns mapped to handler
// bindings and resolves (method, path) pairs against it.
//
// The table is write-once-at-boot: Register all routes during the
// load phase, then serve. Resolve performs no locking; it must not
// run concurrently with Register.
//
// Matching policy: routes are tried in insertion order and the first
// full match wins. There is no scoring and no backtracking across
// candidates once a literal segment mismatches. Overlapping catch-all
// patterns with distinct literal prefixes are therefore legal and
// deterministic; only registrations that would be truly ambiguous
// (duplicate static path, or two catch-alls with the same literal
// prefix) are rejected with ErrPatternConflict.
type Router struct {
	registry *HandlerRegistry
	routes   []*Route
	static   map[string]*Route // "METHOD /path" full-path fast map
}

// NewRouter creates a router resolving handler bindings against the
// given registry.
func NewRouter(registry *HandlerRegistry) *Router {
	if registry == nil {
		registry = NewHandlerRegistry()
	}

	return &Router{
		registry: registry,
		static:   make(map[string]*Route, 16),
	}
}

// Register parses and adds a route to the table, returning its ID.
//
// Registration-time failures are fatal by design: the application must
// not start routing with an invalid table.
//   - ErrPatternInvalid: the pattern string does not parse
//   - ErrPatternConflict: the registration would be ambiguous
//   - ErrHandlerNotFound: a fixed binding names an unknown action
func (r *Router) Register(method, pattern string, binding Binding, opts ...RouteOption) (RouteID, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return 0, err
	}

	wild := hasWildcard(p)
	if binding.Dynamic() && !wild {
		return 0, fmt.Errorf("%w: dynamic binding %q requires a bare '*' pattern, got %q",
			ErrBindingInvalid, binding, pattern)
	}
	if wild && !binding.Dynamic() {
		return 0, fmt.Errorf("%w: pattern %q requires a %q-style dynamic binding",
			ErrBindingInvalid, pattern, binding.Controller+"#*")
	}

	rt := &Route{
		ID:      RouteID(len(r.routes)),
		Method:  method,
		Pattern: p,
		Binding: binding,
	}
	for _, opt := range opts {
		opt(rt)
	}

	if err := r.checkConflict(rt); err != nil {
		return 0, err
	}

	// Fixed actions resolve eagerly so a typo'd binding fails at load,
	// not on first request.
	if !binding.Dynamic() {
		fn, ok := r.registry.Lookup(binding.Controller, binding.Action)
		if !ok {
			return 0, fmt.Errorf("%w: %s (route %s %s)", ErrHandlerNotFound, binding, method, pattern)
		}
		rt.handler = fn
	}

	r.routes = append(r.routes, rt)

	// The fast map must never override registration order: a static
	// path already claimed by an earlier route (e.g. a param route
	// registered first) resolves through the ordered scan instead.
	if p.Static() && !r.claimed(method, p.String()) {
		r.static[method+" "+p.String()] = rt
	}

	return rt.ID, nil
}

// claimed reports whether an earlier-registered route for method
// would match path before the route just appended.
func (r *Router) claimed(method, path string) bool {
	segments := splitPath(path)
	for _, rt := range r.routes[:len(r.routes)-1] {
		if rt.Method != method {
			continue
		}
		params := make(map[string]string, 4)
		if _, ok := rt.Pattern.match(segments, params); ok {
			return true
		}
	}

	return false
}

// checkConflict rejects registrations that would make resolution
// ambiguous for the same method.
func (r *Router) checkConflict(rt *Route) error {
	for _, existing := range r.routes {
		if existing.Method != rt.Method {
			continue
		}
		if existing.Pattern.String() == rt.Pattern.String() {
			return fmt.Errorf("%w: %s %s already registered", ErrPatternConflict, rt.Method, rt.Pattern)
		}
		if existing.Pattern.CatchAll() && rt.Pattern.CatchAll() &&
			existing.Pattern.literalPrefix() == rt.Pattern.literalPrefix() {
			return fmt.Errorf("%w: %s %s overlaps catch-all %s", ErrPatternConflict,
				rt.Method, rt.Pattern, existing.Pattern)
		}
	}

	return nil
}

// Resolve matches an incoming (method, path) against the table.
//
// On success the returned Match carries the extracted parameters:
// empty for static routes, one entry per ":name" segment, and the
// slash-preserving remainder for "*name" splats. For bare-wildcard
// routes the handler is resolved dynamically: the captured remainder
// (leading slash stripped) names the action on the route's
// controller; a missing action yields ErrRouteNotFound rather than
// falling through to later routes.
func (r *Router) Resolve(method, path string) (Match, error) {
	// Full-path fast map for static routes.
	if rt, ok := r.static[method+" "+path]; ok {
		return Match{Route: rt, Params: map[string]string{}, Handler: rt.handler}, nil
	}

	segments := splitPath(path)

	for _, rt := range r.routes {
		if rt.Method != method {
			continue
		}

		params := make(map[string]string, 4)
		remainder, ok := rt.Pattern.match(segments, params)
		if !ok {
			continue
		}

		handler := rt.handler
		if rt.Binding.Dynamic() {
			action := strings.TrimPrefix(remainder, "/")
			fn, found := r.registry.Lookup(rt.Binding.Controller, action)
			if !found {
				return Match{}, fmt.Errorf("%w: no action %q on controller %q",
					ErrRouteNotFound, action, rt.Binding.Controller)
			}
			handler = fn
			params["action"] = action
		}

		return Match{Route: rt, Params: params, Handler: handler}, nil
	}

	return Match{}, fmt.Errorf("%w: %s %s", ErrRouteNotFound, method, path)
}

// AllowedMethods returns the methods for which path would resolve,
// in registration order without duplicates. Used by the dispatcher to
// answer 405 with an Allow header instead of a bare 404.
func (r *Router) AllowedMethods(path string) []string {
	segments := splitPath(path)

	var allowed []string
	for _, rt := range r.routes {
		if slices.Contains(allowed, rt.Method) {
			continue
		}
		params := make(map[string]string, 4)
		if _, ok := rt.Pattern.match(segments, params); ok {
			allowed = append(allowed, rt.Method)
		}
	}

	return allowed
}

// Routes returns the registration-ordered table for introspection.
// Callers must not modify the returned slice.
func (r *Router) Routes() []*Route {
	return r.routes
}

// hasWildcard reports whether the pattern's terminal catch-all is a
// bare wildcard (as opposed to a named splat).
func hasWildcard(p Pattern) bool {
	if len(p.segments) == 0 {
		return false
	}

	return p.segments[len(p.segments)-1].Kind == SegmentWildcard
}

// splitPath splits a request path into segments, dropping empties from
// doubled or trailing slashes. The root path yields zero segments.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}

	parts := strings.Split(trimmed, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}
