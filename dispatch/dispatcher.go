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

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"soli.dev/runtime/future"
	"soli.dev/runtime/middleware"
	"soli.dev/runtime/router"
	"soli.dev/runtime/routes"
)

// ErrNilTable is returned by New when the routes table is missing.
var ErrNilTable = errors.New("dispatch: routes table must not be nil")

// Mode selects how much error detail leaves the process.
type Mode int

const (
	// ModeDevelopment includes the error message and, for panics, the
	// stack trace in 500 responses.
	ModeDevelopment Mode = iota

	// ModeProduction responses carry only a generic message and the
	// correlation id. Detail stays in the server log.
	ModeProduction
)

// String returns the mode name as spelled in configuration files.
func (m Mode) String() string {
	if m == ModeProduction {
		return "production"
	}
	return "development"
}

// schedulerKey is the request context key the dispatcher stores its
// scheduler under.
const schedulerKey = "soli.scheduler"

// SchedulerFrom returns the future scheduler the dispatcher attached
// to the request, if any. Handlers use it to spawn work:
//
//	s, _ := dispatch.SchedulerFrom(req)
//	f := future.Spawn(s, fetchPosts)
func SchedulerFrom(req router.Request) (*future.Scheduler, bool) {
	v, ok := req.Value(schedulerKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*future.Scheduler)
	return s, ok
}

// Dispatcher owns the request lifecycle: resolve, chain, handle,
// render. It is immutable after New and safe for concurrent use.
type Dispatcher struct {
	router   *router.Router
	handlers *router.HandlerRegistry

	// chains holds the middleware chain per route, precomputed at
	// construction so dispatch never sorts or validates.
	chains map[router.RouteID][]*middleware.Descriptor

	sockets map[string]SocketHandler

	scheduler      *future.Scheduler
	ownedScheduler bool

	logger    *slog.Logger
	recorder  Recorder
	mode      Mode
	notFound  router.HandlerFunc
	accessLog bool
}

// New builds a dispatcher from a declared routes table. Every route is
// registered and its middleware chain built eagerly; the first
// load-time failure aborts construction:
//   - router.ErrPatternInvalid, router.ErrPatternConflict
//   - router.ErrHandlerNotFound for a fixed binding with no handler
//   - middleware.ErrScopeViolation, middleware.ErrUnknownMiddleware
func New(table *routes.Table, mw *middleware.Registry, handlers *router.HandlerRegistry, opts ...Option) (*Dispatcher, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	if mw == nil {
		mw = middleware.NewRegistry()
	}
	if handlers == nil {
		handlers = router.NewHandlerRegistry()
	}

	d := &Dispatcher{
		handlers: handlers,
		chains:   make(map[router.RouteID][]*middleware.Descriptor, table.Len()),
		sockets:  make(map[string]SocketHandler),
		logger:   noopLogger,
		mode:     ModeDevelopment,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.scheduler == nil {
		d.scheduler = future.MustNew()
		d.ownedScheduler = true
	}
	if d.notFound == nil {
		d.notFound = defaultNotFound
	}

	d.router = router.NewRouter(handlers)

	for _, entry := range table.Entries() {
		binding, err := router.ParseBinding(entry.Binding)
		if err != nil {
			return nil, err
		}

		if entry.Kind != router.KindHTTP {
			if err := d.registerSocketBinding(binding); err != nil {
				return nil, err
			}
		}

		id, err := d.router.Register(entry.Method, entry.Path, binding,
			router.WithScopes(entry.Scopes...),
			router.WithKind(entry.Kind),
		)
		if err != nil {
			return nil, fmt.Errorf("route %s %s: %w", entry.Method, entry.Path, err)
		}

		chain, err := mw.BuildChain(entry.Scopes)
		if err != nil {
			return nil, fmt.Errorf("route %s %s: %w", entry.Method, entry.Path, err)
		}
		d.chains[id] = chain
	}

	return d, nil
}

// registerSocketBinding checks that a websocket or live binding has a
// socket handler and installs a plain-HTTP stub for it so the router
// can resolve the binding. The stub answers 426 for clients that hit
// the path without upgrading.
func (d *Dispatcher) registerSocketBinding(binding router.Binding) error {
	key := binding.String()
	if _, ok := d.sockets[key]; !ok {
		return fmt.Errorf("%w: no socket handler for %q", router.ErrHandlerNotFound, key)
	}

	if _, ok := d.handlers.Lookup(binding.Controller, binding.Action); ok {
		return nil
	}

	return d.handlers.Register(binding.Controller, binding.Action, func(router.Request) (router.Response, error) {
		resp := router.NewResponse(http.StatusUpgradeRequired, []byte(`{"error":"websocket upgrade required"}`))
		resp.Headers["Content-Type"] = "application/json"
		resp.Headers["Upgrade"] = "websocket"
		return resp, nil
	})
}

// Scheduler returns the dispatcher's future scheduler.
func (d *Dispatcher) Scheduler() *future.Scheduler {
	return d.scheduler
}

// Routes returns the registered routes in declaration order.
func (d *Dispatcher) Routes() []*router.Route {
	return d.router.Routes()
}

// Shutdown drains the dispatcher's scheduler if the dispatcher
// created it. A caller-supplied scheduler is the caller's to close.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if !d.ownedScheduler {
		return nil
	}
	return d.scheduler.Shutdown(ctx)
}

// Dispatch runs one request through the full lifecycle and always
// produces a response. Routing misses become 404 or 405; middleware
// may short-circuit; handler errors and panics become 500-class
// responses with a correlation id.
func (d *Dispatcher) Dispatch(ctx context.Context, req router.Request) router.Response {
	ctx, obsState, start := d.observeStart(ctx, req)

	pattern, resp := d.dispatch(ctx, req)

	d.observeEnd(ctx, obsState, req, pattern, resp.Status, start)

	return resp
}

// observeStart opens the observability bracket for one request. Both
// the HTTP dispatch path and the socket upgrade path flow through it.
func (d *Dispatcher) observeStart(ctx context.Context, req router.Request) (context.Context, any, time.Time) {
	start := time.Now()

	var state any
	if d.recorder != nil {
		ctx, state = d.recorder.OnRequestStart(ctx, req)
	}

	return ctx, state, start
}

// observeEnd closes the bracket and emits the access log record.
func (d *Dispatcher) observeEnd(ctx context.Context, state any, req router.Request, pattern string, status int, start time.Time) {
	if d.recorder != nil {
		d.recorder.OnRequestEnd(ctx, state, pattern, status)
	}
	if d.accessLog {
		d.logger.LogAttrs(ctx, slog.LevelInfo, "request",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("route", pattern),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

// dispatch is the lifecycle core. It returns the matched route
// pattern (or a sentinel for misses) alongside the response.
func (d *Dispatcher) dispatch(ctx context.Context, req router.Request) (string, router.Response) {
	match, err := d.router.Resolve(req.Method, req.Path)
	if err != nil {
		// A path that resolves under other methods is a 405, not a 404.
		// The method check matters: a dynamic-action miss fails Resolve
		// while the pattern itself still matches the path.
		allowed := d.router.AllowedMethods(req.Path)
		if len(allowed) > 0 && !slices.Contains(allowed, req.Method) {
			return "_method_not_allowed", methodNotAllowed(allowed)
		}

		resp, nfErr := d.notFound(req)
		if nfErr != nil {
			return "_not_found", d.serverError(ctx, req, nfErr, nil)
		}
		return "_not_found", resp
	}

	req = req.WithParams(match.Params)
	req = req.WithValue(schedulerKey, d.scheduler)

	for _, desc := range d.chains[match.Route.ID] {
		result, err := desc.Handler(req)
		if err != nil {
			return match.Route.Pattern.String(), d.serverError(ctx, req, fmt.Errorf("middleware %s: %w", desc.Name, err), nil)
		}
		if resp, halted := result.ShortCircuited(); halted {
			return match.Route.Pattern.String(), resp
		}
		req = result.Request()
	}

	return match.Route.Pattern.String(), d.invoke(ctx, req, match.Handler)
}

// invoke runs the handler with panic containment.
func (d *Dispatcher) invoke(ctx context.Context, req router.Request, handler router.HandlerFunc) (resp router.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = d.serverError(ctx, req, fmt.Errorf("panic: %v", r), debug.Stack())
		}
	}()

	resp, err := handler(req)
	if err != nil {
		return d.serverError(ctx, req, err, nil)
	}

	return resp
}

// serverError renders an internal failure. The correlation id appears
// in both the response and the log record so an operator can join the
// opaque client report to the server-side detail.
func (d *Dispatcher) serverError(ctx context.Context, req router.Request, cause error, stack []byte) router.Response {
	correlationID := uuid.NewString()

	attrs := []slog.Attr{
		slog.String("correlation_id", correlationID),
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.String("error", cause.Error()),
	}
	if stack != nil {
		attrs = append(attrs, slog.String("stack", string(stack)))
	}
	d.logger.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)

	body := map[string]string{
		"error":          "internal server error",
		"correlation_id": correlationID,
	}
	if d.mode == ModeDevelopment {
		body["detail"] = cause.Error()
		if stack != nil {
			body["stack"] = string(stack)
		}
	}

	return jsonResponse(http.StatusInternalServerError, body)
}

// defaultNotFound is the 404 rendered when no custom handler is set.
func defaultNotFound(req router.Request) (router.Response, error) {
	return jsonResponse(http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  req.Path,
	}), nil
}

func methodNotAllowed(allowed []string) router.Response {
	resp := jsonResponse(http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
	resp.Headers["Allow"] = strings.Join(allowed, ", ")
	return resp
}

func jsonResponse(status int, body any) router.Response {
	data, err := json.Marshal(body)
	if err != nil {
		// Bodies built here are maps of strings; marshal cannot fail.
		data = []byte(`{"error":"internal server error"}`)
	}

	resp := router.NewResponse(status, data)
	resp.Headers["Content-Type"] = "application/json"
	return resp
}
