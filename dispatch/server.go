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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"soli.dev/runtime/router"
)

// Default server timeouts. Read timeout is intentionally left to the
// header timeout so slow uploads are not cut off mid-body.
const (
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultReadHeaderTimeout = 2 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
)

// Server adapts a Dispatcher to net/http. It owns the listener
// lifecycle and the websocket upgrade path.
type Server struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	addr              string
	enableH2C         bool
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address. The default is ":8080".
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithH2C serves HTTP/2 over cleartext, for deployments behind a
// TLS-terminating proxy.
func WithH2C() ServerOption {
	return func(s *Server) {
		s.enableH2C = true
	}
}

// WithWriteTimeout sets the response write timeout.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.writeTimeout = d
	}
}

// WithIdleTimeout sets the keep-alive idle timeout.
func WithIdleTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.idleTimeout = d
	}
}

// WithReadHeaderTimeout sets the request header read timeout.
func WithReadHeaderTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.readHeaderTimeout = d
	}
}

// WithShutdownTimeout bounds graceful shutdown once Serve's context
// is cancelled.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// WithServerLogger sets the logger for listener-level events.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer wraps a dispatcher in an HTTP server.
func NewServer(d *Dispatcher, opts ...ServerOption) (*Server, error) {
	if d == nil {
		return nil, errors.New("dispatch: server requires a dispatcher")
	}

	s := &Server{
		dispatcher:        d,
		logger:            noopLogger,
		addr:              ":8080",
		writeTimeout:      DefaultWriteTimeout,
		idleTimeout:       DefaultIdleTimeout,
		readHeaderTimeout: DefaultReadHeaderTimeout,
		shutdownTimeout:   DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.writeTimeout <= 0 {
		return nil, fmt.Errorf("dispatch: write timeout must be positive, got %v", s.writeTimeout)
	}
	if s.idleTimeout < 0 {
		return nil, fmt.Errorf("dispatch: idle timeout must not be negative, got %v", s.idleTimeout)
	}
	if s.readHeaderTimeout <= 0 {
		return nil, fmt.Errorf("dispatch: read header timeout must be positive, got %v", s.readHeaderTimeout)
	}

	return s, nil
}

// ServeHTTP implements http.Handler. Websocket upgrade requests whose
// route is a socket route bypass the HTTP render path; everything
// else flows through Dispatch.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromHTTP(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if websocket.IsWebSocketUpgrade(r) && s.serveSocket(w, r, req) {
		return
	}

	writeResponse(w, s.dispatcher.Dispatch(r.Context(), req))
}

// serveSocket handles the upgrade path for websocket and live routes.
// It reports false when the request does not map to a socket route,
// leaving the normal dispatch path to answer.
func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request, req router.Request) bool {
	d := s.dispatcher

	match, err := d.router.Resolve(req.Method, req.Path)
	if err != nil || match.Route.Kind == router.KindHTTP {
		return false
	}

	req = req.WithParams(match.Params)
	req = req.WithValue(schedulerKey, d.scheduler)

	// Socket traffic flows through the same observability bracket as
	// plain HTTP dispatches.
	ctx, obsState, start := d.observeStart(r.Context(), req)
	pattern := match.Route.Pattern.String()

	// The middleware chain runs before the upgrade so auth and friends
	// can still reject with a plain HTTP response.
	for _, desc := range d.chains[match.Route.ID] {
		result, err := desc.Handler(req)
		if err != nil {
			resp := d.serverError(ctx, req, fmt.Errorf("middleware %s: %w", desc.Name, err), nil)
			writeResponse(w, resp)
			d.observeEnd(ctx, obsState, req, pattern, resp.Status, start)
			return true
		}
		if resp, halted := result.ShortCircuited(); halted {
			writeResponse(w, resp)
			d.observeEnd(ctx, obsState, req, pattern, resp.Status, start)
			return true
		}
		req = result.Request()
	}

	handler, ok := d.sockets[match.Route.Binding.String()]
	if !ok {
		// New validates socket bindings, so this is unreachable short
		// of a dynamic binding, which socket routes do not support.
		resp := d.serverError(ctx, req, router.ErrHandlerNotFound, nil)
		writeResponse(w, resp)
		d.observeEnd(ctx, obsState, req, pattern, resp.Status, start)
		return true
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the failure response.
		s.logger.LogAttrs(ctx, slog.LevelWarn, "websocket upgrade failed",
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
		d.observeEnd(ctx, obsState, req, pattern, http.StatusBadRequest, start)
		return true
	}

	conn := &Conn{ws: ws}
	defer conn.Close()

	if err := handler(ctx, conn, req); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "socket handler failed",
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
	}

	d.observeEnd(ctx, obsState, req, pattern, http.StatusSwitchingProtocols, start)

	return true
}

// Serve listens on the configured address until ctx is cancelled,
// then shuts down gracefully within the shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	return s.serve(ctx, "", "")
}

// ServeTLS is Serve over TLS with the given certificate pair.
func (s *Server) ServeTLS(ctx context.Context, certFile, keyFile string) error {
	if certFile == "" || keyFile == "" {
		return errors.New("dispatch: ServeTLS requires a certificate and key file")
	}
	return s.serve(ctx, certFile, keyFile)
}

func (s *Server) serve(ctx context.Context, certFile, keyFile string) error {
	var handler http.Handler = s
	if s.enableH2C {
		handler = h2c.NewHandler(s, &http2.Server{})
	}

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           handler,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       s.idleTimeout,
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "server listening",
			slog.String("addr", s.addr),
			slog.Bool("h2c", s.enableH2C),
			slog.Bool("tls", certFile != ""),
		)
		if certFile != "" {
			errCh <- srv.ListenAndServeTLS(certFile, keyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.dispatcher.Shutdown(shutdownCtx)
}

// requestFromHTTP converts an incoming net/http request. Only the
// first value of repeated headers and query parameters is kept; the
// routing layer works with single-valued maps.
func requestFromHTTP(r *http.Request) (router.Request, error) {
	req := router.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  make(map[string]string),
	}

	for name, values := range r.Header {
		if len(values) > 0 {
			req.Headers.Set(name, values[0])
		}
	}
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			req.Query[name] = values[0]
		}
	}

	if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return router.Request{}, err
		}
		req.Body = body
	}

	return req, nil
}

// writeResponse renders a router.Response onto the wire.
func writeResponse(w http.ResponseWriter, resp router.Response) {
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}
