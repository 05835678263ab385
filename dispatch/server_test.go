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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soli.dev/runtime/middleware"
	"soli.dev/runtime/router"
	"soli.dev/runtime/routes"
)

// echoApp wires the canonical end-to-end fixture: a logging
// middleware plus POST /echo returning the request body.
func echoApp(t *testing.T) *Server {
	t.Helper()

	mw := middleware.NewRegistry()
	require.NoError(t, mw.Register(middleware.Descriptor{
		Name:  "request-id",
		Order: 10,
		Scope: middleware.ScopeGlobal,
		Handler: func(req router.Request) (middleware.Result, error) {
			return middleware.Continue(req.WithValue("request-id", "req-1")), nil
		},
	}))

	handlers := router.NewHandlerRegistry()
	handlers.MustRegister("echo", "create", func(req router.Request) (router.Response, error) {
		resp := router.NewResponse(http.StatusOK, req.Body)
		if v, ok := req.Value("request-id"); ok {
			resp.Headers["X-Request-Id"] = v.(string)
		}
		if ct, ok := req.Headers.Get("content-type"); ok {
			resp.Headers["Content-Type"] = ct
		}
		return resp, nil
	})

	handlers.MustRegister("echo", "show", func(req router.Request) (router.Response, error) {
		return router.NewResponse(http.StatusOK, []byte(req.Query["foo"])), nil
	})

	table, err := routes.Define(func(r *routes.Builder) {
		r.Post("/echo", "echo#create")
		r.Get("/echo", "echo#show")
	})
	require.NoError(t, err)

	d, err := New(table, mw, handlers)
	require.NoError(t, err)

	srv, err := NewServer(d)
	require.NoError(t, err)
	return srv
}

func TestServerEcho(t *testing.T) {
	ts := httptest.NewServer(echoApp(t))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/echo", "text/plain", strings.NewReader("hello soli"))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello soli", string(body))
	assert.Equal(t, "req-1", resp.Header.Get("X-Request-Id"))
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
}

func TestServerNotFound(t *testing.T) {
	ts := httptest.NewServer(echoApp(t))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServerEchoQuery(t *testing.T) {
	ts := httptest.NewServer(echoApp(t))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/echo?foo=bar")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bar", string(body))
}

func TestServerMethodNotAllowed(t *testing.T) {
	ts := httptest.NewServer(echoApp(t))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/echo", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "POST, GET", resp.Header.Get("Allow"))
}

func socketApp(t *testing.T, gate middleware.Handler, opts ...Option) *Server {
	t.Helper()

	mw := middleware.NewRegistry()
	if gate != nil {
		require.NoError(t, mw.Register(middleware.Descriptor{
			Name:    "gate",
			Order:   1,
			Scope:   middleware.ScopeOnly,
			Handler: gate,
		}))
	}

	table, err := routes.Define(func(r *routes.Builder) {
		if gate != nil {
			r.Middleware("gate", func(r *routes.Builder) {
				r.WebSocket("/chat/:room", "chat#connect")
			})
		} else {
			r.WebSocket("/chat/:room", "chat#connect")
		}
	})
	require.NoError(t, err)

	echoSocket := func(ctx context.Context, conn *Conn, req router.Request) error {
		for {
			ev, err := conn.ReadEvent()
			if err != nil {
				return nil
			}
			if err := conn.Send(ev.Name+":"+req.Params["room"], ev.Payload); err != nil {
				return err
			}
		}
	}

	opts = append(opts, WithSocketHandler("chat#connect", echoSocket))
	d, err := New(table, mw, router.NewHandlerRegistry(), opts...)
	require.NoError(t, err)

	srv, err := NewServer(d)
	require.NoError(t, err)
	return srv
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func TestWebSocketEcho(t *testing.T) {
	ts := httptest.NewServer(socketApp(t, nil))
	defer ts.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/chat/lobby"), nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	require.NoError(t, conn.WriteJSON(Event{Name: "ping", Payload: "hi"}))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "ping:lobby", ev.Name)
	assert.Equal(t, "hi", ev.Payload)
}

func TestWebSocketMiddlewareCanReject(t *testing.T) {
	gate := func(req router.Request) (middleware.Result, error) {
		if _, ok := req.Headers.Get("authorization"); !ok {
			return middleware.ShortCircuit(router.NewResponse(http.StatusUnauthorized, nil)), nil
		}
		return middleware.Continue(req), nil
	}

	ts := httptest.NewServer(socketApp(t, gate))
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/chat/lobby"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{"Authorization": []string{"Bearer token"}}
	conn, resp2, err := websocket.DefaultDialer.Dial(wsURL(ts, "/chat/lobby"), header)
	require.NoError(t, err)
	defer conn.Close()
	defer resp2.Body.Close()
}

// signalRecorder is a concurrency-safe Recorder that signals each
// completed bracket on a channel.
type signalRecorder struct {
	mu      sync.Mutex
	pattern string
	status  int
	ended   chan struct{}
}

func newSignalRecorder() *signalRecorder {
	return &signalRecorder{ended: make(chan struct{}, 8)}
}

func (r *signalRecorder) OnRequestStart(ctx context.Context, _ router.Request) (context.Context, any) {
	return ctx, nil
}

func (r *signalRecorder) OnRequestEnd(_ context.Context, _ any, pattern string, status int) {
	r.mu.Lock()
	r.pattern = pattern
	r.status = status
	r.mu.Unlock()
	r.ended <- struct{}{}
}

func (r *signalRecorder) last(t *testing.T) (string, int) {
	t.Helper()
	select {
	case <-r.ended:
	case <-time.After(5 * time.Second):
		t.Fatal("recorder never saw the request end")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pattern, r.status
}

func TestWebSocketTrafficReachesRecorder(t *testing.T) {
	rec := newSignalRecorder()
	ts := httptest.NewServer(socketApp(t, nil, WithRecorder(rec)))
	defer ts.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/chat/lobby"), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	conn.Close()

	pattern, status := rec.last(t)
	assert.Equal(t, "/chat/:room", pattern)
	assert.Equal(t, http.StatusSwitchingProtocols, status)
}

func TestRejectedWebSocketReachesRecorder(t *testing.T) {
	gate := func(req router.Request) (middleware.Result, error) {
		return middleware.ShortCircuit(router.NewResponse(http.StatusUnauthorized, nil)), nil
	}

	rec := newSignalRecorder()
	ts := httptest.NewServer(socketApp(t, gate, WithRecorder(rec)))
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/chat/lobby"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()

	pattern, status := rec.last(t)
	assert.Equal(t, "/chat/:room", pattern)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestWebSocketRouteOverPlainHTTP(t *testing.T) {
	ts := httptest.NewServer(socketApp(t, nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/chat/lobby")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestNewServerValidation(t *testing.T) {
	d, err := New(mustTable(t), nil, router.NewHandlerRegistry())
	require.NoError(t, err)

	_, err = NewServer(nil)
	assert.Error(t, err)

	_, err = NewServer(d, WithWriteTimeout(0))
	assert.Error(t, err)

	_, err = NewServer(d, WithIdleTimeout(-time.Second))
	assert.Error(t, err)

	_, err = NewServer(d, WithReadHeaderTimeout(0))
	assert.Error(t, err)
}

func mustTable(t *testing.T) *routes.Table {
	t.Helper()
	table, err := routes.Define(func(r *routes.Builder) {})
	require.NoError(t, err)
	return table
}

func TestServeGracefulShutdown(t *testing.T) {
	srv, err := NewServer(
		mustDispatcher(t),
		WithAddr("127.0.0.1:0"),
		WithShutdownTimeout(time.Second),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func mustDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d, err := New(mustTable(t), nil, router.NewHandlerRegistry())
	require.NoError(t, err)
	return d
}
