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
	"io"
	"log/slog"

	"soli.dev/runtime/future"
	"soli.dev/runtime/router"
)

// noopLogger is the shared silent logger used when none is configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Option configures a Dispatcher at construction.
type Option func(*Dispatcher)

// WithMode selects error detail exposure. The default is
// ModeDevelopment; deployments should set ModeProduction.
func WithMode(mode Mode) Option {
	return func(d *Dispatcher) {
		d.mode = mode
	}
}

// WithLogger sets the structured logger for request failures and,
// when enabled, access logs. Without it the dispatcher is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithAccessLog enables one log record per dispatched request.
func WithAccessLog() Option {
	return func(d *Dispatcher) {
		d.accessLog = true
	}
}

// WithRecorder attaches an observability recorder to the request
// lifecycle.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithNotFound replaces the default 404 handler.
func WithNotFound(h router.HandlerFunc) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.notFound = h
		}
	}
}

// WithScheduler supplies the future scheduler attached to requests.
// The dispatcher does not shut down a caller-supplied scheduler.
// Without this option the dispatcher creates and owns one.
func WithScheduler(s *future.Scheduler) Option {
	return func(d *Dispatcher) {
		d.scheduler = s
	}
}

// WithSocketHandler registers the connection handler for a websocket
// or live route binding, e.g. "chat#connect". Every non-HTTP route in
// the table must have one or New fails.
func WithSocketHandler(binding string, h SocketHandler) Option {
	return func(d *Dispatcher) {
		d.sockets[binding] = h
	}
}
