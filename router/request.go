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
	"maps"
	"strings"
)

// Headers is an ordered header map with case-insensitive lookup.
// Insertion order and the original casing of the first Set are
// preserved for iteration; Get matches regardless of case.
//
// The zero value is ready to use.
type Headers struct {
	keys   []string          // insertion order, original casing
	values map[string]string // lower-cased name → value
}

// Set stores a header value. Setting an existing name (in any casing)
// replaces the value but keeps the original position and casing.
func (h *Headers) Set(name, value string) {
	lower := strings.ToLower(name)
	if h.values == nil {
		h.values = make(map[string]string, 8)
	}
	if _, exists := h.values[lower]; !exists {
		h.keys = append(h.keys, name)
	}
	h.values[lower] = value
}

// Get returns the value for name using case-insensitive lookup.
func (h *Headers) Get(name string) (string, bool) {
	v, ok := h.values[strings.ToLower(name)]
	return v, ok
}

// Len returns the number of distinct header names.
func (h *Headers) Len() int {
	return len(h.keys)
}

// Each calls fn for every header in insertion order with the original
// casing of the name.
func (h *Headers) Each(fn func(name, value string)) {
	for _, k := range h.keys {
		fn(k, h.values[strings.ToLower(k)])
	}
}

// Clone returns an independent copy.
func (h *Headers) Clone() Headers {
	c := Headers{}
	if h.keys != nil {
		c.keys = make([]string, len(h.keys))
		copy(c.keys, h.keys)
	}
	if h.values != nil {
		c.values = maps.Clone(h.values)
	}

	return c
}

// Request is the runtime's request value. A Request is owned by a
// single dispatch call for its duration; middleware treat it with
// value semantics, returning a new logical request from each step
// rather than mutating shared state.
//
// The context attached via WithValue is strictly additive: middleware
// may attach information (auth identity, request id) under their own
// keys but entries are never removed.
type Request struct {
	Method  string
	Path    string
	Headers Headers
	Query   map[string]string
	Params  map[string]string
	Body    []byte

	values map[string]any // additive middleware context
}

// WithHeader returns a copy of the request with one header set.
// The original request is not modified.
func (r Request) WithHeader(name, value string) Request {
	r.Headers = r.Headers.Clone()
	r.Headers.Set(name, value)

	return r
}

// WithParams returns a copy of the request with the given path
// parameters. Used by the dispatcher after route resolution.
func (r Request) WithParams(params map[string]string) Request {
	r.Params = params
	return r
}

// WithValue returns a copy of the request carrying key→v in its
// context. Existing entries are preserved; the context only grows.
func (r Request) WithValue(key string, v any) Request {
	values := make(map[string]any, len(r.values)+1)
	maps.Copy(values, r.values)
	values[key] = v
	r.values = values

	return r
}

// Value returns the context entry for key, if any.
func (r Request) Value(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Response is the value produced by a handler or by short-circuiting
// middleware.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// NewResponse builds a response with an initialized header map.
func NewResponse(status int, body []byte) Response {
	return Response{
		Status:  status,
		Headers: make(map[string]string, 4),
		Body:    body,
	}
}

// WithHeader sets a header on the response and returns it for
// chaining.
func (resp Response) WithHeader(name, value string) Response {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string, 4)
	}
	resp.Headers[name] = value

	return resp
}

// HandlerFunc is the signature of a route handler. A returned error is
// converted to an opaque 500-class response at the dispatch boundary;
// it never crashes the server process.
type HandlerFunc func(Request) (Response, error)
