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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		pattern  string
		segments int
		catchAll bool
		static   bool
	}{
		{"/", 0, false, true},
		{"/users", 1, false, true},
		{"/api/v1/users", 3, false, true},
		{"/users/:id", 2, false, false},
		{"/users/:id/posts/:post_id", 4, false, false},
		{"/files/*filepath", 2, true, false},
		{"/wildcard/*", 2, true, false},
		{"/*", 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			require.NoError(t, err)
			assert.Len(t, p.Segments(), tt.segments)
			assert.Equal(t, tt.catchAll, p.CatchAll())
			assert.Equal(t, tt.static, p.Static())
			assert.Equal(t, tt.pattern, p.String())
		})
	}
}

func TestParsePatternInvalid(t *testing.T) {
	invalid := []string{
		"",
		"users",              // missing leading slash
		"/users/:",           // unnamed parameter
		"/files/*fp/extra",   // non-terminal splat
		"/a/*/b",             // non-terminal wildcard
		"/a/*x/*y",           // two catch-alls
		"/users/v:id",        // mixed literal and marker
	}

	for _, pattern := range invalid {
		t.Run(pattern, func(t *testing.T) {
			_, err := ParsePattern(pattern)
			assert.ErrorIs(t, err, ErrPatternInvalid)
		})
	}
}

func TestMustParsePatternPanics(t *testing.T) {
	assert.Panics(t, func() { MustParsePattern("/x/*a/b") })
	assert.NotPanics(t, func() { MustParsePattern("/x/:id") })
}

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		matched bool
		params  map[string]string
	}{
		{"/", "/", true, map[string]string{}},
		{"/users", "/users", true, map[string]string{}},
		{"/users", "/Users", false, nil}, // case-sensitive
		{"/users", "/users/42", false, nil},
		{"/users/:id", "/users/42", true, map[string]string{"id": "42"}},
		{"/users/:id", "/users", false, nil},
		{"/users/:id", "/users/42/posts", false, nil},
		{"/files/*filepath", "/files/a/b/c", true, map[string]string{"filepath": "/a/b/c"}},
		{"/files/*filepath", "/files", false, nil}, // splat needs one-or-more components
		{"/a/:x/b/:y", "/a/1/b/2", true, map[string]string{"x": "1", "y": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" vs "+tt.path, func(t *testing.T) {
			p := MustParsePattern(tt.pattern)
			params := map[string]string{}
			_, ok := p.match(splitPath(tt.path), params)
			assert.Equal(t, tt.matched, ok)
			if tt.matched {
				assert.Equal(t, tt.params, params)
			}
		})
	}
}

func TestPatternWildcardRemainder(t *testing.T) {
	p := MustParsePattern("/wildcard/*")

	params := map[string]string{}
	remainder, ok := p.match(splitPath("/wildcard/hello"), params)
	require.True(t, ok)
	assert.Equal(t, "/hello", remainder)

	remainder, ok = p.match(splitPath("/wildcard/a/b"), params)
	require.True(t, ok)
	assert.Equal(t, "/a/b", remainder)
}

func TestLiteralPrefix(t *testing.T) {
	assert.Equal(t, "/files", MustParsePattern("/files/*filepath").literalPrefix())
	assert.Equal(t, "/a/b", MustParsePattern("/a/b/*").literalPrefix())
	assert.Equal(t, "", MustParsePattern("/*").literalPrefix())
	assert.Equal(t, "/users/:id", MustParsePattern("/users/:id/*rest").literalPrefix())
}
