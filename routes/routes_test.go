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

package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soli.dev/runtime/router"
)

func TestDefineVerbs(t *testing.T) {
	table, err := Define(func(r *Builder) {
		r.Get("/", "pages#home")
		r.Post("/posts", "posts#create")
		r.Put("/posts/:id", "posts#update")
		r.Patch("/posts/:id", "posts#update")
		r.Delete("/posts/:id", "posts#destroy")
	})
	require.NoError(t, err)
	require.Equal(t, 5, table.Len())

	entries := table.Entries()
	assert.Equal(t, Entry{Method: http.MethodGet, Path: "/", Binding: "pages#home", Kind: router.KindHTTP}, entries[0])
	assert.Equal(t, http.MethodPatch, entries[3].Method)
	assert.Equal(t, "/posts/:id", entries[3].Path)
}

func TestDefineResources(t *testing.T) {
	table, err := Define(func(r *Builder) {
		r.Resources("posts")
	})
	require.NoError(t, err)

	type decl struct {
		method, path, binding string
	}
	var got []decl
	for _, e := range table.Entries() {
		got = append(got, decl{e.Method, e.Path, e.Binding})
	}

	assert.Equal(t, []decl{
		{http.MethodGet, "/posts", "posts#index"},
		{http.MethodGet, "/posts/:id", "posts#show"},
		{http.MethodPost, "/posts", "posts#create"},
		{http.MethodPut, "/posts/:id", "posts#update"},
		{http.MethodPatch, "/posts/:id", "posts#update"},
		{http.MethodDelete, "/posts/:id", "posts#destroy"},
	}, got)
}

func TestResourcesOnly(t *testing.T) {
	table, err := Define(func(r *Builder) {
		r.Resources("posts", Only("index", "show"))
	})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "posts#index", table.Entries()[0].Binding)
	assert.Equal(t, "posts#show", table.Entries()[1].Binding)
}

func TestResourcesExcept(t *testing.T) {
	table, err := Define(func(r *Builder) {
		r.Resources("posts", Except("destroy", "update"))
	})
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	for _, e := range table.Entries() {
		assert.NotEqual(t, "posts#destroy", e.Binding)
		assert.NotEqual(t, "posts#update", e.Binding)
	}
}

func TestResourcesUnknownAction(t *testing.T) {
	_, err := Define(func(r *Builder) {
		r.Resources("posts", Only("index", "edit"))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouteInvalid)
	assert.Contains(t, err.Error(), "edit")
}

func TestNamespace(t *testing.T) {
	table, err := Define(func(r *Builder) {
		r.Namespace("api", func(r *Builder) {
			r.Get("/status", "status#show")
			r.Namespace("v1", func(r *Builder) {
				r.Resources("posts", Only("index"))
			})
		})
	})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "/api/status", table.Entries()[0].Path)
	assert.Equal(t, "/api/v1/posts", table.Entries()[1].Path)
}

func TestMiddlewareScopes(t *testing.T) {
	table, err := Define(func(r *Builder) {
		r.Get("/", "pages#home")
		r.Middleware("auth", func(r *Builder) {
			r.Get("/dashboard", "dashboard#show")
			r.Middleware("admin", func(r *Builder) {
				r.Get("/admin", "admin#index")
			})
		})
		r.Get("/about", "pages#about")
	})
	require.NoError(t, err)

	entries := table.Entries()
	assert.Empty(t, entries[0].Scopes)
	assert.Equal(t, []string{"auth"}, entries[1].Scopes)
	assert.Equal(t, []string{"auth", "admin"}, entries[2].Scopes)
	assert.Empty(t, entries[3].Scopes)
}

func TestScopesDoNotLeakAcrossSiblings(t *testing.T) {
	table, err := Define(func(r *Builder) {
		r.Middleware("auth", func(r *Builder) {
			r.Get("/a", "a#show")
		})
		r.Middleware("audit", func(r *Builder) {
			r.Get("/b", "b#show")
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"auth"}, table.Entries()[0].Scopes)
	assert.Equal(t, []string{"audit"}, table.Entries()[1].Scopes)
}

func TestWebSocketAndLive(t *testing.T) {
	table, err := Define(func(r *Builder) {
		r.WebSocket("/chat", "chat#connect")
		r.Live("counter", "counter#mount")
	})
	require.NoError(t, err)

	ws := table.Entries()[0]
	assert.Equal(t, http.MethodGet, ws.Method)
	assert.Equal(t, router.KindWebSocket, ws.Kind)

	live := table.Entries()[1]
	assert.Equal(t, "/counter", live.Path)
	assert.Equal(t, router.KindLive, live.Kind)
}

func TestDefineCollectsAllErrors(t *testing.T) {
	_, err := Define(func(r *Builder) {
		r.Get("no-slash", "pages#home")
		r.Get("/ok", "missing-separator")
		r.Namespace("", func(r *Builder) {})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouteInvalid)
	assert.ErrorIs(t, err, router.ErrBindingInvalid)
}

func TestTrailingSlashNormalized(t *testing.T) {
	table, err := Define(func(r *Builder) {
		r.Namespace("admin", func(r *Builder) {
			r.Get("/", "admin#index")
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "/admin", table.Entries()[0].Path)
}
