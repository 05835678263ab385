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

// Package dispatch composes the routing table, the middleware chains,
// and the handler registry into the request lifecycle of a running
// Soli application.
//
// A Dispatcher is built once at boot from a routes table. All
// load-time failures (pattern conflicts, unknown handler bindings,
// middleware scope violations) fail construction; a Dispatcher that
// exists can serve.
//
//	table, _ := routes.Define(func(r *routes.Builder) {
//	    r.Get("/posts/:id", "posts#show")
//	})
//
//	d, err := dispatch.New(table, middlewares, handlers,
//	    dispatch.WithMode(dispatch.ModeProduction),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv, _ := dispatch.NewServer(d, dispatch.WithAddr(":8080"))
//	srv.Serve(ctx)
//
// Handler errors and panics never escape Dispatch. They are rendered
// as 500-class responses carrying an opaque correlation id; the full
// detail is logged server side and, in development mode, echoed in
// the response body.
package dispatch
