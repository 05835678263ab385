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

// Package router implements route resolution for the Soli runtime:
// an insertion-ordered table of path patterns mapped to controller
// action bindings.
//
// Pattern segments come in four variants:
//
//	/users/list       literal segments, matched exactly (case-sensitive)
//	/users/:id        :name captures exactly one segment
//	/files/*filepath  *name captures the remainder, leading slash kept
//	/wildcard/*       bare * captures the remainder and resolves the
//	                  action dynamically by that name
//
// The first registered route that fully matches wins; there is no
// scoring. Handlers live in an explicit HandlerRegistry populated at
// load time, which is also what bare-wildcard routes resolve their
// action names against per request.
package router
