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

import "errors"

var (
	// ErrRouteNotFound indicates that no registered route matches the
	// requested method and path, or that a wildcard route matched but no
	// same-named action exists on the target controller.
	ErrRouteNotFound = errors.New("route not found")

	// ErrPatternInvalid indicates that a pattern string failed to parse:
	// missing leading slash, unnamed parameter, or a non-terminal or
	// duplicated splat/wildcard segment.
	ErrPatternInvalid = errors.New("invalid route pattern")

	// ErrPatternConflict indicates that a registration would make
	// resolution ambiguous: a duplicate static path, or two catch-all
	// patterns with the same literal prefix, for one method.
	ErrPatternConflict = errors.New("route pattern conflict")

	// ErrHandlerNotFound indicates that a route's binding names a
	// controller action that is not present in the handler registry.
	// Raised at registration time for fixed actions.
	ErrHandlerNotFound = errors.New("handler not found")

	// ErrBindingInvalid indicates a malformed "controller#action"
	// binding string.
	ErrBindingInvalid = errors.New("invalid handler binding")

	// ErrDuplicateHandler indicates that a controller action was
	// registered twice in the handler registry.
	ErrDuplicateHandler = errors.New("duplicate handler registration")
)
