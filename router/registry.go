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
	"fmt"
	"strings"
)

// Binding identifies the handler for a route as "controller#action".
// A bare "*" action marks dynamic resolution: the action name is
// computed at request time from the wildcard capture.
type Binding struct {
	Controller string
	Action     string
}

// ParseBinding parses a "controller#action" string.
func ParseBinding(s string) (Binding, error) {
	controller, action, ok := strings.Cut(s, "#")
	if !ok || controller == "" || action == "" {
		return Binding{}, fmt.Errorf("%w: %q (want \"controller#action\")", ErrBindingInvalid, s)
	}

	return Binding{Controller: controller, Action: action}, nil
}

// Dynamic reports whether the action is resolved per request from a
// wildcard capture.
func (b Binding) Dynamic() bool {
	return b.Action == "*"
}

// String returns the "controller#action" form.
func (b Binding) String() string {
	return b.Controller + "#" + b.Action
}

// HandlerRegistry maps (controller, action) pairs to handler
// functions. It replaces reflection-style dynamic dispatch: the table
// is populated explicitly at load time by each controller declaring
// its actions, and wildcard routes resolve against it by name at
// request time.
//
// The registry is write-once-at-boot: populate it before routing
// starts, then treat it as read-only. Lookups are not synchronized.
type HandlerRegistry struct {
	handlers map[string]HandlerFunc
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]HandlerFunc, 16)}
}

// Register binds a controller action to a handler. Registering the
// same action twice fails with ErrDuplicateHandler.
func (hr *HandlerRegistry) Register(controller, action string, fn HandlerFunc) error {
	if controller == "" || action == "" {
		return fmt.Errorf("%w: controller and action must be non-empty", ErrBindingInvalid)
	}
	if fn == nil {
		return fmt.Errorf("%w: %s#%s has a nil handler", ErrBindingInvalid, controller, action)
	}

	key := controller + "#" + action
	if _, exists := hr.handlers[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, key)
	}
	hr.handlers[key] = fn

	return nil
}

// MustRegister is Register that panics on error, for load-time tables
// built from literals.
func (hr *HandlerRegistry) MustRegister(controller, action string, fn HandlerFunc) {
	if err := hr.Register(controller, action, fn); err != nil {
		panic(fmt.Sprintf("router.MustRegister: %v", err))
	}
}

// Lookup returns the handler for a controller action.
func (hr *HandlerRegistry) Lookup(controller, action string) (HandlerFunc, bool) {
	fn, ok := hr.handlers[controller+"#"+action]
	return fn, ok
}

// Len returns the number of registered actions.
func (hr *HandlerRegistry) Len() int {
	return len(hr.handlers)
}
