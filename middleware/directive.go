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

package middleware

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// ErrDirectiveInvalid indicates a malformed or contradictory directive
// header in a middleware source file.
var ErrDirectiveInvalid = errors.New("invalid middleware directive")

// defaultOrder is the order assigned when no "order:" directive is
// present. Chosen mid-range so declared orders can slot middleware
// before or after the undeclared bulk.
const defaultOrder = 100

// Directives are the declaration attributes parsed from the leading
// comment block of a middleware source file:
//
//	# order: 10
//	# scope_only: true
//
// Parsing stops at the first line that is neither blank nor a comment.
type Directives struct {
	Order int
	Scope Scope
}

// ParseDirectives scans the leading comment lines of src for
// middleware directives. Lines may use '#' or '//' comment markers.
// Unrecognized comment lines are skipped; recognized keys with
// unparsable values, and declaring both global_only and scope_only,
// fail with ErrDirectiveInvalid.
func ParseDirectives(src []byte) (Directives, error) {
	d := Directives{Order: defaultOrder, Scope: ScopeBoth}
	globalOnly := false
	scopeOnly := false

	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var comment string
		switch {
		case strings.HasPrefix(line, "#"):
			comment = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		case strings.HasPrefix(line, "//"):
			comment = strings.TrimSpace(strings.TrimPrefix(line, "//"))
		default:
			// First non-comment line ends the directive header.
			return finishDirectives(d, globalOnly, scopeOnly)
		}

		key, value, ok := strings.Cut(comment, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "order":
			n, err := cast.ToIntE(value)
			if err != nil {
				return Directives{}, fmt.Errorf("%w: order %q is not an integer", ErrDirectiveInvalid, value)
			}
			d.Order = n
		case "global_only":
			b, err := cast.ToBoolE(value)
			if err != nil {
				return Directives{}, fmt.Errorf("%w: global_only %q is not a boolean", ErrDirectiveInvalid, value)
			}
			globalOnly = b
		case "scope_only":
			b, err := cast.ToBoolE(value)
			if err != nil {
				return Directives{}, fmt.Errorf("%w: scope_only %q is not a boolean", ErrDirectiveInvalid, value)
			}
			scopeOnly = b
		}
	}
	if err := scanner.Err(); err != nil {
		return Directives{}, fmt.Errorf("%w: %v", ErrDirectiveInvalid, err)
	}

	return finishDirectives(d, globalOnly, scopeOnly)
}

// finishDirectives maps the two exclusive boolean directives onto the
// Scope enum.
func finishDirectives(d Directives, globalOnly, scopeOnly bool) (Directives, error) {
	switch {
	case globalOnly && scopeOnly:
		return Directives{}, fmt.Errorf("%w: global_only and scope_only are mutually exclusive", ErrDirectiveInvalid)
	case globalOnly:
		d.Scope = ScopeGlobal
	case scopeOnly:
		d.Scope = ScopeOnly
	default:
		d.Scope = ScopeBoth
	}

	return d, nil
}
