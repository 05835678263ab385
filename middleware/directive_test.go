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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirectives(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		order int
		scope Scope
	}{
		{
			name:  "order and scope_only",
			src:   "# order: 10\n# scope_only: true\n\nfn handle(req) { }\n",
			order: 10,
			scope: ScopeOnly,
		},
		{
			name:  "global_only with slash comments",
			src:   "// order: 5\n// global_only: true\nfn handle(req) { }\n",
			order: 5,
			scope: ScopeGlobal,
		},
		{
			name:  "no directives defaults",
			src:   "fn handle(req) { }\n",
			order: defaultOrder,
			scope: ScopeBoth,
		},
		{
			name:  "negative order",
			src:   "# order: -3\n",
			order: -3,
			scope: ScopeBoth,
		},
		{
			name:  "directives after code are ignored",
			src:   "fn handle(req) { }\n# order: 99\n",
			order: defaultOrder,
			scope: ScopeBoth,
		},
		{
			name:  "unrecognized comment lines are skipped",
			src:   "# authentication middleware\n# order: 7\n# see docs\nfn handle(req) { }\n",
			order: 7,
			scope: ScopeBoth,
		},
		{
			name:  "false booleans keep defaults",
			src:   "# global_only: false\n# scope_only: false\n",
			order: defaultOrder,
			scope: ScopeBoth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDirectives([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.order, d.Order)
			assert.Equal(t, tt.scope, d.Scope)
		})
	}
}

func TestParseDirectivesInvalid(t *testing.T) {
	t.Run("non-integer order", func(t *testing.T) {
		_, err := ParseDirectives([]byte("# order: soon\n"))
		assert.ErrorIs(t, err, ErrDirectiveInvalid)
	})

	t.Run("non-boolean scope flag", func(t *testing.T) {
		_, err := ParseDirectives([]byte("# scope_only: maybe\n"))
		assert.ErrorIs(t, err, ErrDirectiveInvalid)
	})

	t.Run("contradictory scopes", func(t *testing.T) {
		_, err := ParseDirectives([]byte("# global_only: true\n# scope_only: true\n"))
		assert.ErrorIs(t, err, ErrDirectiveInvalid)
	})
}
