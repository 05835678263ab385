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

// SegmentKind discriminates the four path segment variants.
type SegmentKind int

const (
	// SegmentLiteral matches its text exactly (case-sensitive).
	SegmentLiteral SegmentKind = iota

	// SegmentParam (":name") captures exactly one path segment.
	SegmentParam

	// SegmentSplat ("*name") captures all remaining segments including
	// slashes. The captured value keeps its leading slash.
	SegmentSplat

	// SegmentWildcard (bare "*") captures the remainder like a splat and
	// additionally resolves the handler dynamically: the captured name is
	// looked up as an action on the route's controller.
	SegmentWildcard
)

// Segment is one element of a parsed path pattern.
// Value holds the literal text for SegmentLiteral and the capture name
// for SegmentParam/SegmentSplat; it is empty for SegmentWildcard.
type Segment struct {
	Kind  SegmentKind
	Value string
}

// Pattern is a parsed, validated path pattern.
//
// Invariants enforced by ParsePattern:
//   - at most one splat or wildcard segment
//   - a splat/wildcard segment must be terminal
//
// Pattern values are immutable after parsing and safe for concurrent
// matching.
type Pattern struct {
	raw      string
	segments []Segment
	catchAll bool // terminal splat or wildcard present
}

// ParsePattern parses a pattern string such as "/users/:id",
// "/files/*filepath", or "/wildcard/*" into a Pattern.
//
// The root pattern "/" parses to zero segments. Empty segments from
// doubled or trailing slashes are dropped, matching how paths are
// normalized during resolution.
func ParsePattern(raw string) (Pattern, error) {
	if raw == "" || raw[0] != '/' {
		return Pattern{}, fmt.Errorf("%w: %q must start with '/'", ErrPatternInvalid, raw)
	}

	p := Pattern{raw: raw}
	if raw == "/" {
		return p, nil
	}

	parts := strings.Split(strings.Trim(raw, "/"), "/")
	for i, part := range parts {
		if part == "" {
			continue
		}

		isLast := i == len(parts)-1

		var seg Segment
		switch {
		case part == "*":
			seg = Segment{Kind: SegmentWildcard}
		case strings.HasPrefix(part, "*"):
			seg = Segment{Kind: SegmentSplat, Value: part[1:]}
		case strings.HasPrefix(part, ":"):
			name := part[1:]
			if name == "" {
				return Pattern{}, fmt.Errorf("%w: %q has an unnamed parameter segment", ErrPatternInvalid, raw)
			}
			seg = Segment{Kind: SegmentParam, Value: name}
		default:
			if strings.ContainsAny(part, ":*") {
				return Pattern{}, fmt.Errorf("%w: %q mixes literal text with ':' or '*'", ErrPatternInvalid, raw)
			}
			seg = Segment{Kind: SegmentLiteral, Value: part}
		}

		if seg.Kind == SegmentSplat || seg.Kind == SegmentWildcard {
			if !isLast {
				return Pattern{}, fmt.Errorf("%w: %q splat/wildcard segment must be terminal", ErrPatternInvalid, raw)
			}
			if p.catchAll {
				return Pattern{}, fmt.Errorf("%w: %q has more than one splat/wildcard segment", ErrPatternInvalid, raw)
			}
			p.catchAll = true
		}

		p.segments = append(p.segments, seg)
	}

	return p, nil
}

// MustParsePattern is ParsePattern for compile-time-known patterns;
// it panics on invalid input.
func MustParsePattern(raw string) Pattern {
	p, err := ParsePattern(raw)
	if err != nil {
		panic(fmt.Sprintf("router.MustParsePattern: %v", err))
	}

	return p
}

// String returns the original pattern text.
func (p Pattern) String() string {
	return p.raw
}

// Segments returns the parsed segments. Callers must not modify the
// returned slice.
func (p Pattern) Segments() []Segment {
	return p.segments
}

// CatchAll reports whether the pattern ends in a splat or wildcard.
func (p Pattern) CatchAll() bool {
	return p.catchAll
}

// Static reports whether the pattern consists solely of literal
// segments. Static patterns are eligible for the full-path fast map.
func (p Pattern) Static() bool {
	for _, seg := range p.segments {
		if seg.Kind != SegmentLiteral {
			return false
		}
	}

	return true
}

// literalPrefix returns the literal segments preceding the terminal
// catch-all, joined as a path. Used for conflict detection between
// catch-all registrations.
func (p Pattern) literalPrefix() string {
	var sb strings.Builder
	for _, seg := range p.segments {
		if seg.Kind == SegmentSplat || seg.Kind == SegmentWildcard {
			break
		}
		sb.WriteByte('/')
		if seg.Kind == SegmentParam {
			sb.WriteString(":")
		}
		sb.WriteString(seg.Value)
	}

	return sb.String()
}

// match attempts to match path segments against the pattern,
// collecting captures into params. The caller supplies the split path
// once so a single request is split once across all candidates.
//
// Matching proceeds segment by segment with no backtracking: a
// literal mismatch fails the candidate immediately.
//
// Returns (captured wildcard remainder, matched). The remainder is
// empty unless the pattern is a bare-wildcard pattern; splat captures
// go straight into params.
func (p Pattern) match(segments []string, params map[string]string) (string, bool) {
	for i, seg := range p.segments {
		switch seg.Kind {
		case SegmentLiteral:
			if i >= len(segments) || segments[i] != seg.Value {
				return "", false
			}
		case SegmentParam:
			if i >= len(segments) {
				return "", false
			}
			params[seg.Value] = segments[i]
		case SegmentSplat, SegmentWildcard:
			if i >= len(segments) {
				// Splats capture one-or-more remaining components.
				return "", false
			}
			remainder := "/" + strings.Join(segments[i:], "/")
			if seg.Kind == SegmentSplat {
				params[seg.Value] = remainder
				return "", true
			}
			return remainder, true
		}
	}

	if len(segments) != len(p.segments) {
		return "", false
	}

	return "", true
}
