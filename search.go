// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// searchMatcher evaluates the search component of a candidate URL. Two
// implementations exist: strict ordered regexp matching and flexible
// order-independent key/value matching. The mode is fixed per pattern at
// compile time and never mixed.
type searchMatcher interface {
	// match evaluates the raw query string, without its leading "?".
	match(rawQuery string) bool
	// exec evaluates like match and extracts captures: the named groups of
	// the search pattern, and for the flexible mode the query keys the
	// pattern does not mention.
	exec(rawQuery string) (groups map[string]string, extra []Param, ok bool)
}

// strictSearch matches the whole query string against the compiled component
// regexp, in the exact order the pattern specifies.
type strictSearch struct {
	c *compiledComponent
}

func (s *strictSearch) match(rawQuery string) bool {
	q, _ := canonicalizeSearch(rawQuery)
	return s.c.re.MatchString(q)
}

func (s *strictSearch) exec(rawQuery string) (map[string]string, []Param, bool) {
	q, _ := canonicalizeSearch(rawQuery)
	idx, ok := s.c.match(q)
	if !ok {
		return nil, nil, false
	}
	return s.c.groups(q, idx), nil, true
}

type assertKind uint8

const (
	// assertPresence requires the key to exist, with any value.
	assertPresence assertKind = iota
	// assertLiteral requires the key's value to equal a literal after
	// percent-decoding both sides.
	assertLiteral
	// assertCapture captures the key's value under a parameter name.
	assertCapture
)

type searchAssert struct {
	key      string
	name     string
	literal  string
	kind     assertKind
	optional bool
}

// flexibleSearch checks a list of key/value assertions against the query
// parameters regardless of their order or position. Keys not mentioned by
// the pattern never fail the match; they are reported as extra captures.
type flexibleSearch struct {
	asserts []searchAssert
}

// parseFlexibleSearch splits a search pattern on "&" into assertions. It is
// selected when the search pattern contains "=".
func parseFlexibleSearch(pattern string) (*flexibleSearch, error) {
	fs := &flexibleSearch{}
	for _, piece := range strings.Split(pattern, "&") {
		if piece == "" || piece == "*" {
			continue
		}
		key, value, found := strings.Cut(piece, "=")
		key = decodeQueryValue(key)
		if !found {
			fs.asserts = append(fs.asserts, searchAssert{key: key, kind: assertPresence})
			continue
		}
		switch {
		case strings.HasPrefix(value, ":"):
			name := strings.TrimSuffix(value[1:], "?")
			if !isValidParamName(name) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidName, value)
			}
			fs.asserts = append(fs.asserts, searchAssert{
				key:      key,
				name:     name,
				kind:     assertCapture,
				optional: strings.HasSuffix(value, "?"),
			})
		case value == "*":
			fs.asserts = append(fs.asserts, searchAssert{key: key, kind: assertPresence})
		default:
			fs.asserts = append(fs.asserts, searchAssert{key: key, kind: assertLiteral, literal: decodeQueryValue(value)})
		}
	}
	return fs, nil
}

func (f *flexibleSearch) match(rawQuery string) bool {
	_, _, ok := f.exec(rawQuery)
	return ok
}

func (f *flexibleSearch) exec(rawQuery string) (map[string]string, []Param, bool) {
	values := parseQuery(rawQuery)

	groups := make(map[string]string, len(f.asserts))
	for _, a := range f.asserts {
		vals, present := values[a.key]
		if !present {
			if a.kind == assertCapture && a.optional {
				continue
			}
			return nil, nil, false
		}
		switch a.kind {
		case assertPresence:
		case assertLiteral:
			if len(vals) == 0 || vals[0] != a.literal {
				return nil, nil, false
			}
		case assertCapture:
			if len(vals) == 0 {
				return nil, nil, false
			}
			groups[a.name] = vals[0]
		}
	}

	var extra []Param
	for key, vals := range values {
		if f.mentions(key) || len(vals) == 0 {
			continue
		}
		extra = append(extra, Param{Key: key, Value: vals[0]})
	}
	// Deterministic capture order regardless of map iteration.
	slices.SortFunc(extra, func(a, b Param) int { return strings.Compare(a.Key, b.Key) })

	return groups, extra, true
}

func (f *flexibleSearch) mentions(key string) bool {
	for _, a := range f.asserts {
		if a.key == key {
			return true
		}
	}
	return false
}

// parseQuery is a forgiving url.ParseQuery: malformed percent-encoding keeps
// whatever pairs could be decoded instead of failing the whole query.
func parseQuery(rawQuery string) url.Values {
	values, err := url.ParseQuery(rawQuery)
	if err != nil && values == nil {
		values = url.Values{}
	}
	return values
}

// decodeQueryValue percent-decodes a query literal for comparison, treating
// "+" as a space like query parsing does.
func decodeQueryValue(s string) string {
	return percentDecode(strings.ReplaceAll(s, "+", " "))
}

func isValidParamName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !isNameCodePoint(r, i == 0) {
			return false
		}
	}
	return true
}
