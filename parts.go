// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import "strings"

type partType uint8

const (
	// partLiteral represents fixed text.
	partLiteral partType = iota
	// partParam represents a named parameter, with either a custom regexp
	// constraint or the component's default segment character class.
	partParam
	// partRegexp represents an unnamed literal regexp group, assigned a
	// synthetic numeric name.
	partRegexp
	// partWildcard represents the "*" full wildcard, assigned a synthetic
	// numeric name.
	partWildcard
	// partGroup represents an explicit "{...}" delimiter group whose inner
	// pattern is compiled recursively and spliced in without its anchors.
	partGroup
)

type partModifier uint8

const (
	modifierNone partModifier = iota
	modifierOptional
	modifierZeroOrMore
	modifierOneOrMore
)

func (m partModifier) String() string {
	switch m {
	case modifierOptional:
		return "?"
	case modifierZeroOrMore:
		return "*"
	case modifierOneOrMore:
		return "+"
	default:
		return ""
	}
}

// part is one node of the compiled pattern's intermediate representation.
// Literal values and prefixes hold already-canonicalized text. The prefix is
// the pathname separator absorbed from the preceding literal so that
// modifiers wrap the separator together with the parameter.
type part struct {
	value    string
	name     string
	prefix   string
	inner    []part
	typ      partType
	modifier partModifier
}

// lower writes the regexp source of pl to sb and appends capture names, in
// left-to-right order, to names. The output is not anchored; the caller adds
// anchors and flags around the whole component.
func lower(sb *strings.Builder, pl []part, names *[]string) {
	for _, p := range pl {
		switch p.typ {
		case partLiteral:
			if p.modifier == modifierNone {
				sb.WriteString(escapeRegexp(p.value))
				continue
			}
			sb.WriteString("(?:")
			sb.WriteString(escapeRegexp(p.value))
			sb.WriteString(")")
			sb.WriteString(p.modifier.String())

		case partGroup:
			sb.WriteString("(?:")
			lower(sb, p.inner, names)
			sb.WriteString(")")
			sb.WriteString(p.modifier.String())

		default:
			*names = append(*names, p.name)
			lowerCapture(sb, p)
		}
	}
}

// lowerCapture emits exactly one capturing group for a param, regexp group or
// wildcard part, regardless of its modifier. A repeated part with an absorbed
// separator prefix captures all repetitions as a single string, separators
// included.
func lowerCapture(sb *strings.Builder, p part) {
	value := p.value

	if p.prefix == "" {
		switch p.modifier {
		case modifierNone, modifierOptional:
			sb.WriteString("(")
			sb.WriteString(value)
			sb.WriteString(")")
			sb.WriteString(p.modifier.String())
		default:
			sb.WriteString("((?:")
			sb.WriteString(value)
			sb.WriteString(")")
			sb.WriteString(p.modifier.String())
			sb.WriteString(")")
		}
		return
	}

	prefix := escapeRegexp(p.prefix)

	switch p.modifier {
	case modifierNone, modifierOptional:
		sb.WriteString("(?:")
		sb.WriteString(prefix)
		sb.WriteString("(")
		sb.WriteString(value)
		sb.WriteString("))")
		sb.WriteString(p.modifier.String())
	default:
		// One capture spanning every repetition, so /a/b/c stays a single
		// slash-joined value.
		sb.WriteString("(?:")
		sb.WriteString(prefix)
		sb.WriteString("((?:")
		sb.WriteString(value)
		sb.WriteString(")(?:")
		sb.WriteString(prefix)
		sb.WriteString("(?:")
		sb.WriteString(value)
		sb.WriteString("))*))")
		if p.modifier == modifierZeroOrMore {
			sb.WriteString("?")
		}
	}
}

const fullWildcardRegexp = ".*"

// escapeRegexp escapes every regexp metacharacter in s so it matches
// literally.
func escapeRegexp(s string) string {
	if !strings.ContainsAny(s, `.+*?^${}()[]|/\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if isRegexpMeta(s[i]) {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func isRegexpMeta(b byte) bool {
	switch b {
	case '.', '+', '*', '?', '^', '$', '{', '}', '(', ')', '[', ']', '|', '/', '\\':
		return true
	}
	return false
}
