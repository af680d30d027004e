// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type canonFunc func(string) (string, error)

// compileOptions tunes the component compiler for one URL component. The
// delimiter bounds the default character class of an unconstrained parameter,
// the prefix is the separator a parameter absorbs from the preceding literal
// (pathname only), and encode canonicalizes literal text.
type compileOptions struct {
	encode     canonFunc
	delimiter  rune
	prefix     rune
	hostname   bool
	ignoreCase bool
}

// compiledComponent is the immutable compilation result for one URL
// component: a fully anchored regexp and the capture names matching its
// groups left to right.
type compiledComponent struct {
	pattern         string
	re              *regexp.Regexp
	names           []string
	hasRegexpGroups bool
	hasWildcard     bool
}

func compileComponent(pattern string, opts compileOptions) (*compiledComponent, error) {
	p, err := newPartParser(pattern, opts)
	if err != nil {
		return nil, err
	}
	parts, err := p.parseLevel(false)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	if opts.ignoreCase {
		sb.WriteString("(?is)")
	} else {
		sb.WriteString("(?s)")
	}
	sb.WriteString(`\A(?:`)
	names := make([]string, 0, 4)
	lower(&sb, parts, &names)
	sb.WriteString(`)\z`)

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegexp, err)
	}

	return &compiledComponent{
		pattern:         pattern,
		re:              re,
		names:           names,
		hasRegexpGroups: p.hasRegexpGroups,
		hasWildcard:     p.hasWildcard,
	}, nil
}

// match runs the component regexp with capture extraction. The returned
// index pairs distinguish an unmatched optional group (-1) from an empty
// capture.
func (c *compiledComponent) match(input string) ([]int, bool) {
	idx := c.re.FindStringSubmatchIndex(input)
	return idx, idx != nil
}

// groups maps capture names to matched substrings. Unmatched optional and
// repeat groups contribute nothing.
func (c *compiledComponent) groups(input string, idx []int) map[string]string {
	g := make(map[string]string, len(c.names))
	for i, name := range c.names {
		lo, hi := idx[2*(i+1)], idx[2*(i+1)+1]
		if lo < 0 {
			continue
		}
		g[name] = input[lo:hi]
	}
	return g
}

type partParser struct {
	opts            compileOptions
	tokens          []token
	pos             int
	seen            map[string]struct{}
	nextKey         int
	bracketDepth    int
	hasRegexpGroups bool
	hasWildcard     bool
}

func newPartParser(pattern string, opts compileOptions) (*partParser, error) {
	tokens, err := tokenize(pattern, tokenizeStrict, opts.hostname)
	if err != nil {
		return nil, err
	}
	return &partParser{
		opts:   opts,
		tokens: tokens,
		seen:   make(map[string]struct{}),
	}, nil
}

// parseLevel parses one nesting level: the whole pattern, or the inside of a
// "{...}" group when inGroup is set. Groups cannot nest.
func (p *partParser) parseLevel(inGroup bool) ([]part, error) {
	var parts []part
	var pending strings.Builder
	pendingTailIsChar := false

	flush := func() error {
		if pending.Len() == 0 {
			return nil
		}
		encoded, err := p.opts.encode(pending.String())
		if err != nil {
			return err
		}
		parts = append(parts, part{typ: partLiteral, value: encoded})
		pending.Reset()
		pendingTailIsChar = false
		return nil
	}

	for {
		tk := p.tokens[p.pos]
		switch tk.typ {
		case tokenChar, tokenEscapedChar:
			if p.opts.hostname && tk.typ == tokenChar {
				switch tk.value {
				case "[":
					p.bracketDepth++
				case "]":
					if p.bracketDepth > 0 {
						p.bracketDepth--
					}
				}
			}
			pending.WriteString(tk.value)
			pendingTailIsChar = tk.typ == tokenChar
			p.pos++

		case tokenName, tokenRegexp, tokenAsterisk:
			pt, err := p.consumeCapture()
			if err != nil {
				return nil, err
			}
			// An unescaped separator right before the capture becomes its
			// prefix so modifiers absorb it.
			if p.opts.prefix != 0 && pendingTailIsChar && strings.HasSuffix(pending.String(), string(p.opts.prefix)) {
				s := pending.String()
				pending.Reset()
				pending.WriteString(s[:len(s)-len(string(p.opts.prefix))])
				pt.prefix = string(p.opts.prefix)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			parts = append(parts, pt)

		case tokenOpen:
			if inGroup {
				return nil, fmt.Errorf("%w: nested group at index %d", ErrUnbalancedGroup, tk.index)
			}
			p.pos++
			inner, err := p.parseLevel(true)
			if err != nil {
				return nil, err
			}
			if err := flush(); err != nil {
				return nil, err
			}
			parts = append(parts, part{typ: partGroup, inner: inner, modifier: p.maybeModifier()})

		case tokenClose:
			if !inGroup {
				return nil, fmt.Errorf("%w: unexpected '}' at index %d", ErrUnbalancedGroup, tk.index)
			}
			p.pos++
			if err := flush(); err != nil {
				return nil, err
			}
			return parts, nil

		case tokenEnd:
			if inGroup {
				return nil, fmt.Errorf("%w: unclosed group", ErrUnbalancedGroup)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			return parts, nil

		default:
			return nil, fmt.Errorf("%w: unexpected %q at index %d", ErrInvalidPattern, tk.value, tk.index)
		}
	}
}

// consumeCapture consumes a named parameter with its optional constraint, a
// literal regexp group or a wildcard, plus a trailing modifier.
func (p *partParser) consumeCapture() (part, error) {
	tk := p.tokens[p.pos]
	var pt part

	switch tk.typ {
	case tokenName:
		pt.typ = partParam
		pt.name = tk.value
		p.pos++
		if p.tokens[p.pos].typ == tokenRegexp {
			pt.value = p.tokens[p.pos].value
			p.hasRegexpGroups = true
			p.pos++
		} else {
			pt.value = p.segmentWildcard()
		}
	case tokenRegexp:
		pt.typ = partRegexp
		pt.value = tk.value
		pt.name = p.numericKey()
		p.hasRegexpGroups = true
		p.pos++
	case tokenAsterisk:
		pt.typ = partWildcard
		pt.value = fullWildcardRegexp
		pt.name = p.numericKey()
		p.hasWildcard = true
		p.pos++
	}

	pt.modifier = p.maybeModifier()

	if _, ok := p.seen[pt.name]; ok {
		return part{}, fmt.Errorf("%w: %q", ErrDuplicateParam, pt.name)
	}
	p.seen[pt.name] = struct{}{}

	return pt, nil
}

// maybeModifier consumes "?", "+" or a second "*" following a capture or
// group.
func (p *partParser) maybeModifier() partModifier {
	switch tk := p.tokens[p.pos]; tk.typ {
	case tokenOtherModifier:
		p.pos++
		if tk.value == "?" {
			return modifierOptional
		}
		return modifierOneOrMore
	case tokenAsterisk:
		p.pos++
		return modifierZeroOrMore
	default:
		return modifierNone
	}
}

// segmentWildcard is the default character class of an unconstrained
// parameter: non-greedy, bounded by the component delimiter. For hostnames,
// colons are permitted only inside an IPv6 bracket literal.
func (p *partParser) segmentWildcard() string {
	if p.opts.hostname {
		if p.bracketDepth > 0 {
			return `[^\]]+?`
		}
		return `[^.:]+?`
	}
	if p.opts.delimiter == 0 {
		return `.+?`
	}
	return "[^" + escapeRegexp(string(p.opts.delimiter)) + "]+?"
}

func (p *partParser) numericKey() string {
	k := strconv.Itoa(p.nextKey)
	p.nextKey++
	return k
}
