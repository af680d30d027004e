// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/utf8string"
)

type parserState uint8

const (
	stateInit parserState = iota
	stateProtocol
	stateAuthority
	stateUsername
	statePassword
	stateHostname
	statePort
	statePathname
	stateSearch
	stateHash
	stateDone
)

// constructorParser splits a single pattern string into per-component
// sub-patterns. It scans the token list with a one-token increment, rewinding
// to the component start whenever a delimiter reveals that earlier tokens
// belong to a different component.
type constructorParser struct {
	input           *utf8string.String
	tokens          []token
	result          Descriptor
	state           parserState
	componentStart  int
	pos             int
	increment       int
	groupDepth      int
	bracketDepth    int
	openIndex       int
	protocolSpecial bool
}

// parseConstructorString parses a pattern string into a Descriptor, or fails
// with a hard parse error.
func parseConstructorString(input string) (Descriptor, error) {
	if scheme, ok := ambiguousScheme(input); ok {
		return Descriptor{}, newSyntaxError(ErrAmbiguousProtocol, "", scheme+":")
	}

	tokens, err := tokenize(input, tokenizeLenient, false)
	if err != nil {
		return Descriptor{}, err
	}
	if err := rejectGroupedScheme(input, tokens); err != nil {
		return Descriptor{}, err
	}

	p := &constructorParser{
		input:     utf8string.NewString(input),
		tokens:    tokens,
		increment: 1,
		openIndex: -1,
	}

	for p.pos < len(p.tokens) {
		p.increment = 1

		if p.tokens[p.pos].typ == tokenEnd {
			if p.groupDepth > 0 {
				// A group left open at the end of the pattern: truncate the
				// component at the brace and fall back to a wildcard
				// pathname instead of failing.
				p.truncateOpenGroup()
				break
			}
			if p.state == stateInit {
				p.rewind()
				switch {
				case p.isHashPrefix():
					p.changeState(stateHash, 1)
				case p.isSearchPrefix():
					p.result.Hash = ptr("")
					p.changeState(stateSearch, 1)
				default:
					p.result.Search = ptr("")
					p.result.Hash = ptr("")
					p.changeState(statePathname, 0)
				}
				p.pos += p.increment
				continue
			}
			if p.state == stateAuthority {
				p.rewindAndSetState(stateHostname)
				p.pos += p.increment
				continue
			}
			p.changeState(stateDone, 0)
			break
		}

		if p.isGroupOpen() {
			if p.groupDepth == 0 {
				p.openIndex = p.pos
			}
			p.groupDepth++
			p.pos += p.increment
			continue
		}

		if p.groupDepth > 0 {
			if !p.isGroupClose() {
				p.pos += p.increment
				continue
			}
			p.groupDepth--
		}

		switch p.state {
		case stateInit:
			if p.isProtocolSuffix() {
				p.rewindAndSetState(stateProtocol)
			}

		case stateProtocol:
			if p.isProtocolSuffix() {
				if err := p.computeProtocolMatchesSpecialScheme(); err != nil {
					return Descriptor{}, err
				}
				next, skip := statePathname, 1
				if p.nextIsAuthoritySlashes() {
					next, skip = stateAuthority, 3
				} else if p.protocolSpecial {
					next = stateAuthority
				}
				p.changeState(next, skip)
			}

		case stateAuthority:
			switch {
			case p.isIdentityTerminator():
				p.rewindAndSetState(stateUsername)
			case p.isPathnameStart() || p.isSearchPrefix() || p.isHashPrefix():
				p.rewindAndSetState(stateHostname)
			}

		case stateUsername:
			switch {
			case p.isPasswordPrefix():
				p.changeState(statePassword, 1)
			case p.isPasswordName():
				p.splitPasswordName()
				p.changeState(statePassword, 1)
			case p.isIdentityTerminator():
				p.changeState(stateHostname, 1)
			}

		case statePassword:
			if p.isIdentityTerminator() {
				p.changeState(stateHostname, 1)
			}

		case stateHostname:
			switch {
			case p.isIPv6Open():
				p.bracketDepth++
			case p.isIPv6Close():
				if p.bracketDepth > 0 {
					p.bracketDepth--
				}
			case p.isPortPrefix() && p.bracketDepth == 0:
				p.changeState(statePort, 1)
			case p.isPathnameStart():
				p.changeState(statePathname, 0)
			case p.isSearchPrefix():
				p.changeState(stateSearch, 1)
			case p.isLegacyQueryPrefix():
				p.changeState(stateSearch, 1)
			case p.isHashPrefix():
				p.changeState(stateHash, 1)
			}

		case statePort:
			switch {
			case p.isPathnameStart():
				p.changeState(statePathname, 0)
			case p.isSearchPrefix() || p.isLegacyQueryPrefix():
				p.changeState(stateSearch, 1)
			case p.isHashPrefix():
				p.changeState(stateHash, 1)
			}

		case statePathname:
			switch {
			case p.isSearchPrefix() || p.isLegacyQueryPrefix():
				p.changeState(stateSearch, 1)
			case p.isHashPrefix():
				p.changeState(stateHash, 1)
			}

		case stateSearch:
			if p.isHashPrefix() {
				p.changeState(stateHash, 1)
			}

		case stateHash:
		}

		p.pos += p.increment
	}

	return p.result, nil
}

// ambiguousScheme detects a non-hierarchical scheme prefix whose remainder
// starts with a parameter name character: "javascript:alert" cannot be told
// apart from a ":alert" named parameter, so compilation is rejected outright.
func ambiguousScheme(s string) (string, bool) {
	if s == "" || !isASCIIAlpha(s[0]) {
		return "", false
	}
	i := 1
	for i < len(s) && (isASCIIAlpha(s[i]) || isASCIIDigit(s[i]) || s[i] == '+' || s[i] == '-' || s[i] == '.') {
		i++
	}
	if i >= len(s) || s[i] != ':' {
		return "", false
	}
	rest := s[i+1:]
	if strings.HasPrefix(rest, "/") {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if r == utf8.RuneError && rest == "" {
		return "", false
	}
	if isNameCodePoint(r, true) {
		return s[:i], true
	}
	return "", false
}

// rejectGroupedScheme fails a pattern whose scheme separator is captured
// inside a "{...}" group, as in "{https:}//example.com". The group would
// swallow the protocol and the remainder of the pattern would silently
// reparse as a pathname.
func rejectGroupedScheme(input string, tokens []token) error {
	slash := func(j int) bool {
		if j >= len(tokens) {
			return false
		}
		tk := tokens[j]
		return tk.value == "/" && (tk.typ == tokenChar || tk.typ == tokenInvalidChar)
	}

	depth := 0
	for i, tk := range tokens {
		switch tk.typ {
		case tokenOpen:
			depth++
			continue
		case tokenClose:
			if depth > 0 {
				depth--
			}
			continue
		case tokenChar, tokenInvalidChar:
		default:
			continue
		}
		if depth == 0 || tk.value != ":" {
			continue
		}
		j := i + 1
		for j < len(tokens) && tokens[j].typ == tokenClose {
			j++
		}
		if slash(j) && slash(j+1) {
			return newSyntaxError(fmt.Errorf("%w: group spans the scheme separator at index %d", ErrInvalidPattern, tk.index), "", input)
		}
	}
	return nil
}

func (p *constructorParser) rewind() {
	p.pos = p.componentStart
	p.increment = 0
}

func (p *constructorParser) rewindAndSetState(s parserState) {
	p.rewind()
	p.state = s
}

// changeState stores the current component's sub-pattern, fills implied
// empty components skipped by the transition, and repositions the scanner.
func (p *constructorParser) changeState(newState parserState, skip int) {
	switch p.state {
	case stateProtocol:
		p.result.Protocol = ptr(p.makeComponentString())
	case stateUsername:
		p.result.Username = ptr(p.makeComponentString())
	case statePassword:
		p.result.Password = ptr(p.makeComponentString())
	case stateHostname:
		p.result.Hostname = ptr(p.makeComponentString())
	case statePort:
		p.result.Port = ptr(p.makeComponentString())
	case statePathname:
		p.result.Pathname = ptr(p.makeComponentString())
	case stateSearch:
		p.result.Search = ptr(p.makeComponentString())
	case stateHash:
		p.result.Hash = ptr(p.makeComponentString())
	}

	if p.state != stateInit && newState != stateDone {
		if p.state <= statePassword && newState >= statePort && p.result.Hostname == nil {
			p.result.Hostname = ptr("")
		}
		if p.state <= statePort && newState >= stateSearch && p.result.Pathname == nil {
			if p.protocolSpecial {
				p.result.Pathname = ptr("/")
			} else {
				p.result.Pathname = ptr("")
			}
		}
		if p.state <= statePathname && newState == stateHash && p.result.Search == nil {
			p.result.Search = ptr("")
		}
	}

	p.state = newState
	p.pos += skip
	p.componentStart = p.pos
	p.increment = 0
}

// truncateOpenGroup implements the unterminated "{...}" fallback: the
// component in progress ends at the opening brace and the pathname, unless
// already parsed, becomes a full wildcard.
func (p *constructorParser) truncateOpenGroup() {
	end := p.tokens[p.openIndex].index
	start := p.tokens[p.componentStart].index
	if end < start {
		end = start
	}
	value := p.input.Slice(start, end)

	switch p.state {
	case stateProtocol:
		p.result.Protocol = &value
	case stateUsername:
		p.result.Username = &value
	case statePassword:
		p.result.Password = &value
	case stateHostname, stateAuthority:
		p.result.Hostname = &value
	case statePort:
		p.result.Port = &value
	case stateSearch:
		p.result.Search = &value
	case stateHash:
		p.result.Hash = &value
	}
	if p.result.Pathname == nil {
		p.result.Pathname = ptr("*")
	}
	p.state = stateDone
}

func (p *constructorParser) makeComponentString() string {
	end := p.tokens[p.pos].index
	start := p.tokens[p.componentStart].index
	return p.input.Slice(start, end)
}

// computeProtocolMatchesSpecialScheme compiles the protocol sub-pattern seen
// so far and tests it against the special schemes, which decide whether an
// authority section is implied.
func (p *constructorParser) computeProtocolMatchesSpecialScheme() error {
	protocol := p.makeComponentString()
	c, err := compileComponent(protocol, compileOptions{encode: canonicalizeProtocol})
	if err != nil {
		return newSyntaxError(err, "protocol", protocol)
	}
	for scheme := range specialSchemes {
		if c.re.MatchString(scheme) {
			p.protocolSpecial = true
			break
		}
	}
	return nil
}

func (p *constructorParser) isGroupOpen() bool {
	return p.tokens[p.pos].typ == tokenOpen
}

func (p *constructorParser) isGroupClose() bool {
	return p.tokens[p.pos].typ == tokenClose
}

func (p *constructorParser) isProtocolSuffix() bool {
	return p.isNonSpecialPatternChar(p.pos, ":")
}

func (p *constructorParser) nextIsAuthoritySlashes() bool {
	return p.isNonSpecialPatternChar(p.pos+1, "/") && p.isNonSpecialPatternChar(p.pos+2, "/")
}

func (p *constructorParser) isIdentityTerminator() bool {
	return p.isNonSpecialPatternChar(p.pos, "@")
}

func (p *constructorParser) isPasswordPrefix() bool {
	return p.isNonSpecialPatternChar(p.pos, ":")
}

// isPasswordName reports whether the current token is a name token standing
// in for the ":password" separator: ":s3cret" in "admin:s3cret@" lexes as a
// single name token, so the username split cannot rely on a bare ":" char.
// A name token at the very start of the username stays a named parameter.
func (p *constructorParser) isPasswordName() bool {
	return p.tokens[p.pos].typ == tokenName && p.pos > p.componentStart
}

// splitPasswordName splits the current ":name" token into a ":" separator
// followed by the name text, so the password component starts right after
// the ":".
func (p *constructorParser) splitPasswordName() {
	tk := p.tokens[p.pos]
	p.tokens[p.pos] = token{typ: tokenChar, value: ":", index: tk.index}
	rest := token{typ: tokenChar, value: tk.value, index: tk.index + 1}
	p.tokens = slices.Insert(p.tokens, p.pos+1, rest)
}

func (p *constructorParser) isPortPrefix() bool {
	return p.isNonSpecialPatternChar(p.pos, ":")
}

func (p *constructorParser) isPathnameStart() bool {
	return p.isNonSpecialPatternChar(p.pos, "/")
}

func (p *constructorParser) isIPv6Open() bool {
	return p.isNonSpecialPatternChar(p.pos, "[")
}

func (p *constructorParser) isIPv6Close() bool {
	return p.isNonSpecialPatternChar(p.pos, "]")
}

func (p *constructorParser) isHashPrefix() bool {
	return p.isNonSpecialPatternChar(p.pos, "#")
}

// isLegacyQueryPrefix recognizes the historical "&"-delimited query
// shorthand, where "&" introduces the search component in place of "?".
func (p *constructorParser) isLegacyQueryPrefix() bool {
	return p.isNonSpecialPatternChar(p.pos, "&")
}

// isSearchPrefix reports whether the current token is a "?" that starts the
// search component rather than an optional modifier. A "?" right after a
// named parameter, a regexp group, a wildcard or a group close is a modifier.
func (p *constructorParser) isSearchPrefix() bool {
	if p.isNonSpecialPatternChar(p.pos, "?") {
		return true
	}
	if p.tokens[p.pos].value != "?" {
		return false
	}

	previous := p.pos - 1
	if previous < 0 {
		return true
	}

	switch p.safeToken(previous).typ {
	case tokenName, tokenRegexp, tokenClose, tokenAsterisk:
		return false
	}
	return true
}

func (p *constructorParser) isNonSpecialPatternChar(index int, value string) bool {
	tk := p.safeToken(index)
	if tk.value != value {
		return false
	}
	return tk.typ == tokenChar || tk.typ == tokenEscapedChar || tk.typ == tokenInvalidChar
}

func (p *constructorParser) safeToken(index int) token {
	if index < len(p.tokens) {
		return p.tokens[index]
	}
	return p.tokens[len(p.tokens)-1]
}

func ptr(s string) *string {
	return &s
}
