// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"fmt"
	"unicode"

	"golang.org/x/exp/utf8string"
)

type tokenType uint8

const (
	tokenOpen tokenType = iota
	tokenClose
	tokenRegexp
	tokenName
	tokenChar
	tokenEscapedChar
	tokenOtherModifier
	tokenAsterisk
	tokenEnd
	tokenInvalidChar
)

// token is a single lexical unit of the pattern grammar. The index is the
// rune offset of the token's first code point in the original input, used to
// slice component sub-patterns back out of the constructor string.
type token struct {
	value string
	index int
	typ   tokenType
}

type tokenizePolicy uint8

const (
	// tokenizeStrict turns lexical errors into hard pattern errors. Component
	// sub-patterns are tokenized strictly.
	tokenizeStrict tokenizePolicy = iota
	// tokenizeLenient demotes lexical errors to invalid-char tokens so the
	// constructor string parser can treat them as plain text.
	tokenizeLenient
)

type tokenizer struct {
	input    *utf8string.String
	tokens   []token
	policy   tokenizePolicy
	count    int
	hostname bool
}

// tokenize scans a pattern string into its lexical tokens. The returned list
// always ends with a tokenEnd token. Under hostname lexing a ":" that does
// not introduce a parameter name is a plain character, so IPv6 literals such
// as "[::1]" stay literal text.
func tokenize(input string, policy tokenizePolicy, hostname bool) ([]token, error) {
	u := utf8string.NewString(input)
	t := &tokenizer{
		input:    u,
		tokens:   make([]token, 0, u.RuneCount()+1),
		policy:   policy,
		count:    u.RuneCount(),
		hostname: hostname,
	}

	index := 0
	for index < t.count {
		c := t.input.At(index)
		switch c {
		case '*':
			t.add(tokenAsterisk, index, index+1)
			index++
		case '+', '?':
			t.add(tokenOtherModifier, index, index+1)
			index++
		case '\\':
			if index == t.count-1 {
				if err := t.fail(index, index+1, "trailing escape"); err != nil {
					return nil, err
				}
				index++
				continue
			}
			t.tokens = append(t.tokens, token{typ: tokenEscapedChar, index: index, value: string(t.input.At(index + 1))})
			index += 2
		case '{':
			t.add(tokenOpen, index, index+1)
			index++
		case '}':
			t.add(tokenClose, index, index+1)
			index++
		case ':':
			namePos := index + 1
			for namePos < t.count && isNameCodePoint(t.input.At(namePos), namePos == index+1) {
				namePos++
			}
			if namePos == index+1 {
				if t.hostname {
					t.add(tokenChar, index, index+1)
					index++
					continue
				}
				if err := t.fail(index, index+1, "missing parameter name"); err != nil {
					return nil, err
				}
				index++
				continue
			}
			t.tokens = append(t.tokens, token{typ: tokenName, index: index, value: t.input.Slice(index+1, namePos)})
			index = namePos
		case '(':
			end, err := t.scanRegexp(index)
			if err != nil {
				if ferr := t.fail(index, end, err.Error()); ferr != nil {
					return nil, ferr
				}
				index = end
				continue
			}
			t.tokens = append(t.tokens, token{typ: tokenRegexp, index: index, value: t.input.Slice(index+1, end-1)})
			index = end
		default:
			t.add(tokenChar, index, index+1)
			index++
		}
	}

	t.tokens = append(t.tokens, token{typ: tokenEnd, index: t.count})
	return t.tokens, nil
}

// scanRegexp scans a parenthesized regexp group starting at the open paren.
// It returns the rune index just past the closing paren. Content must be
// ASCII, non-empty, with balanced parens where every nested group is
// non-capturing, and escapes limited to ASCII.
func (t *tokenizer) scanRegexp(start int) (int, error) {
	depth := 1
	pos := start + 1
	for pos < t.count {
		c := t.input.At(pos)
		if c > unicode.MaxASCII {
			return pos + 1, fmt.Errorf("non-ASCII character %q in regexp group", c)
		}
		if pos == start+1 && c == '?' {
			return pos + 1, fmt.Errorf("regexp group cannot start with '?'")
		}
		switch c {
		case '\\':
			if pos == t.count-1 {
				return pos + 1, fmt.Errorf("trailing escape in regexp group")
			}
			if t.input.At(pos+1) > unicode.MaxASCII {
				return pos + 2, fmt.Errorf("non-ASCII escape in regexp group")
			}
			pos += 2
			continue
		case ')':
			depth--
			if depth == 0 {
				if pos-start == 1 {
					return pos + 1, fmt.Errorf("empty regexp group")
				}
				return pos + 1, nil
			}
		case '(':
			depth++
			if pos == t.count-1 || t.input.At(pos+1) != '?' {
				return pos + 1, fmt.Errorf("capturing group inside regexp group: use (?:pattern) instead")
			}
		}
		pos++
	}
	return t.count, fmt.Errorf("unclosed regexp group")
}

func (t *tokenizer) add(typ tokenType, start, end int) {
	t.tokens = append(t.tokens, token{typ: typ, index: start, value: t.input.Slice(start, end)})
}

// fail records a lexical error: a hard error under the strict policy, an
// invalid-char token under the lenient one.
func (t *tokenizer) fail(start, end int, reason string) error {
	if t.policy == tokenizeStrict {
		return fmt.Errorf("%w: %s at index %d", ErrInvalidPattern, reason, start)
	}
	if end > t.count {
		end = t.count
	}
	t.tokens = append(t.tokens, token{typ: tokenInvalidChar, index: start, value: t.input.Slice(start, end)})
	return nil
}

// isNameCodePoint reports whether r can appear in a parameter name. The first
// code point must be a letter, "_" or "$"; later ones may also be digits.
func isNameCodePoint(r rune, first bool) bool {
	if r == '_' || r == '$' {
		return true
	}
	if unicode.IsLetter(r) {
		return true
	}
	return !first && unicode.IsDigit(r)
}
