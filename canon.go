// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tigerwill90/urlpattern/internal/stringutil"
	"golang.org/x/net/idna"
)

// specialSchemes maps the schemes with special URL semantics to their default
// port ("" when the scheme has none). Matching elides the default port, and a
// special scheme forces an absolute, slash-delimited pathname.
var specialSchemes = map[string]string{
	"ftp":   "21",
	"file":  "",
	"http":  "80",
	"https": "443",
	"ws":    "80",
	"wss":   "443",
}

func isSpecialScheme(scheme string) bool {
	_, ok := specialSchemes[scheme]
	return ok
}

// defaultPort returns the default port for scheme, or "" if the scheme has
// none or is not special.
func defaultPort(scheme string) string {
	return specialSchemes[scheme]
}

// encodeSet identifies the percent-encode set of a URL component. Each set is
// a superset of the previous one, mirroring the URL standard: C0 control,
// fragment, query, path and userinfo.
type encodeSet uint8

const (
	encodeSetC0 encodeSet = iota
	encodeSetFragment
	encodeSetQuery
	encodeSetPath
	encodeSetUserinfo
)

func (es encodeSet) contains(b byte) bool {
	// C0 controls and everything above the ASCII range are in every set.
	if b < 0x20 || b > 0x7e {
		return true
	}
	if es == encodeSetC0 {
		return false
	}
	switch b {
	case ' ', '"', '<', '>', '`':
		return true
	}
	if es == encodeSetFragment {
		return false
	}
	switch b {
	case '#', '\'':
		return true
	}
	if es == encodeSetQuery {
		return false
	}
	switch b {
	case '?', '{', '}':
		return true
	}
	if es == encodeSetPath {
		return false
	}
	switch b {
	case '/', ':', ';', '=', '@', '[', '\\', ']', '^', '|':
		return true
	}
	return false
}

const upperhex = "0123456789ABCDEF"

// percentEncode encodes every byte of s belonging to the given encode set to
// its canonical uppercase-hex form. A valid percent-encoded triplet already
// present in s is preserved, with its hex digits normalized to uppercase, so
// that encoding is idempotent.
func percentEncode(s string, set encodeSet) string {
	changed := false
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '%' && i+2 < len(s) && stringutil.IsHexDigit(s[i+1]) && stringutil.IsHexDigit(s[i+2]) {
			if s[i+1] != upperByte(s[i+1]) || s[i+2] != upperByte(s[i+2]) {
				changed = true
			}
			i += 2
			continue
		}
		if set.contains(b) {
			changed = true
		}
	}
	if !changed {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '%' && i+2 < len(s) && stringutil.IsHexDigit(s[i+1]) && stringutil.IsHexDigit(s[i+2]) {
			sb.WriteByte('%')
			sb.WriteByte(upperByte(s[i+1]))
			sb.WriteByte(upperByte(s[i+2]))
			i += 2
			continue
		}
		if set.contains(b) {
			sb.WriteByte('%')
			sb.WriteByte(upperhex[b>>4])
			sb.WriteByte(upperhex[b&0xf])
			continue
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func upperByte(b byte) byte {
	if 'a' <= b && b <= 'f' {
		return b - ('a' - 'A')
	}
	return b
}

// percentDecode decodes every valid percent-encoded triplet in s. Malformed
// triplets are left untouched rather than rejected, matching the forgiving
// decode used for query value comparison.
func percentDecode(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, lo := stringutil.Unhex(s[i+1]), stringutil.Unhex(s[i+2])
			if hi >= 0 && lo >= 0 {
				sb.WriteByte(byte(hi<<4 | lo))
				i += 2
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// canonicalizeProtocol validates and lowercases a scheme literal.
func canonicalizeProtocol(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if !isSchemeLegal(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidProtocol, s)
	}
	return lowerASCII(s), nil
}

// isSchemeLegal reports whether s is a syntactically legal URL scheme:
// an ASCII letter followed by letters, digits, "+", "-" or ".".
func isSchemeLegal(s string) bool {
	if s == "" || !isASCIIAlpha(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		b := s[i]
		if !isASCIIAlpha(b) && !isASCIIDigit(b) && b != '+' && b != '-' && b != '.' {
			return false
		}
	}
	return true
}

func isASCIIAlpha(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

func isASCIIDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

func lowerASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				b[j] = stringutil.ToLowerASCII(b[j])
			}
			return string(b)
		}
	}
	return s
}

func canonicalizeUsername(s string) (string, error) {
	return percentEncode(s, encodeSetUserinfo), nil
}

func canonicalizePassword(s string) (string, error) {
	return percentEncode(s, encodeSetUserinfo), nil
}

// canonicalizeHostname converts a hostname literal to its ASCII-compatible
// (IDNA) lowercase form. Bracketed IPv6 literals take the IPv6 rules instead.
func canonicalizeHostname(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if s[0] == '[' || strings.HasPrefix(s, "\\[") || strings.HasPrefix(s, "{[") {
		return canonicalizeIPv6Hostname(s)
	}
	if strings.ContainsAny(s, " #/:<>?@[\\]^|") {
		return "", fmt.Errorf("%w: forbidden host code point in %q", ErrInvalidHostname, s)
	}
	h, err := idna.Lookup.ToASCII(lowerASCII(s))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidHostname, err)
	}
	return h, nil
}

// canonicalizeIPv6Hostname lowercases the hex digits of an IPv6 literal and
// rejects anything outside the bracket/hex/separator alphabet.
func canonicalizeIPv6Hostname(s string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b == '[' || b == ']' || b == ':' || b == '.' || b == '%':
			sb.WriteByte(b)
		case stringutil.IsHexDigit(b):
			sb.WriteByte(stringutil.ToLowerASCII(b))
		default:
			return "", fmt.Errorf("%w: invalid IPv6 hostname %q", ErrInvalidHostname, s)
		}
	}
	return sb.String(), nil
}

// canonicalizePort strips whitespace, extracts the leading digit run,
// validates the 0-65535 range and elides the default port of the scheme.
func canonicalizePort(port, scheme string) (string, error) {
	if port == "" {
		return "", nil
	}

	var sb strings.Builder
	sb.Grow(len(port))
	for i := 0; i < len(port); i++ {
		switch port[i] {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			sb.WriteByte(port[i])
		}
	}
	trimmed := sb.String()

	end := 0
	for end < len(trimmed) && isASCIIDigit(trimmed[end]) {
		end++
	}
	if end == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPort, port)
	}

	n, err := strconv.Atoi(trimmed[:end])
	if err != nil || n > 65535 {
		return "", fmt.Errorf("%w: %q out of range", ErrInvalidPort, port)
	}

	canonical := strconv.Itoa(n)
	if scheme != "" && canonical == defaultPort(scheme) {
		return "", nil
	}
	return canonical, nil
}

// canonicalizePathname percent-encodes a slash-delimited pathname and
// resolves its dot segments. A missing leading slash is preserved as given;
// resolution against a base URL happens before canonicalization.
func canonicalizePathname(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	p := percentEncode(s, encodeSetPath)
	if p[0] == '/' {
		p = resolveDotSegments(p)
	}
	return p, nil
}

// canonicalizeOpaquePathname percent-encodes an opaque (non-hierarchical)
// pathname. Only C0 controls and non-ASCII are encoded; slashes and dots are
// plain data for these schemes.
func canonicalizeOpaquePathname(s string) (string, error) {
	return percentEncode(s, encodeSetC0), nil
}

func canonicalizeSearch(s string) (string, error) {
	return percentEncode(strings.TrimPrefix(s, "?"), encodeSetQuery), nil
}

func canonicalizeHash(s string) (string, error) {
	return percentEncode(strings.TrimPrefix(s, "#"), encodeSetFragment), nil
}

// resolveDotSegments removes "." segments and resolves ".." segments against
// their parent, preserving the leading slash and keeping a trailing slash
// when the last segment is elided. Already-normalized paths are returned
// unchanged, so the resolution is idempotent.
func resolveDotSegments(p string) string {
	if !strings.Contains(p, "./") && !strings.HasSuffix(p, ".") {
		return p
	}

	segments := strings.Split(p, "/")
	out := segments[:0]
	trailingSlash := false
	for _, seg := range segments {
		switch seg {
		case ".":
			trailingSlash = true
		case "..":
			trailingSlash = true
			if len(out) > 1 {
				out = out[:len(out)-1]
			}
		default:
			trailingSlash = false
			out = append(out, seg)
		}
	}
	res := strings.Join(out, "/")
	if trailingSlash && !strings.HasSuffix(res, "/") {
		res += "/"
	}
	if res == "" && strings.HasPrefix(p, "/") {
		res = "/"
	}
	return res
}
