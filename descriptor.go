// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"net/url"
	"strings"

	"github.com/tigerwill90/urlpattern/internal/netutil"
)

// processMode selects how descriptor fields are interpreted: as pattern text
// to compile, or as concrete URL component values to match against.
type processMode uint8

const (
	modePattern processMode = iota
	modeURL
)

// processDescriptor applies base-URL inheritance and per-component
// normalization to a descriptor. In pattern mode field values stay pattern
// text (the component compiler canonicalizes literals later); in URL mode
// every supplied value is canonicalized strictly and an invalid value is an
// error.
func processDescriptor(d Descriptor, mode processMode) (Descriptor, error) {
	var out Descriptor

	var base *url.URL
	if d.BaseURL != nil {
		var err error
		base, err = url.Parse(*d.BaseURL)
		if err != nil || !base.IsAbs() {
			return out, newSyntaxError(ErrMissingBaseURL, "baseURL", *d.BaseURL)
		}

		// A more specific component being set stops inheritance of every
		// less specific one.
		if d.Protocol == nil {
			out.Protocol = ptr(processBaseString(base.Scheme, mode))
		}
		if mode == modeURL && d.Protocol == nil && d.Hostname == nil && d.Port == nil {
			if d.Username == nil {
				out.Username = ptr(base.User.Username())
			}
			if d.Username == nil && d.Password == nil {
				pass, _ := base.User.Password()
				out.Password = ptr(pass)
			}
		}
		if d.Protocol == nil && d.Hostname == nil {
			hostname, _ := netutil.SplitHostPort(base.Host)
			out.Hostname = ptr(processBaseString(hostname, mode))
		}
		if d.Protocol == nil && d.Hostname == nil && d.Port == nil {
			out.Port = ptr(base.Port())
		}
		if d.Protocol == nil && d.Hostname == nil && d.Port == nil && d.Pathname == nil {
			out.Pathname = ptr(processBaseString(base.EscapedPath(), mode))
		}
		if d.Protocol == nil && d.Hostname == nil && d.Port == nil && d.Pathname == nil && d.Search == nil {
			out.Search = ptr(processBaseString(base.RawQuery, mode))
		}
		if d.Protocol == nil && d.Hostname == nil && d.Port == nil && d.Pathname == nil && d.Search == nil && d.Hash == nil {
			out.Hash = ptr(processBaseString(base.EscapedFragment(), mode))
		}
	}

	if d.Protocol != nil {
		v := strings.TrimSuffix(*d.Protocol, ":")
		if mode == modeURL {
			canonical, err := canonicalizeProtocol(v)
			if err != nil {
				return out, err
			}
			v = canonical
		}
		out.Protocol = &v
	}
	if d.Username != nil {
		v := *d.Username
		if mode == modeURL {
			v, _ = canonicalizeUsername(v)
		}
		out.Username = &v
	}
	if d.Password != nil {
		v := *d.Password
		if mode == modeURL {
			v, _ = canonicalizePassword(v)
		}
		out.Password = &v
	}
	if d.Hostname != nil {
		v := *d.Hostname
		if mode == modeURL {
			canonical, err := canonicalizeHostname(v)
			if err != nil {
				return out, err
			}
			v = canonical
		}
		out.Hostname = &v
	}
	if d.Port != nil {
		v, err := processPort(*d.Port, mode)
		if err != nil {
			return out, newSyntaxError(err, "port", *d.Port)
		}
		out.Port = &v
	}
	if d.Pathname != nil {
		v := *d.Pathname
		if base != nil && !isAbsolutePathname(v, mode) {
			// Resolve a relative pathname against the base directory, like
			// a relative URL reference would be.
			basePath := base.EscapedPath()
			if idx := strings.LastIndexByte(basePath, '/'); idx >= 0 {
				v = processBaseString(basePath[:idx+1], mode) + v
			}
		}
		if mode == modeURL {
			canonical, err := processURLPathname(v, out.Protocol)
			if err != nil {
				return out, err
			}
			v = canonical
		}
		out.Pathname = &v
	}
	if d.Search != nil {
		v := strings.TrimPrefix(*d.Search, "?")
		if mode == modeURL {
			v, _ = canonicalizeSearch(v)
		}
		out.Search = &v
	}
	if d.Hash != nil {
		v := strings.TrimPrefix(*d.Hash, "#")
		if mode == modeURL {
			v, _ = canonicalizeHash(v)
		}
		out.Hash = &v
	}

	return out, nil
}

// processPort canonicalizes a plain numeric port immediately and leaves
// pattern text alone; an out-of-range numeric literal is always an error.
func processPort(port string, mode processMode) (string, error) {
	if mode == modePattern && !isDigitsOnly(port) {
		return port, nil
	}
	return canonicalizePort(port, "")
}

func isDigitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isASCIIDigit(s[i]) {
			return false
		}
	}
	return true
}

// processURLPathname canonicalizes a concrete pathname value. Hierarchical
// rules apply when the protocol is special or unknown; a non-empty relative
// pathname under a special scheme cannot denote a real URL path.
func processURLPathname(pathname string, protocol *string) (string, error) {
	scheme := ""
	if protocol != nil {
		scheme = *protocol
	}
	if scheme == "" || isSpecialScheme(scheme) {
		if pathname != "" && pathname[0] != '/' {
			return "", newSyntaxError(ErrInvalidPattern, "pathname", pathname)
		}
		return canonicalizePathname(pathname)
	}
	return canonicalizeOpaquePathname(pathname)
}

// isAbsolutePathname reports whether the pathname starts with a slash,
// accounting in pattern mode for a slash hidden behind an escape or at the
// start of a group.
func isAbsolutePathname(pathname string, mode processMode) bool {
	if pathname == "" {
		return false
	}
	if pathname[0] == '/' {
		return true
	}
	if mode == modeURL {
		return false
	}
	if len(pathname) < 2 {
		return false
	}
	return (pathname[0] == '\\' || pathname[0] == '{') && pathname[1] == '/'
}

// processBaseString prepares a base-URL component for use inside a pattern:
// characters that carry pattern meaning must be escaped so inherited values
// stay literal.
func processBaseString(value string, mode processMode) string {
	if mode != modePattern {
		return value
	}
	return escapePatternString(value)
}

func escapePatternString(s string) string {
	if !strings.ContainsAny(s, "+*?:{}()\\") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+', '*', '?', ':', '{', '}', '(', ')', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
