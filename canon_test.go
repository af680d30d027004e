// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentEncode(t *testing.T) {
	cases := []struct {
		name  string
		input string
		set   encodeSet
		want  string
	}{
		{name: "ascii passthrough", input: "abc-123_~", set: encodeSetPath, want: "abc-123_~"},
		{name: "non ascii", input: "café", set: encodeSetQuery, want: "caf%C3%A9"},
		{name: "space in fragment set", input: "a b", set: encodeSetFragment, want: "a%20b"},
		{name: "existing triplet normalized to uppercase", input: "caf%c3%a9", set: encodeSetPath, want: "caf%C3%A9"},
		{name: "malformed triplet left alone", input: "100%zz", set: encodeSetC0, want: "100%zz"},
		{name: "question mark in path set", input: "/a?b", set: encodeSetPath, want: "/a%3Fb"},
		{name: "userinfo set encodes separators", input: "u:p@h", set: encodeSetUserinfo, want: "u%3Ap%40h"},
		{name: "control character", input: "a\x01b", set: encodeSetC0, want: "a%01b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := percentEncode(tc.input, tc.set)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, percentEncode(got, tc.set), "must be idempotent")
		})
	}
}

func TestPercentDecode(t *testing.T) {
	assert.Equal(t, "café", percentDecode("caf%C3%A9"))
	assert.Equal(t, "café", percentDecode("caf%c3%a9"))
	assert.Equal(t, "100%zz", percentDecode("100%zz"))
	assert.Equal(t, "plain", percentDecode("plain"))
}

func TestCanonicalizeProtocol(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "lowercase passthrough", input: "https", want: "https"},
		{name: "uppercase normalized", input: "HTTP", want: "http"},
		{name: "plus minus dot allowed", input: "git+ssh", want: "git+ssh"},
		{name: "empty allowed", input: "", want: ""},
		{name: "leading digit", input: "1http", wantErr: true},
		{name: "space", input: "ht tp", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := canonicalizeProtocol(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProtocol)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanonicalizeHostname(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "lowercase passthrough", input: "example.com", want: "example.com"},
		{name: "ascii uppercase", input: "EXAMPLE.com", want: "example.com"},
		{name: "idna", input: "bücher.example", want: "xn--bcher-kva.example"},
		{name: "empty", input: "", want: ""},
		{name: "ipv6 lowered", input: "[::FFFF:1]", want: "[::ffff:1]"},
		{name: "ipv6 with dots", input: "[::ffff:192.0.2.1]", want: "[::ffff:192.0.2.1]"},
		{name: "space forbidden", input: "exa mple", wantErr: true},
		{name: "slash forbidden", input: "a/b", wantErr: true},
		{name: "ipv6 bad alphabet", input: "[::g]", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := canonicalizeHostname(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidHostname)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanonicalizePort(t *testing.T) {
	cases := []struct {
		name    string
		port    string
		scheme  string
		want    string
		wantErr bool
	}{
		{name: "plain", port: "8080", want: "8080"},
		{name: "leading zeros stripped", port: "0080", want: "80"},
		{name: "default http elided", port: "80", scheme: "http", want: ""},
		{name: "default https elided", port: "443", scheme: "https", want: ""},
		{name: "non default kept", port: "8443", scheme: "https", want: "8443"},
		{name: "empty stays empty", port: "", scheme: "http", want: ""},
		{name: "surrounding whitespace stripped", port: " 80", scheme: "http", want: ""},
		{name: "out of range", port: "65536", wantErr: true},
		{name: "not a number", port: "abc", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := canonicalizePort(tc.port, tc.scheme)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPort)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanonicalizePathname(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "/a/b", want: "/a/b"},
		{name: "dot segment", input: "/a/./b", want: "/a/b"},
		{name: "dot dot segment", input: "/a/../b", want: "/b"},
		{name: "trailing dot dot keeps slash", input: "/a/b/..", want: "/a/"},
		{name: "dot dot above root", input: "/..", want: "/"},
		{name: "unicode encoded", input: "/café", want: "/caf%C3%A9"},
		{name: "relative left alone", input: "a/../b", want: "a/../b"},
		{name: "empty", input: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := canonicalizePathname(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			again, err := canonicalizePathname(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "must be idempotent")
		})
	}
}

func TestCanonicalizeSearchAndHash(t *testing.T) {
	s, err := canonicalizeSearch("?q=café")
	require.NoError(t, err)
	assert.Equal(t, "q=caf%C3%A9", s)

	h, err := canonicalizeHash("#frag ment")
	require.NoError(t, err)
	assert.Equal(t, "frag%20ment", h)
}
