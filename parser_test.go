// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConstructorString(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		want    Descriptor
	}{
		{
			name:    "full url pattern",
			pattern: "https://example.com/books/:id",
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Pathname: ptr("/books/:id"),
			},
		},
		{
			name:    "search and hash",
			pattern: "https://example.com?x=1#top",
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Pathname: ptr("/"),
				Search:   ptr("x=1"),
				Hash:     ptr("top"),
			},
		},
		{
			name:    "credentials",
			pattern: "https://u:pw@example.com/",
			want: Descriptor{
				Protocol: ptr("https"),
				Username: ptr("u"),
				Password: ptr("pw"),
				Hostname: ptr("example.com"),
				Pathname: ptr("/"),
			},
		},
		{
			name:    "named parameter username",
			pattern: "https://:user@example.com/",
			want: Descriptor{
				Protocol: ptr("https"),
				Username: ptr(":user"),
				Hostname: ptr("example.com"),
				Pathname: ptr("/"),
			},
		},
		{
			name:    "named parameter password",
			pattern: "https://u::pw@example.com/",
			want: Descriptor{
				Protocol: ptr("https"),
				Username: ptr("u"),
				Password: ptr(":pw"),
				Hostname: ptr("example.com"),
				Pathname: ptr("/"),
			},
		},
		{
			name:    "protocol wildcard without pathname",
			pattern: "*://example.com",
			want: Descriptor{
				Protocol: ptr("*"),
				Hostname: ptr("example.com"),
			},
		},
		{
			name:    "bare pathname pins search and hash",
			pattern: "/books/:id",
			want: Descriptor{
				Pathname: ptr("/books/:id"),
				Search:   ptr(""),
				Hash:     ptr(""),
			},
		},
		{
			name:    "bare search pins hash",
			pattern: "?q=1",
			want: Descriptor{
				Search: ptr("q=1"),
				Hash:   ptr(""),
			},
		},
		{
			name:    "bare hash",
			pattern: "#frag",
			want: Descriptor{
				Hash: ptr("frag"),
			},
		},
		{
			name:    "explicit port",
			pattern: "https://example.com:8080/x",
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Port:     ptr("8080"),
				Pathname: ptr("/x"),
			},
		},
		{
			name:    "ipv6 host keeps its colon",
			pattern: "https://[::1]/x",
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("[::1]"),
				Pathname: ptr("/x"),
			},
		},
		{
			name:    "legacy ampersand query shorthand",
			pattern: "https://example.com/p&sort=asc",
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Pathname: ptr("/p"),
				Search:   ptr("sort=asc"),
			},
		},
		{
			name:    "optional modifier is not a search prefix",
			pattern: "https://example.com/books/:id?",
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Pathname: ptr("/books/:id?"),
			},
		},
		{
			name:    "non special scheme goes straight to pathname",
			pattern: "data://foo",
			want: Descriptor{
				Protocol: ptr("data"),
				Hostname: ptr("foo"),
			},
		},
		{
			name:    "unterminated group truncates and falls back",
			pattern: "https://example.com/{unclosed",
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Pathname: ptr("*"),
			},
		},
		{
			name:    "unterminated group keeps a parsed pathname",
			pattern: "https://example.com/p?{a",
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Pathname: ptr("/p"),
				Search:   ptr(""),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := parseConstructorString(tc.pattern)
			require.NoError(t, err)
			assertComponent(t, tc.want.Protocol, d.Protocol, "protocol")
			assertComponent(t, tc.want.Username, d.Username, "username")
			assertComponent(t, tc.want.Password, d.Password, "password")
			assertComponent(t, tc.want.Hostname, d.Hostname, "hostname")
			assertComponent(t, tc.want.Port, d.Port, "port")
			assertComponent(t, tc.want.Pathname, d.Pathname, "pathname")
			assertComponent(t, tc.want.Search, d.Search, "search")
			assertComponent(t, tc.want.Hash, d.Hash, "hash")
		})
	}
}

func assertComponent(t *testing.T, want, got *string, component string) {
	t.Helper()
	if want == nil {
		assert.Nilf(t, got, "%s should be unset", component)
		return
	}
	require.NotNilf(t, got, "%s should be set", component)
	assert.Equalf(t, *want, *got, "%s", component)
}

func TestParseConstructorStringGroupedScheme(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{name: "group around scheme and separator", pattern: "{https:}//example.com/", wantErr: true},
		{name: "group spanning authority", pattern: "{https://example.com}/p", wantErr: true},
		{name: "group in pathname", pattern: "/books{/chapters}?", wantErr: false},
		{name: "escaped colon inside group", pattern: `/a{b\:c}//d`, wantErr: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseConstructorString(tc.pattern)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPattern)
				var serr *SyntaxError
				assert.ErrorAs(t, err, &serr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseConstructorStringAmbiguousScheme(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{name: "javascript", pattern: "javascript:alert", wantErr: true},
		{name: "mailto", pattern: "mailto:user@example.com", wantErr: true},
		{name: "data", pattern: "data:text/plain", wantErr: true},
		{name: "hierarchical remainder", pattern: "https://example.com", wantErr: false},
		{name: "scheme relative slash", pattern: "custom:/path", wantErr: false},
		{name: "no scheme at all", pattern: "/books/:id", wantErr: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseConstructorString(tc.pattern)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrAmbiguousProtocol)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
