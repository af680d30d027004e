// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDescriptorInheritance(t *testing.T) {
	cases := []struct {
		name string
		d    Descriptor
		mode processMode
		want Descriptor
	}{
		{
			name: "everything inherited",
			d:    Descriptor{BaseURL: ptr("https://example.com:8080/dir/file?q=1#top")},
			mode: modePattern,
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Port:     ptr("8080"),
				Pathname: ptr("/dir/file"),
				Search:   ptr("q=1"),
				Hash:     ptr("top"),
			},
		},
		{
			name: "explicit protocol stops inheritance",
			d:    Descriptor{Protocol: ptr("http"), BaseURL: ptr("https://example.com/dir/file?q=1#top")},
			mode: modePattern,
			want: Descriptor{
				Protocol: ptr("http"),
			},
		},
		{
			name: "explicit pathname stops search and hash inheritance",
			d:    Descriptor{Pathname: ptr("/x"), BaseURL: ptr("https://example.com/dir/file?q=1#top")},
			mode: modePattern,
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Port:     ptr(""),
				Pathname: ptr("/x"),
			},
		},
		{
			name: "base components are escaped for pattern use",
			d:    Descriptor{BaseURL: ptr("https://example.com/a*b")},
			mode: modePattern,
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Port:     ptr(""),
				Pathname: ptr(`/a\*b`),
				Search:   ptr(""),
				Hash:     ptr(""),
			},
		},
		{
			name: "credentials inherit only in url mode",
			d:    Descriptor{BaseURL: ptr("https://u:pw@example.com/")},
			mode: modeURL,
			want: Descriptor{
				Protocol: ptr("https"),
				Username: ptr("u"),
				Password: ptr("pw"),
				Hostname: ptr("example.com"),
				Port:     ptr(""),
				Pathname: ptr("/"),
				Search:   ptr(""),
				Hash:     ptr(""),
			},
		},
		{
			name: "credentials do not inherit in pattern mode",
			d:    Descriptor{BaseURL: ptr("https://u:pw@example.com/")},
			mode: modePattern,
			want: Descriptor{
				Protocol: ptr("https"),
				Hostname: ptr("example.com"),
				Port:     ptr(""),
				Pathname: ptr("/"),
				Search:   ptr(""),
				Hash:     ptr(""),
			},
		},
		{
			name: "protocol colon and search hash prefixes stripped",
			d:    Descriptor{Protocol: ptr("https:"), Search: ptr("?q=1"), Hash: ptr("#top")},
			mode: modePattern,
			want: Descriptor{
				Protocol: ptr("https"),
				Search:   ptr("q=1"),
				Hash:     ptr("top"),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := processDescriptor(tc.d, tc.mode)
			require.NoError(t, err)
			assertComponent(t, tc.want.Protocol, got.Protocol, "protocol")
			assertComponent(t, tc.want.Username, got.Username, "username")
			assertComponent(t, tc.want.Password, got.Password, "password")
			assertComponent(t, tc.want.Hostname, got.Hostname, "hostname")
			assertComponent(t, tc.want.Port, got.Port, "port")
			assertComponent(t, tc.want.Pathname, got.Pathname, "pathname")
			assertComponent(t, tc.want.Search, got.Search, "search")
			assertComponent(t, tc.want.Hash, got.Hash, "hash")
		})
	}
}

func TestProcessDescriptorErrors(t *testing.T) {
	t.Run("unparsable base url", func(t *testing.T) {
		_, err := processDescriptor(Descriptor{BaseURL: ptr("://nope")}, modePattern)
		assert.ErrorIs(t, err, ErrMissingBaseURL)
	})

	t.Run("relative base url", func(t *testing.T) {
		_, err := processDescriptor(Descriptor{BaseURL: ptr("/relative")}, modePattern)
		assert.ErrorIs(t, err, ErrMissingBaseURL)
	})

	t.Run("numeric port out of range in pattern mode", func(t *testing.T) {
		_, err := processDescriptor(Descriptor{Port: ptr("99999")}, modePattern)
		assert.ErrorIs(t, err, ErrInvalidPort)
	})

	t.Run("non numeric port kept as pattern text", func(t *testing.T) {
		got, err := processDescriptor(Descriptor{Port: ptr(":p(80|443)")}, modePattern)
		require.NoError(t, err)
		require.NotNil(t, got.Port)
		assert.Equal(t, ":p(80|443)", *got.Port)
	})
}

func TestEscapePatternString(t *testing.T) {
	assert.Equal(t, "plain/text", escapePatternString("plain/text"))
	assert.Equal(t, `\:id`, escapePatternString(":id"))
	assert.Equal(t, `a\*b\{c\}d\(e\)f\?g\+h\\i`, escapePatternString(`a*b{c}d(e)f?g+h\i`))
}
