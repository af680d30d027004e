// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package netutil

import "strings"

// SplitHostPort splits a URL host into hostname and port, keeping the square
// brackets of an IPv6 literal as part of the hostname. This differs from
// net.SplitHostPort, which strips the brackets: the bracketed form is the
// canonical hostname text that URL component matching operates on.
//
// The port is returned without the leading colon and is not validated.
func SplitHostPort(host string) (hostname, port string) {
	if host == "" {
		return "", ""
	}

	if host[0] == '[' {
		// The port separator can only appear after the closing bracket.
		end := strings.IndexByte(host, ']')
		if end < 0 {
			return host, ""
		}
		if end+1 < len(host) && host[end+1] == ':' {
			return host[:end+1], host[end+2:]
		}
		return host, ""
	}

	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i], host[i+1:]
	}
	return host, ""
}
