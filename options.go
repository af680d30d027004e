// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

// Option configures the compilation of a [Pattern].
type Option interface {
	apply(*config)
}

type config struct {
	ignoreCase bool
}

type optionFunc func(*config)

func (o optionFunc) apply(c *config) {
	o(c)
}

// WithIgnoreCase enables case-insensitive matching for the pathname, search
// and hash components. Protocol, hostname and port are always matched against
// their case-normalized form and are not affected by this option.
func WithIgnoreCase() Option {
	return optionFunc(func(c *config) {
		c.ignoreCase = true
	})
}
