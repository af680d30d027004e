// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrDuplicateParam    = errors.New("duplicate parameter name")
	ErrUnbalancedGroup   = errors.New("unbalanced group")
	ErrInvalidRegexp     = errors.New("invalid regexp group")
	ErrInvalidName       = errors.New("invalid parameter name")
	ErrInvalidPort       = errors.New("invalid port")
	ErrInvalidHostname   = errors.New("invalid hostname")
	ErrInvalidProtocol   = errors.New("invalid protocol")
	ErrAmbiguousProtocol = errors.New("ambiguous non-hierarchical protocol")
	ErrMissingBaseURL    = errors.New("relative pattern without base url")
)

// SyntaxError reports a construction-time pattern failure. It carries the
// component being compiled when the error surfaced during component
// compilation, or an empty component when the constructor string itself is
// malformed.
type SyntaxError struct {
	err       error
	Component string
	Pattern   string
}

func (e *SyntaxError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("%s: pattern %q", e.err, e.Pattern)
	}
	return fmt.Sprintf("%s: %s pattern %q", e.err, e.Component, e.Pattern)
}

// Unwrap returns the underlying error, which always wraps [ErrInvalidPattern].
func (e *SyntaxError) Unwrap() error {
	return e.err
}

func newSyntaxError(err error, component, pattern string) error {
	if !errors.Is(err, ErrInvalidPattern) {
		err = fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return &SyntaxError{err: err, Component: component, Pattern: pattern}
}
