// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"iter"

	"github.com/tigerwill90/urlpattern/internal/stringutil"
)

type Param struct {
	Key   string
	Value string
}

// Params holds the unified captures of a successful match: named parameters
// and synthetic wildcard indexes from every component, plus extra query keys
// reported by the flexible search mode. Lookups by name are ASCII
// case-insensitive; stored keys and values keep their original case.
type Params []Param

// Get the first matching capture by name.
func (p Params) Get(name string) string {
	for i := range p {
		if stringutil.EqualStringsASCIIIgnoreCase(p[i].Key, name) {
			return p[i].Value
		}
	}
	return ""
}

// Has checks whether a capture exists by name.
func (p Params) Has(name string) bool {
	for i := range p {
		if stringutil.EqualStringsASCIIIgnoreCase(p[i].Key, name) {
			return true
		}
	}

	return false
}

// Clone make a copy of Params.
func (p Params) Clone() Params {
	cloned := make(Params, len(p))
	copy(cloned, p)
	return cloned
}

// All returns an iterator over all captures in merge order.
func (p Params) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for i := range p {
			if !yield(p[i].Key, p[i].Value) {
				return
			}
		}
	}
}

// set appends the capture only if the key is not already present, so earlier
// components keep precedence over later ones.
func (p Params) set(key, value string) Params {
	if p.Has(key) {
		return p
	}
	return append(p, Param{Key: key, Value: value})
}
