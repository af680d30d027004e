// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/urlpattern/blob/master/LICENSE.txt.

package urlpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsGetAndHas(t *testing.T) {
	params := Params{
		{Key: "id", Value: "42"},
		{Key: "section", Value: "intro"},
	}

	assert.Equal(t, "42", params.Get("id"))
	assert.Equal(t, "42", params.Get("ID"))
	assert.Equal(t, "intro", params.Get("Section"))
	assert.Empty(t, params.Get("missing"))

	assert.True(t, params.Has("id"))
	assert.True(t, params.Has("SECTION"))
	assert.False(t, params.Has("missing"))
}

func TestParamsSetKeepsFirstWriter(t *testing.T) {
	var params Params
	params = params.set("id", "path")
	params = params.set("id", "query")
	params = params.set("page", "2")

	assert.Len(t, params, 2)
	assert.Equal(t, "path", params.Get("id"))
	assert.Equal(t, "2", params.Get("page"))
}

func TestParamsClone(t *testing.T) {
	params := Params{{Key: "id", Value: "42"}}
	cloned := params.Clone()
	cloned[0].Value = "other"

	assert.Equal(t, "42", params.Get("id"))
	assert.Equal(t, "other", cloned.Get("id"))
}

func TestParamsAll(t *testing.T) {
	params := Params{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "2"},
		{Key: "c", Value: "3"},
	}

	var keys []string
	for k, v := range params.All() {
		keys = append(keys, k+"="+v)
	}
	assert.Equal(t, []string{"a=1", "b=2", "c=3"}, keys)

	keys = keys[:0]
	for k := range params.All() {
		keys = append(keys, k)
		if k == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}
