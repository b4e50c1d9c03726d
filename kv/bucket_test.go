// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errNotFound = errors.New("not found")

type mem map[string]string

func (m mem) Get(k []byte) ([]byte, error) {
	if v, ok := m[string(k)]; ok {
		return []byte(v), nil
	}
	return nil, errNotFound
}

func (m mem) Has(k []byte) (bool, error) {
	_, ok := m[string(k)]
	return ok, nil
}

func (m mem) Put(k, v []byte) error {
	m[string(k)] = string(v)
	return nil
}

func (m mem) Delete(k []byte) error {
	delete(m, string(k))
	return nil
}

func (m mem) IsNotFound(err error) bool { return errors.Is(err, errNotFound) }

func TestBucketGetter(t *testing.T) {
	m := mem{"k1": "v1", "bk1": "bv1"}

	tests := []struct {
		b     Bucket
		key   string
		want  string
		found bool
	}{
		{Bucket(""), "k1", "v1", true},
		{Bucket("b"), "k1", "bv1", true},
		{Bucket("b"), "k2", "", false},
		{Bucket("x"), "k1", "", false},
	}
	for _, tt := range tests {
		g := tt.b.NewGetter(m)
		got, err := g.Get([]byte(tt.key))
		if !tt.found {
			assert.True(t, g.IsNotFound(err), "%s%s", tt.b, tt.key)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.want, string(got))

		has, _ := g.Has([]byte(tt.key))
		assert.True(t, has)
	}
}

func TestBucketPutter(t *testing.T) {
	m := mem{}
	p := Bucket("p").NewPutter(m)

	assert.NoError(t, p.Put([]byte("k"), []byte("v")))
	assert.Equal(t, mem{"pk": "v"}, m)

	assert.NoError(t, p.Delete([]byte("k")))
	assert.Empty(t, m)
}
