// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func (m mem) IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

func TestBucketGetter(t *testing.T) {
	m := mem{"k1": "v1", "pk2": "v2"}

	tests := []struct {
		b    Bucket
		key  string
		want string
	}{
		{Bucket(""), "k1", "v1"},
		{Bucket("p"), "k2", "v2"},
	}
	for _, tt := range tests {
		got, err := tt.b.NewGetter(m).Get([]byte(tt.key))
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}

	g := Bucket("x").NewGetter(m)
	_, err := g.Get([]byte("k1"))
	assert.True(t, g.IsNotFound(err))

	has, err := Bucket("p").NewGetter(m).Has([]byte("k2"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestBucketPutter(t *testing.T) {
	m := mem{}
	p := Bucket("b").NewPutter(m)

	require.NoError(t, p.Put([]byte("k"), []byte("v")))
	assert.Equal(t, "v", m["bk"])

	require.NoError(t, p.Delete([]byte("k")))
	assert.Empty(t, m)
}
