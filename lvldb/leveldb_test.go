// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/kv"
)

func TestLevelDB(t *testing.T) {
	persistent, err := New(filepath.Join(t.TempDir(), "db"), Options{16, 16})
	require.NoError(t, err)
	defer persistent.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{persistent, mem} {
		require.NoError(t, db.Put([]byte("123"), []byte("456")))

		v, err := db.Get([]byte("123"))
		require.NoError(t, err)
		assert.Equal(t, []byte("456"), v)

		has, err := db.Has([]byte("abc"))
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, db.Delete([]byte("123")))
		_, err = db.Get([]byte("123"))
		assert.True(t, db.IsNotFound(err))
	}
}

func TestBulkAndIterate(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	store := kv.Bucket("s").NewStore(db)
	bulk := store.Bulk()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, bulk.Put([]byte(k), []byte(k+k)))
	}
	// other bucket must stay invisible
	require.NoError(t, db.Put([]byte("ta"), []byte("x")))

	_, err = store.Get([]byte("a"))
	assert.True(t, store.IsNotFound(err))

	require.NoError(t, bulk.Write())

	iter := store.Iterate(kv.Range{})
	defer iter.Release()
	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}
