// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsRevertErr(t *testing.T) {
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr("not an error"))
	assert.False(t, IsRevertErr(errors.New("plain")))
	assert.True(t, IsRevertErr(New("platform: unauthorized")))
	assert.True(t, IsRevertErr(errors.Wrap(Newf("bribe %d", 1), "claim")))
}

func TestBytes(t *testing.T) {
	data := New("no").Bytes()
	assert.Len(t, data, 4+32+32+32)
	assert.Equal(t, "08c379a0", hex.EncodeToString(data[:4]))
	assert.Equal(t, byte(0x20), data[4+31])
	assert.Equal(t, byte(2), data[4+63])
	assert.Equal(t, "no", string(data[4+64:4+66]))

	var nilErr *ErrRevert
	assert.Nil(t, nilErr.Bytes())
}
