// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, LevelCrit, FromLegacyLevel(0))
	assert.Equal(t, LevelError, FromLegacyLevel(1))
	assert.Equal(t, LevelWarn, FromLegacyLevel(2))
	assert.Equal(t, LevelInfo, FromLegacyLevel(3))
	assert.Equal(t, LevelDebug, FromLegacyLevel(4))
	assert.Equal(t, LevelTrace, FromLegacyLevel(9))
}

func TestWithContextFollowsDefault(t *testing.T) {
	logger := WithContext("pkg", "test")

	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(LevelInfo)
	SetDefault(NewTerminalHandlerWithLevel(&buf, &lvl, false))
	defer SetDefault(DiscardHandler())

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("rolled over", "amount", big.NewInt(42), "rpv", uint256.NewInt(7))
	out := buf.String()
	assert.Contains(t, out, "INFO ")
	assert.Contains(t, out, "rolled over")
	assert.Contains(t, out, "pkg=test")
	assert.Contains(t, out, "amount=42")
	assert.Contains(t, out, "rpv=7")
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(JSONHandler(&buf))
	defer SetDefault(DiscardHandler())

	WithContext("pkg", "json").With("id", uint64(3)).Warn("closed", "leftover", big.NewInt(1000))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "WARN ", m["lvl"])
	assert.Equal(t, "closed", m["msg"])
	assert.Equal(t, "json", m["pkg"])
	assert.Equal(t, "1000", m["leftover"])
	assert.EqualValues(t, 3, m["id"])
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, "plain", escapeString("plain"))
	assert.Equal(t, `"a b"`, escapeString("a b"))
	assert.Equal(t, `"k=v"`, escapeString("k=v"))
}
