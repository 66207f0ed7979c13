// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/genesis"
	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var launch = thor.PeriodOf(1_700_000_000) + 100

func newRuntime(t *testing.T) *runtime.Runtime {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	return runtime.New(stater, nil, func() uint64 { return launch })
}

func TestDevnet(t *testing.T) {
	rt := newRuntime(t)
	b := genesis.NewDevnet(launch)
	require.NoError(t, b.Build(rt))
	assert.Equal(t, uint64(b.Len()), rt.Revision())

	require.NoError(t, rt.View(thor.Address{}, func(env *xenv.Environment) error {
		p, err := builtin.Platform(genesis.PlatformAddress(), env)
		require.NoError(t, err)
		bribe, err := p.GetBribe(0)
		require.NoError(t, err)
		assert.Equal(t, genesis.DevGauges[0], bribe.Gauge)
		assert.Equal(t, uint8(7), bribe.NumberOfPeriods)

		fee, err := builtin.FeeRegistry.WithEnv(env).TotalFeePercent(
			thor.BytesToBytes32(builtin.GaugeController.Address.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, int64(5e16), fee.Int64())

		ok, err := builtin.GaugeController.WithEnv(env).IsGauge(genesis.DevGauges[1])
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	}))
}

func TestLoad(t *testing.T) {
	owner := genesis.DevAccounts()[0]
	path := filepath.Join(t.TempDir(), "solo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
owner: `+owner.String()+`
tokens:
  - address: "0x0000000000000000000000000000000000000abc"
    name: Reward
    symbol: RWD
    decimals: 18
    balances:
      - address: `+owner.String()+`
        amount: "1000000000000000000000"
gauges:
  - "0x0000000000000000000000000000000000000001"
platform: true
fees:
  - market: voteMarket
    recipients:
      - address: "0x0000000000000000000000000000000000000009"
        percent: "0x2386f26fc10000"
voteMarket:
  daoFee: "10000000000000000"
`), 0o600))

	gen, err := genesis.Load(path)
	require.NoError(t, err)
	assert.Equal(t, owner, gen.Owner)
	require.Len(t, gen.Tokens, 1)
	assert.Equal(t, 0, (*big.Int)(gen.Tokens[0].Balances[0].Amount).Cmp(new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))))
	assert.Equal(t, int64(1e16), (*big.Int)(gen.Fees[0].Recipients[0].Percent).Int64())

	rt := newRuntime(t)
	b, err := genesis.NewCustomNet(gen, launch)
	require.NoError(t, err)
	require.NoError(t, b.Build(rt))

	require.NoError(t, rt.View(thor.Address{}, func(env *xenv.Environment) error {
		fee, err := builtin.VoteMarket.WithEnv(env).DaoFee()
		require.NoError(t, err)
		assert.Equal(t, int64(1e16), fee.Int64())
		return nil
	}))
}

func TestValidate(t *testing.T) {
	_, err := genesis.NewCustomNet(&genesis.CustomGenesis{}, launch)
	assert.EqualError(t, err, "owner must be set")

	gen := genesis.DevGenesis()
	gen.Platform = false
	_, err = genesis.NewCustomNet(gen, launch)
	assert.EqualError(t, err, "bribes need the platform to be deployed")

	gen = genesis.DevGenesis()
	gen.Fees[0].Market = "nowhere"
	_, err = genesis.NewCustomNet(gen, launch)
	assert.Error(t, err)
}

func TestBuildStopsAtFailure(t *testing.T) {
	rt := newRuntime(t)
	b := new(genesis.Builder).
		Call(genesis.DevAccounts()[0], builtin.KindGauge, nil, "deploy", nil).
		Call(genesis.DevAccounts()[1], builtin.KindGauge, nil, "addGauge", map[string]any{"gauge": genesis.DevGauges[0]}).
		Call(genesis.DevAccounts()[0], builtin.KindGauge, nil, "addGauge", map[string]any{"gauge": genesis.DevGauges[0]})
	err := b.Build(rt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "genesis call #1 gauge.addGauge")
	assert.Equal(t, uint64(1), rt.Revision())
}
