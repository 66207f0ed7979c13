// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package platform

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/thor"
)

type voterSeed struct {
	Slope    uint32
	LockWeek uint8
}

func TestConservation(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(1, 6)

	for round := range 20 {
		var (
			seeds []voterSeed
			price uint32
		)
		f.Fuzz(&seeds)
		f.Fuzz(&price)

		h := newHarness(t)
		voters := make([]thor.Address, len(seeds))
		for i, s := range seeds {
			voters[i] = thor.BytesToAddress([]byte{byte(round), byte(i), 'v'})
			h.ledger.votes[voters[i]] = &vote{
				slope: mul(big.NewInt(1e12), uint64(s.Slope)+1),
				end:   start + weeks(2+uint64(s.LockWeek%12)),
				last:  start - thor.Week,
			}
		}
		total := e18(1000)
		maxRpv := mul(big.NewInt(1e9), uint64(price)+1)
		id := h.createBribe(total, maxRpv, nil, false)

		paid := new(big.Int)
		for week := uint64(1); week <= 9; week++ {
			h.now = start + weeks(week) + 7
			for _, v := range voters {
				amount, err := h.platform(v).Claim(id)
				require.NoError(t, err)
				paid.Add(paid, amount)
				assert.Zero(t, amount.Cmp(h.balance(v)), "voter balance")
				// drain so the next balance check only sees this week
				if amount.Sign() > 0 {
					require.NoError(t, h.token(v).Transfer(v, dao, amount))
				}
			}
			claimed, err := h.platform(manager).AmountClaimed(id)
			require.NoError(t, err)
			require.True(t, claimed.Cmp(total) <= 0, "claimed %v over total, seeds %s", claimed, spew.Sdump(seeds))
		}

		require.NoError(t, h.platform(manager).CloseBribe(id))
		leftover := h.balance(manager)
		assert.Zero(t, total.Cmp(new(big.Int).Add(paid, leftover)), "seeds %s", spew.Sdump(seeds))
		assert.Zero(t, h.balance(platformAddr).Sign())
	}
}
