// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/votemarket/thor"
)

var devAccounts []thor.Address

func init() {
	for i := 0; i < 10; i++ {
		h := thor.Keccak256([]byte(fmt.Sprintf("votemarket-dev-account-%d", i)))
		devAccounts = append(devAccounts, thor.BytesToAddress(h.Bytes()))
	}
}

// DevAccounts returns the well known accounts of dev networks. The first one owns everything.
func DevAccounts() []thor.Address {
	return append([]thor.Address(nil), devAccounts...)
}

// Well known addresses of the dev network.
var (
	DevRewardToken = thor.BytesToAddress([]byte("dev-reward-token"))
	DevGauges      = []thor.Address{
		thor.BytesToAddress([]byte("dev-gauge-0")),
		thor.BytesToAddress([]byte("dev-gauge-1")),
	}
)

func wad(n int64) *math.HexOrDecimal256 {
	v := new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
	return (*math.HexOrDecimal256)(v)
}

// DevGenesis is the dev network layout. Accounts 1 to 3 vote for gauge 0
// (account 3 splits with gauge 1) and account 0 funds a 7 period bribe of 700
// tokens on gauge 0. Account 9 receives a 5% platform fee.
func DevGenesis() *CustomGenesis {
	owner := devAccounts[0]
	gen := &CustomGenesis{
		Owner:    owner,
		Gauges:   DevGauges,
		Platform: true,
		VoteMarket: &VoteMarket{
			DaoFee: (*math.HexOrDecimal256)(big.NewInt(2e16)),
		},
		Fees: []Fee{{
			Market:     MarketPlatform,
			Recipients: []Recipient{{Address: devAccounts[9], Percent: (*math.HexOrDecimal256)(big.NewInt(5e16))}},
		}},
	}

	tok := Token{Address: DevRewardToken, Name: "Dev Reward", Symbol: "DRWD", Decimals: 18}
	for _, acc := range devAccounts {
		tok.Balances = append(tok.Balances, Balance{Address: acc, Amount: wad(1_000_000)})
	}
	gen.Tokens = []Token{tok}

	for i := 1; i <= 3; i++ {
		lock := Lock{Voter: devAccounts[i], Amount: wad(int64(i) * 1000), Weeks: 52}
		if i == 3 {
			lock.Votes = []Vote{{DevGauges[0], 5000}, {DevGauges[1], 5000}}
		} else {
			lock.Votes = []Vote{{DevGauges[0], thor.GaugeVotePowerBase}}
		}
		gen.Locks = append(gen.Locks, lock)
	}

	gen.Bribes = []Bribe{{
		Manager:           owner,
		Gauge:             DevGauges[0],
		RewardToken:       DevRewardToken,
		NumberOfPeriods:   7,
		MaxRewardPerVote:  wad(1000),
		TotalRewardAmount: wad(700),
		Upgradeable:       true,
	}}
	return gen
}

// NewDevnet queues the dev network calls.
func NewDevnet(launchTime uint64) *Builder {
	b, err := NewCustomNet(DevGenesis(), launchTime)
	if err != nil {
		panic(err)
	}
	return b
}
