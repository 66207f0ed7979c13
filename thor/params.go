// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"
)

// Constants of the reward accounting protocol.
const (
	Week uint64 = 7 * 24 * 60 * 60 // length of a period (epoch), in seconds.

	MinimumNumberOfPeriods uint8 = 2 // a bribe spans at least this many periods.

	VoteMarketClaimWindow uint64 = 4 // number of epochs a merkle claim stays open after the epoch ended.

	GaugeVoteDelay     uint64 = 10 * 24 * 60 * 60 // a voter can change a gauge vote once per delay.
	GaugeMaxLockTime   uint64 = 4 * 365 * 24 * 60 * 60
	GaugeVotePowerBase uint64 = 10000 // vote power is expressed in basis points.
)

// BaseUnit is the fixed point unit (WAD) used for rates and fee percentages.
var BaseUnit = big.NewInt(1e18)

// PeriodOf returns the start of the week that t falls into.
func PeriodOf(t uint64) uint64 {
	return t / Week * Week
}
