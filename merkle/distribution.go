// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package merkle

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/votemarket/thor"
)

// Vote is the weight an account gave a target during an epoch.
type Vote struct {
	Account thor.Address          `json:"account"`
	Target  thor.Address          `json:"target"`
	Weight  *math.HexOrDecimal256 `json:"weight"`
}

// Distribution is the oracle input of one epoch.
type Distribution struct {
	Epoch uint64  `json:"epoch"`
	Votes []*Vote `json:"votes"`
}

// Claim is a vote with its proof.
type Claim struct {
	Vote
	Proof []thor.Bytes32 `json:"proof"`
}

// Output is what gets published for an epoch: the root, the totals per
// target, and a proof for every vote.
type Output struct {
	Epoch  uint64                                 `json:"epoch"`
	Root   thor.Bytes32                           `json:"root"`
	Totals map[thor.Address]*math.HexOrDecimal256 `json:"totals"`
	Claims []*Claim                               `json:"claims"`
}

// Build checks a distribution and derives its tree. Votes are sorted by
// target then account, so the same input always yields the same root.
// progress, when not nil, is called once per vote hashed.
func Build(d *Distribution, progress func()) (*Output, error) {
	if d.Epoch%thor.Week != 0 {
		return nil, errors.Errorf("epoch %d is not week aligned", d.Epoch)
	}
	votes := append([]*Vote(nil), d.Votes...)
	sort.Slice(votes, func(i, j int) bool {
		if c := bytes.Compare(votes[i].Target[:], votes[j].Target[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(votes[i].Account[:], votes[j].Account[:]) < 0
	})

	totals := make(map[thor.Address]*big.Int)
	leaves := make([]thor.Bytes32, 0, len(votes))
	for i, v := range votes {
		if v.Weight == nil || (*big.Int)(v.Weight).Sign() <= 0 {
			return nil, errors.Errorf("vote %d: weight must be positive", i)
		}
		if i > 0 && votes[i-1].Target == v.Target && votes[i-1].Account == v.Account {
			return nil, errors.Errorf("vote %d: duplicate account %v for target %v", i, v.Account, v.Target)
		}
		w := (*big.Int)(v.Weight)
		if totals[v.Target] == nil {
			totals[v.Target] = new(big.Int)
		}
		totals[v.Target].Add(totals[v.Target], w)
		leaves = append(leaves, Leaf(v.Account, d.Epoch, v.Target, w))
		if progress != nil {
			progress()
		}
	}

	tree, err := New(leaves)
	if err != nil {
		return nil, err
	}
	out := &Output{
		Epoch:  d.Epoch,
		Root:   tree.Root(),
		Totals: make(map[thor.Address]*math.HexOrDecimal256, len(totals)),
		Claims: make([]*Claim, len(votes)),
	}
	for target, total := range totals {
		out.Totals[target] = (*math.HexOrDecimal256)(total)
	}
	for i, v := range votes {
		proof, err := tree.Proof(i)
		if err != nil {
			return nil, err
		}
		out.Claims[i] = &Claim{Vote: *v, Proof: proof}
	}
	return out, nil
}
