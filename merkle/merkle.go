// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package merkle builds and verifies the vote trees published per epoch.
// Pairs are hashed in sorted order so proofs carry no position bits.
package merkle

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/votemarket/thor"
)

var errEmpty = errors.New("merkle: no leaves")

// Leaf hashes one vote record: keccak256(account ‖ epoch ‖ target ‖ weight)
// with epoch and weight as 32 byte big endian words.
func Leaf(account thor.Address, epoch uint64, target thor.Address, weight *big.Int) thor.Bytes32 {
	epochWord := thor.Uint64ToBytes32(epoch)
	return thor.Keccak256(
		account.Bytes(),
		epochWord.Bytes(),
		target.Bytes(),
		math.U256Bytes(new(big.Int).Set(weight)),
	)
}

func hashPair(a, b thor.Bytes32) thor.Bytes32 {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return thor.Keccak256(a[:], b[:])
}

// Tree keeps every layer, leaves first.
type Tree struct {
	layers [][]thor.Bytes32
}

// New builds a tree over leaves in the given order. An odd node is carried up unchanged.
func New(leaves []thor.Bytes32) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, errEmpty
	}
	layer := append([]thor.Bytes32(nil), leaves...)
	t := &Tree{layers: [][]thor.Bytes32{layer}}
	for len(layer) > 1 {
		next := make([]thor.Bytes32, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				next = append(next, layer[i])
			} else {
				next = append(next, hashPair(layer[i], layer[i+1]))
			}
		}
		t.layers = append(t.layers, next)
		layer = next
	}
	return t, nil
}

func (t *Tree) Root() thor.Bytes32 {
	return t.layers[len(t.layers)-1][0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.layers[0])
}

// Proof returns the sibling path of leaf i.
func (t *Tree) Proof(i int) ([]thor.Bytes32, error) {
	if i < 0 || i >= t.Len() {
		return nil, errors.Errorf("merkle: leaf index %d out of range", i)
	}
	var proof []thor.Bytes32
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := i ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		i /= 2
	}
	return proof, nil
}

// Verify reports whether proof links leaf to root.
func Verify(proof []thor.Bytes32, root, leaf thor.Bytes32) bool {
	h := leaf
	for _, p := range proof {
		h = hashPair(h, p)
	}
	return h == root
}
