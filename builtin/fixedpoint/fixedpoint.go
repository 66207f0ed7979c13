// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fixedpoint implements checked uint256 arithmetic over *big.Int
// amounts, with 1e18 as the unit of fractions.
package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vechain/votemarket/builtin/reverts"
)

var (
	// Unit is the fixed point base, 1e18.
	Unit = uint256.NewInt(1e18)

	errOverflow  = reverts.New("arithmetic overflow")
	errUnderflow = reverts.New("arithmetic underflow")
	errDivZero   = reverts.New("division by zero")
)

func from(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, errUnderflow
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errOverflow
	}
	return u, nil
}

// MulDiv returns a*b/c rounded down, with a full 512-bit intermediate.
func MulDiv(a, b, c *big.Int) (*big.Int, error) {
	x, err := from(a)
	if err != nil {
		return nil, err
	}
	y, err := from(b)
	if err != nil {
		return nil, err
	}
	z, err := from(c)
	if err != nil {
		return nil, err
	}
	if z.IsZero() {
		return nil, errDivZero
	}
	r, overflow := new(uint256.Int).MulDivOverflow(x, y, z)
	if overflow {
		return nil, errOverflow
	}
	return r.ToBig(), nil
}

// MulWad returns a*b/1e18.
func MulWad(a, b *big.Int) (*big.Int, error) {
	return MulDiv(a, b, Unit.ToBig())
}

// DivWad returns a*1e18/b.
func DivWad(a, b *big.Int) (*big.Int, error) {
	return MulDiv(a, Unit.ToBig(), b)
}

// Mul returns a*b, reverting when the product exceeds 256 bits.
func Mul(a, b *big.Int) (*big.Int, error) {
	x, err := from(a)
	if err != nil {
		return nil, err
	}
	y, err := from(b)
	if err != nil {
		return nil, err
	}
	r, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, errOverflow
	}
	return r.ToBig(), nil
}

// Add returns a+b, reverting on 256-bit overflow.
func Add(a, b *big.Int) (*big.Int, error) {
	x, err := from(a)
	if err != nil {
		return nil, err
	}
	y, err := from(b)
	if err != nil {
		return nil, err
	}
	r, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, errOverflow
	}
	return r.ToBig(), nil
}

// Sub returns a-b, reverting when b > a.
func Sub(a, b *big.Int) (*big.Int, error) {
	x, err := from(a)
	if err != nil {
		return nil, err
	}
	y, err := from(b)
	if err != nil {
		return nil, err
	}
	r, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, errUnderflow
	}
	return r.ToBig(), nil
}

// SaturatingSub returns a-b, or zero when b > a.
func SaturatingSub(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(a, b)
}

// Min returns a copy of the smaller value.
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// IsZero reports whether v is nil or zero.
func IsZero(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}
