// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrRevert aborts the running transaction. All state changes made by the
// transaction are discarded.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func Newf(format string, args ...any) *ErrRevert {
	return New(fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Bytes returns the message encoded as solidity Error(string) revert data.
func (e *ErrRevert) Bytes() []byte {
	if e == nil {
		return nil
	}
	msg := []byte(e.message)
	padded := (len(msg) + 31) / 32 * 32

	// selector + offset + length + data
	encoded := make([]byte, 4+32+32+padded)
	copy(encoded, []byte{0x08, 0xc3, 0x79, 0xa0})
	binary.BigEndian.PutUint64(encoded[4+24:], 32)
	binary.BigEndian.PutUint64(encoded[4+32+24:], uint64(len(msg)))
	copy(encoded[4+64:], msg)
	return encoded
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}
