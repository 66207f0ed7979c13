// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/thor"
)

// Executor runs calls. *runtime.Runtime implements it.
type Executor interface {
	Execute(origin thor.Address, call *builtin.Call) (*runtime.Receipt, error)
}

type call struct {
	caller thor.Address
	call   *builtin.Call
}

// Builder collects the calls that seed a fresh state.
type Builder struct {
	calls []call
	err   error
}

// Call adds a contract call made by caller. addr may be nil for singletons.
func (b *Builder) Call(caller thor.Address, contract string, addr *thor.Address, method string, args any) *Builder {
	if b.err != nil {
		return b
	}
	raw, err := json.Marshal(args)
	if err != nil {
		b.err = errors.Wrapf(err, "encode %s.%s", contract, method)
		return b
	}
	b.calls = append(b.calls, call{caller, &builtin.Call{Contract: contract, Address: addr, Method: method, Args: raw}})
	return b
}

// Len returns the number of queued calls.
func (b *Builder) Len() int { return len(b.calls) }

// Build executes the calls in order and stops at the first failure.
func (b *Builder) Build(exec Executor) error {
	if b.err != nil {
		return b.err
	}
	for i, c := range b.calls {
		if _, err := exec.Execute(c.caller, c.call); err != nil {
			return errors.WithMessagef(err, "genesis call #%d %s.%s", i, c.call.Contract, c.call.Method)
		}
	}
	return nil
}
