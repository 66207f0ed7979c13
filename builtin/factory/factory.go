// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package factory deploys bribe platforms and keeps their registry.
package factory

import (
	"github.com/vechain/votemarket/builtin/platform"
	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/builtin/solidity"
	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var logger = log.WithContext("pkg", "factory")

var (
	slotMeta       = thor.BytesToBytes32([]byte(("factory-meta")))
	slotPlatforms  = thor.BytesToBytes32([]byte(("platforms")))
	slotByGauge    = thor.BytesToBytes32([]byte(("platform-by-controller")))
	slotRecipients = thor.BytesToBytes32([]byte(("recipients")))
)

var (
	errNotDeployed     = reverts.New("factory: not deployed")
	errAlreadyDeployed = reverts.New("factory: already deployed")
	errUnauthorized    = reverts.New("factory: unauthorized")
	errZeroAddress     = reverts.New("factory: zero address")
	errPlatformExists  = reverts.New("factory: platform exists for controller")
	errUnknownPlatform = reverts.New("factory: unknown platform")
)

var _ platform.RecipientResolver = (*Factory)(nil)

type meta struct {
	Owner thor.Address
}

type (
	PlatformDeployedEvent struct {
		Platform        thor.Address `json:"platform"`
		GaugeController thor.Address `json:"gaugeController"`
	}
	PlatformKilledEvent struct {
		Platform thor.Address `json:"platform"`
	}
	RecipientSetEvent struct {
		User      thor.Address `json:"user"`
		Platform  thor.Address `json:"platform"`
		Recipient thor.Address `json:"recipient"`
	}
)

// Factory deploys one platform per gauge controller at a deterministic
// address, owns their kill switch and stores reward redirects of users.
type Factory struct {
	addr       thor.Address
	env        *xenv.Environment
	meta       *solidity.Raw[*meta]
	platforms  *solidity.Raw[[]thor.Address]
	byGauge    *solidity.Mapping[thor.Address, thor.Address]
	recipients *solidity.Mapping[thor.Bytes32, thor.Address]
}

func New(addr thor.Address, env *xenv.Environment) *Factory {
	sctx := solidity.NewContext(addr, env.State())
	return &Factory{
		addr:       addr,
		env:        env,
		meta:       solidity.NewRaw[*meta](sctx, slotMeta),
		platforms:  solidity.NewRaw[[]thor.Address](sctx, slotPlatforms),
		byGauge:    solidity.NewMapping[thor.Address, thor.Address](sctx, slotByGauge),
		recipients: solidity.NewMapping[thor.Bytes32, thor.Address](sctx, slotRecipients),
	}
}

func (f *Factory) Address() thor.Address {
	return f.addr
}

func (f *Factory) Deploy(owner thor.Address) error {
	m, err := f.meta.Get()
	if err != nil {
		return err
	}
	if m != nil && !m.Owner.IsZero() {
		return errAlreadyDeployed
	}
	if owner.IsZero() {
		return errZeroAddress
	}
	return f.meta.Set(&meta{Owner: owner})
}

func (f *Factory) Owner() (thor.Address, error) {
	m, err := f.meta.Get()
	if err != nil {
		return thor.Address{}, err
	}
	if m == nil || m.Owner.IsZero() {
		return thor.Address{}, errNotDeployed
	}
	return m.Owner, nil
}

func (f *Factory) onlyOwner(caller thor.Address) error {
	owner, err := f.Owner()
	if err != nil {
		return err
	}
	if caller != owner {
		return errUnauthorized
	}
	return nil
}

// PlatformAddress returns where the platform of gaugeController lives or will live.
func (f *Factory) PlatformAddress(gaugeController thor.Address) thor.Address {
	return PlatformAddressOf(f.addr, gaugeController)
}

// PlatformAddressOf derives the platform address from the deploying factory and the controller.
func PlatformAddressOf(factory, gaugeController thor.Address) thor.Address {
	return thor.CreateContractAddress(factory, thor.BytesToBytes32(gaugeController.Bytes()))
}

// DeployPlatform creates the platform bound to gaugeController.
func (f *Factory) DeployPlatform(caller, gaugeController thor.Address) (thor.Address, error) {
	if err := f.onlyOwner(caller); err != nil {
		return thor.Address{}, err
	}
	if gaugeController.IsZero() {
		return thor.Address{}, errZeroAddress
	}
	existing, err := f.byGauge.Get(gaugeController)
	if err != nil {
		return thor.Address{}, err
	}
	if !existing.IsZero() {
		return thor.Address{}, errPlatformExists
	}

	addr := f.PlatformAddress(gaugeController)
	if err := platform.New(addr, f.env, platform.Deps{}).Deploy(gaugeController, f.addr); err != nil {
		return thor.Address{}, err
	}
	if err := f.byGauge.Set(gaugeController, addr); err != nil {
		return thor.Address{}, err
	}
	list, err := f.platforms.Get()
	if err != nil {
		return thor.Address{}, err
	}
	if err := f.platforms.Set(append(list, addr)); err != nil {
		return thor.Address{}, err
	}
	logger.Info("platform deployed", "platform", addr, "controller", gaugeController)
	return addr, f.env.Log(f.addr, "PlatformDeployed",
		[]thor.Bytes32{thor.BytesToBytes32(addr.Bytes()), thor.BytesToBytes32(gaugeController.Bytes())},
		&PlatformDeployedEvent{Platform: addr, GaugeController: gaugeController})
}

// Platforms lists deployed platforms in deployment order.
func (f *Factory) Platforms() ([]thor.Address, error) {
	return f.platforms.Get()
}

// PlatformOf returns the platform of gaugeController, or the zero address.
func (f *Factory) PlatformOf(gaugeController thor.Address) (thor.Address, error) {
	return f.byGauge.Get(gaugeController)
}

func (f *Factory) IsPlatform(addr thor.Address) (bool, error) {
	if addr.IsZero() {
		return false, nil
	}
	p := platform.New(addr, f.env, platform.Deps{})
	factory, err := p.Factory()
	if err != nil {
		if reverts.IsRevertErr(err) {
			return false, nil
		}
		return false, err
	}
	return factory == f.addr, nil
}

// Kill shuts down a platform.
func (f *Factory) Kill(caller, platformAddr thor.Address) error {
	if err := f.onlyOwner(caller); err != nil {
		return err
	}
	ok, err := f.IsPlatform(platformAddr)
	if err != nil {
		return err
	}
	if !ok {
		return errUnknownPlatform
	}
	if err := platform.New(platformAddr, f.env, platform.Deps{}).Kill(f.addr); err != nil {
		return err
	}
	return f.env.Log(f.addr, "PlatformKilled", []thor.Bytes32{thor.BytesToBytes32(platformAddr.Bytes())},
		&PlatformKilledEvent{Platform: platformAddr})
}

func recipientKey(platformAddr, user thor.Address) thor.Bytes32 {
	return solidity.PairKey(platformAddr, user)
}

// SetRecipient redirects the rewards of user on platformAddr. A zero
// platformAddr sets the default for every platform, a zero recipient clears it.
func (f *Factory) SetRecipient(user, platformAddr, recipient thor.Address) error {
	if _, err := f.Owner(); err != nil {
		return err
	}
	if !platformAddr.IsZero() {
		ok, err := f.IsPlatform(platformAddr)
		if err != nil {
			return err
		}
		if !ok {
			return errUnknownPlatform
		}
	}
	key := recipientKey(platformAddr, user)
	if recipient.IsZero() {
		f.recipients.Delete(key)
	} else if err := f.recipients.Set(key, recipient); err != nil {
		return err
	}
	return f.env.Log(f.addr, "RecipientSet", []thor.Bytes32{thor.BytesToBytes32(user.Bytes())},
		&RecipientSetEvent{User: user, Platform: platformAddr, Recipient: recipient})
}

// RecipientOf returns the redirect of user on platformAddr, falling back to
// the user's default. Zero means no redirect.
func (f *Factory) RecipientOf(platformAddr, user thor.Address) (thor.Address, error) {
	r, err := f.recipients.Get(recipientKey(platformAddr, user))
	if err != nil {
		return thor.Address{}, err
	}
	if !r.IsZero() || platformAddr.IsZero() {
		return r, nil
	}
	return f.recipients.Get(recipientKey(thor.Address{}, user))
}
