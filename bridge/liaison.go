// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

var (
	ErrBridgeNotConfigured = errors.New("bridge not configured")
	ErrApproveFailed       = errors.New("mirror asset approve failed")
	ErrApprovalOutstanding = errors.New("relay approval outstanding")
)

var (
	bridgeRelaySlot    = contract.NamespaceSlot("multicall.bridge.relay")
	bridgeAssetSlot    = contract.NamespaceSlot("multicall.bridge.mirrorAsset")
	bridgeAritySlot    = contract.NamespaceSlot("multicall.bridge.arity")
	bridgeApprovedSlot = contract.NamespaceSlot("multicall.bridge.approved")
)

var maxUint256 = new(uint256.Int).SetAllOne()

// Liaison keeps the relay binding of the account owning its storage and
// grants the relay spending rights over that account's mirror asset.
// Callers authenticate the administrator before any mutation.
//
// Rebinding either end of an approved pair first revokes the old allowance,
// so at most one relay can pull the mirror asset at any time.
type Liaison struct {
	store contract.Storage
}

// NewLiaison returns the liaison kept in [store].
func NewLiaison(store contract.Storage) *Liaison {
	return &Liaison{store: store}
}

// Binding returns the current relay binding.
func (l *Liaison) Binding() Binding {
	return Binding{
		Relay:       l.store.Address(bridgeRelaySlot),
		MirrorAsset: l.store.Address(bridgeAssetSlot),
		Arity:       RelayArity(l.store.Uint64(bridgeAritySlot)),
		Approved:    l.store.Bool(bridgeApprovedSlot),
	}
}

// SetRelay binds [relay] with the given call shape. A zero relay unbinds.
func (l *Liaison) SetRelay(host contract.Caller, relay common.Address, arity RelayArity, gas uint64) (uint64, error) {
	if relay != (common.Address{}) && !arity.Valid() {
		return gas, fmt.Errorf("%w: %d", ErrUnknownArity, uint8(arity))
	}
	current := l.Binding()
	if current.Approved && current.Relay != relay {
		var err error
		if gas, err = l.revoke(host, current, gas); err != nil {
			return gas, err
		}
	}
	l.store.SetAddress(bridgeRelaySlot, relay)
	l.store.SetUint64(bridgeAritySlot, uint64(arity))
	return gas, nil
}

// SetMirrorAsset binds the asset the relay moves. A zero asset unbinds.
func (l *Liaison) SetMirrorAsset(host contract.Caller, asset common.Address, gas uint64) (uint64, error) {
	current := l.Binding()
	if current.Approved && current.MirrorAsset != asset {
		var err error
		if gas, err = l.revoke(host, current, gas); err != nil {
			return gas, err
		}
	}
	l.store.SetAddress(bridgeAssetSlot, asset)
	return gas, nil
}

// ApproveRelay grants the bound relay an unlimited allowance over the bound
// mirror asset. Repeating it leaves the same allowance in place.
func (l *Liaison) ApproveRelay(host contract.Caller, gas uint64) (uint64, error) {
	b := l.Binding()
	if !b.Configured() {
		return gas, fmt.Errorf("%w: relay %s, mirror asset %s", ErrBridgeNotConfigured, b.Relay, b.MirrorAsset)
	}
	gas, err := l.approve(host, b.MirrorAsset, b.Relay, maxUint256, gas)
	if err != nil {
		return gas, err
	}
	l.store.SetBool(bridgeApprovedSlot, true)
	return gas, nil
}

// revoke withdraws the grant held by [b]. Without a host there is no way to
// call the asset, so the rebinding is refused.
func (l *Liaison) revoke(host contract.Caller, b Binding, gas uint64) (uint64, error) {
	if host == nil {
		return gas, fmt.Errorf("%w: %s holds an allowance over %s", ErrApprovalOutstanding, b.Relay, b.MirrorAsset)
	}
	gas, err := l.approve(host, b.MirrorAsset, b.Relay, new(uint256.Int), gas)
	if err != nil {
		return gas, fmt.Errorf("revoke %s: %w", b.Relay, err)
	}
	l.store.SetBool(bridgeApprovedSlot, false)
	return gas, nil
}

func (l *Liaison) approve(host contract.Caller, asset, spender common.Address, amount *uint256.Int, gas uint64) (uint64, error) {
	input, err := packApprove(spender, amount)
	if err != nil {
		return gas, err
	}
	_, gas, err = host.Call(l.store.Account(), asset, input, gas, nil, false)
	if err != nil {
		return gas, fmt.Errorf("%w: %s on %s: %w", ErrApproveFailed, spender, asset, err)
	}
	return gas, nil
}
