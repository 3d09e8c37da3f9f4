// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge binds the gateway to an external token relay and manages the
// allowance that lets the relay pull the mirror asset from the executor.
package bridge

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

// RelayArity selects which relayTokens shape a relay deployment exposes.
type RelayArity uint8

const (
	// RelayV1 is relayTokens(address receiver, uint256 amount). The relay
	// treats its caller as the sender.
	RelayV1 RelayArity = 1
	// RelayV2 is relayTokens(address sender, address receiver, uint256 amount).
	RelayV2 RelayArity = 2
)

var ErrUnknownArity = errors.New("unknown relay arity")

const relayABI = `[
	{"type":"function","name":"relayTokens","stateMutability":"nonpayable","inputs":[{"name":"receiver","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"relayTokens","stateMutability":"nonpayable","inputs":[{"name":"sender","type":"address"},{"name":"receiver","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

const erc20ApproveABI = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

var (
	// RelayABI holds both relayTokens shapes. The second overload is keyed
	// relayTokens0.
	RelayABI = contract.ParseABI(relayABI)

	erc20ABI = contract.ParseABI(erc20ApproveABI)
)

func (a RelayArity) Valid() bool {
	return a == RelayV1 || a == RelayV2
}

func (a RelayArity) String() string {
	switch a {
	case RelayV1:
		return "v1"
	case RelayV2:
		return "v2"
	default:
		return fmt.Sprintf("RelayArity(%d)", uint8(a))
	}
}

// method returns the ABI key of the relayTokens overload for [a].
func (a RelayArity) method() (string, error) {
	switch a {
	case RelayV1:
		return "relayTokens", nil
	case RelayV2:
		return "relayTokens0", nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownArity, uint8(a))
	}
}

// Selector returns the relayTokens selector for [a].
func (a RelayArity) Selector() ([]byte, error) {
	name, err := a.method()
	if err != nil {
		return nil, err
	}
	return RelayABI.Methods[name].ID, nil
}

// IsRelaySelector reports whether [sel] is either relayTokens overload.
func IsRelaySelector(sel [4]byte) bool {
	for _, a := range []RelayArity{RelayV1, RelayV2} {
		want, _ := a.Selector()
		if bytes.Equal(sel[:], want) {
			return true
		}
	}
	return false
}

// Binding is the relay the gateway hands the mirror asset to.
type Binding struct {
	Relay       common.Address
	MirrorAsset common.Address
	Arity       RelayArity
	// Approved is set while Relay holds an allowance over MirrorAsset.
	Approved bool
}

// Configured reports whether both ends of the binding are set.
func (b Binding) Configured() bool {
	return b.Relay != (common.Address{}) && b.MirrorAsset != (common.Address{}) && b.Arity.Valid()
}

// RelayCall encodes a relayTokens call in the bound arity. RelayV1 drops
// [sender].
func (b Binding) RelayCall(sender, receiver common.Address, amount *uint256.Int) ([]byte, error) {
	name, err := b.Arity.method()
	if err != nil {
		return nil, err
	}
	if b.Arity == RelayV1 {
		return RelayABI.Pack(name, receiver, amount.ToBig())
	}
	return RelayABI.Pack(name, sender, receiver, amount.ToBig())
}

func packApprove(spender common.Address, amount *uint256.Int) ([]byte, error) {
	return erc20ABI.Pack("approve", spender, amount.ToBig())
}
