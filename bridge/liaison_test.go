// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/mock"
	"github.com/luxfi/multicall/sim"
	"github.com/stretchr/testify/require"
)

var (
	executor = common.HexToAddress("0x0000000000000000000000000000000000006240")
	minter   = common.HexToAddress("0x000000000000000000000000000000000000ad01")
	mirror   = common.HexToAddress("0x00000000000000000000000000000000000a0001")
	other    = common.HexToAddress("0x00000000000000000000000000000000000b0002")
	relayV1  = common.HexToAddress("0x0000000000000000000000000000000000007a01")
	relayV2  = common.HexToAddress("0x0000000000000000000000000000000000007a02")
	receiver = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

const gas = 1_000_000

func setup(t *testing.T) (*Liaison, *sim.Chain) {
	t.Helper()
	chain := sim.New()
	require.NoError(t, chain.Deploy(mirror, mock.NewERC20()))
	require.NoError(t, chain.Deploy(other, mock.NewERC20()))
	require.NoError(t, chain.Deploy(relayV1, mock.NewAMB(mirror)))
	require.NoError(t, chain.Deploy(relayV2, mock.NewAMB(mirror)))
	mint, err := mock.ERC20ABI.Pack("mint", executor, big.NewInt(1000))
	require.NoError(t, err)
	_, err = chain.Transact(minter, mirror, mint, nil)
	require.NoError(t, err)
	return NewLiaison(contract.NewStorage(chain.State(), executor)), chain
}

func allowance(t *testing.T, chain *sim.Chain, token, spender common.Address) *big.Int {
	t.Helper()
	input, err := mock.ERC20ABI.Pack("allowance", executor, spender)
	require.NoError(t, err)
	ret, err := chain.StaticCall(executor, token, input)
	require.NoError(t, err)
	out, err := mock.ERC20ABI.Unpack("allowance", ret)
	require.NoError(t, err)
	return out[0].(*big.Int)
}

func TestRelayCallShapes(t *testing.T) {
	require := require.New(t)
	amount := uint256.NewInt(42)

	v1, err := Binding{Arity: RelayV1}.RelayCall(executor, receiver, amount)
	require.NoError(err)
	want, err := mock.AMBABI.Pack("relayTokens", receiver, big.NewInt(42))
	require.NoError(err)
	require.Equal(want, v1)

	v2, err := Binding{Arity: RelayV2}.RelayCall(executor, receiver, amount)
	require.NoError(err)
	want, err = mock.AMBABI.Pack("relayTokens0", executor, receiver, big.NewInt(42))
	require.NoError(err)
	require.Equal(want, v2)

	sel, err := RelayV1.Selector()
	require.NoError(err)
	require.Equal(contract.CalculateFunctionSelector("relayTokens(address,uint256)"), sel)
	sel, err = RelayV2.Selector()
	require.NoError(err)
	require.Equal(contract.CalculateFunctionSelector("relayTokens(address,address,uint256)"), sel)

	require.True(IsRelaySelector([4]byte(sel)))
	v1sel, _ := RelayV1.Selector()
	require.True(IsRelaySelector([4]byte(v1sel)))
	transfer := contract.CalculateFunctionSelector("transfer(address,uint256)")
	require.False(IsRelaySelector([4]byte(transfer)))

	_, err = Binding{Arity: 3}.RelayCall(executor, receiver, amount)
	require.ErrorIs(err, ErrUnknownArity)
	require.Equal("RelayArity(3)", RelayArity(3).String())
	require.Equal("v2", RelayV2.String())
}

func TestApproveRelayRequiresBinding(t *testing.T) {
	require := require.New(t)
	liaison, chain := setup(t)

	_, err := liaison.ApproveRelay(chain.Host(), gas)
	require.ErrorIs(err, ErrBridgeNotConfigured)

	_, err = liaison.SetRelay(chain.Host(), relayV1, RelayV1, gas)
	require.NoError(err)
	_, err = liaison.ApproveRelay(chain.Host(), gas)
	require.ErrorIs(err, ErrBridgeNotConfigured)

	_, err = liaison.SetRelay(chain.Host(), relayV1, RelayArity(0), gas)
	require.ErrorIs(err, ErrUnknownArity)
}

func TestApproveRelayLetsRelayPull(t *testing.T) {
	require := require.New(t)
	liaison, chain := setup(t)
	host := chain.Host()

	_, err := liaison.SetRelay(host, relayV1, RelayV1, gas)
	require.NoError(err)
	_, err = liaison.SetMirrorAsset(host, mirror, gas)
	require.NoError(err)

	b := liaison.Binding()
	call, err := b.RelayCall(executor, receiver, uint256.NewInt(600))
	require.NoError(err)

	// Without the grant the relay cannot pull.
	_, _, err = host.Call(executor, relayV1, call, gas, nil, false)
	require.ErrorContains(err, "insufficient allowance")

	_, err = liaison.ApproveRelay(host, gas)
	require.NoError(err)
	_, err = liaison.ApproveRelay(host, gas)
	require.NoError(err)
	require.Equal(mock.MaxUint256.ToBig(), allowance(t, chain, mirror, relayV1))
	require.True(liaison.Binding().Approved)

	_, _, err = host.Call(executor, relayV1, call, gas, nil, false)
	require.NoError(err)

	// The unlimited grant is bounded by what the executor holds.
	_, _, err = host.Call(executor, relayV1, call, gas, nil, false)
	require.ErrorContains(err, "exceeds balance")
}

func TestRebindingRevokesOldAllowance(t *testing.T) {
	require := require.New(t)
	liaison, chain := setup(t)
	host := chain.Host()

	_, err := liaison.SetRelay(host, relayV1, RelayV1, gas)
	require.NoError(err)
	_, err = liaison.SetMirrorAsset(host, mirror, gas)
	require.NoError(err)
	_, err = liaison.ApproveRelay(host, gas)
	require.NoError(err)

	// Changing only the arity keeps the grant.
	_, err = liaison.SetRelay(host, relayV1, RelayV2, gas)
	require.NoError(err)
	require.True(liaison.Binding().Approved)

	_, err = liaison.SetRelay(host, relayV2, RelayV2, gas)
	require.NoError(err)
	require.Zero(allowance(t, chain, mirror, relayV1).Sign())
	require.Zero(allowance(t, chain, mirror, relayV2).Sign())
	require.Equal(Binding{Relay: relayV2, MirrorAsset: mirror, Arity: RelayV2}, liaison.Binding())

	_, err = liaison.ApproveRelay(host, gas)
	require.NoError(err)
	_, err = liaison.SetMirrorAsset(host, other, gas)
	require.NoError(err)
	require.Zero(allowance(t, chain, mirror, relayV2).Sign())
	require.False(liaison.Binding().Approved)

	_, err = liaison.ApproveRelay(host, gas)
	require.NoError(err)
	require.Equal(mock.MaxUint256.ToBig(), allowance(t, chain, other, relayV2))
}

func TestApproveRelayRejectedByAsset(t *testing.T) {
	require := require.New(t)
	liaison, chain := setup(t)
	host := chain.Host()

	_, err := liaison.SetRelay(host, relayV1, RelayV1, gas)
	require.NoError(err)
	_, err = liaison.SetMirrorAsset(host, relayV2, gas)
	require.NoError(err)

	// relayV2 is not a token, so the grant reaches a contract that rejects it.
	_, err = liaison.ApproveRelay(host, gas)
	require.ErrorIs(err, ErrApproveFailed)
	require.False(liaison.Binding().Approved)
}

func TestRebindingWithoutHostKeepsGrant(t *testing.T) {
	require := require.New(t)
	liaison, chain := setup(t)
	host := chain.Host()

	_, err := liaison.SetRelay(host, relayV1, RelayV1, gas)
	require.NoError(err)
	_, err = liaison.SetMirrorAsset(host, mirror, gas)
	require.NoError(err)
	_, err = liaison.ApproveRelay(host, gas)
	require.NoError(err)
	approved := liaison.Binding()

	_, err = liaison.SetRelay(nil, relayV2, RelayV2, gas)
	require.ErrorIs(err, ErrApprovalOutstanding)
	_, err = liaison.SetMirrorAsset(nil, other, gas)
	require.ErrorIs(err, ErrApprovalOutstanding)
	require.Equal(approved, liaison.Binding())
	require.Equal(mock.MaxUint256.ToBig(), allowance(t, chain, mirror, relayV1))

	// Rewriting the same pair needs no call.
	_, err = liaison.SetRelay(nil, relayV1, RelayV2, gas)
	require.NoError(err)
	_, err = liaison.SetMirrorAsset(nil, mirror, gas)
	require.NoError(err)
	require.True(liaison.Binding().Approved)
}
