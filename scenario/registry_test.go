// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scenario

import (
	"strings"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/memstate"
	"github.com/stretchr/testify/require"
)

var settingsAccount = common.HexToAddress("0x0000000000000000000000000000000000006240")

func newTestRegistry(t *testing.T) (*Registry, *memstate.StateDB) {
	t.Helper()
	state := memstate.New()
	return NewRegistry(contract.NewStorage(state, settingsAccount)), state
}

func TestRegistryLifecycle(t *testing.T) {
	require := require.New(t)
	reg, _ := newTestRegistry(t)

	fp, err := FingerprintOfPayloads([][]byte{call("approve(address,uint256)")})
	require.NoError(err)

	_, ok := reg.Lookup(fp)
	require.False(ok)
	require.False(reg.IsEnabled(fp))
	require.ErrorIs(reg.SetEnabled(fp, true), ErrUnknownScenario)

	require.NoError(reg.Register(fp, "ERC20_ERC20"))
	got, ok := reg.Lookup(fp)
	require.True(ok)
	require.Equal(Scenario{Fingerprint: fp, Label: "ERC20_ERC20", Enabled: true}, got)

	require.NoError(reg.SetEnabled(fp, false))
	got, ok = reg.Lookup(fp)
	require.True(ok)
	require.False(got.Enabled)
	require.Equal("ERC20_ERC20", got.Label)
	require.False(reg.IsEnabled(fp))

	// Re-registering a disabled scenario relabels and enables it.
	require.NoError(reg.Register(fp, "X"))
	got, ok = reg.Lookup(fp)
	require.True(ok)
	require.Equal(Scenario{Fingerprint: fp, Label: "X", Enabled: true}, got)
	require.True(reg.IsEnabled(fp))
}

func TestRegistryOverwriteShorterLabelClearsWords(t *testing.T) {
	require := require.New(t)
	reg, state := newTestRegistry(t)
	fp := common.HexToHash("0x01")

	require.NoError(reg.Register(fp, strings.Repeat("a", 100)))
	before := state.Digest()
	require.NoError(reg.Register(fp, "short"))
	require.NotEqual(before, state.Digest())

	got, _ := reg.Lookup(fp)
	require.Equal("short", got.Label)

	// Only the flag word, the length word and one data word remain.
	fresh, freshState := newTestRegistry(t)
	require.NoError(fresh.Register(fp, "short"))
	require.Equal(freshState.Digest(), state.Digest())
}

func TestRegistryValidation(t *testing.T) {
	reg, _ := newTestRegistry(t)

	require.ErrorIs(t, reg.Register(common.Hash{}, "zero"), ErrZeroFingerprint)
	require.ErrorIs(t, reg.Register(common.HexToHash("0x02"), strings.Repeat("x", MaxLabelLength+1)), ErrLabelTooLong)
	require.NoError(t, reg.Register(common.HexToHash("0x02"), strings.Repeat("x", MaxLabelLength)))
	require.NoError(t, reg.Register(common.HexToHash("0x03"), ""))

	got, ok := reg.Lookup(common.HexToHash("0x03"))
	require.True(t, ok)
	require.Empty(t, got.Label)
	require.True(t, got.Enabled)
}

func TestRegistryIsolatedByFingerprint(t *testing.T) {
	reg, _ := newTestRegistry(t)
	a, b := common.HexToHash("0x0a"), common.HexToHash("0x0b")

	require.NoError(t, reg.Register(a, "a"))
	require.NoError(t, reg.Register(b, "b"))
	require.NoError(t, reg.SetEnabled(a, false))

	require.False(t, reg.IsEnabled(a))
	require.True(t, reg.IsEnabled(b))
}
