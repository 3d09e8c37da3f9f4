// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestPrecompileAddress(t *testing.T) {
	require.Equal(t,
		common.HexToAddress("0x0000000000000000000000000000000000006240"),
		PrecompileAddress(FamilyBridge, ChainSlot("C"), ItemUserExecutor))
	require.Equal(t,
		common.HexToAddress("0x0000000000000000000000000000000000006541"),
		PrecompileAddress(FamilyBridge, ChainSlot("B"), ItemOperatorExecutor))
	require.Equal(t, common.Address{}, PrecompileAddress(16, 2, 0))
	require.Equal(t, common.Address{}, PrecompileAddress(FamilyBridge, ChainSlot("unknown"), 0))
}

func TestGetPrecompileAddress(t *testing.T) {
	require.Equal(t, common.HexToAddress(UserExecutorCChain), GetPrecompileAddress("USER_EXECUTOR", "C"))
	require.Equal(t, common.HexToAddress(OperatorExecutorBChain), GetPrecompileAddress("OPERATOR_EXECUTOR", "B"))
	require.Equal(t, common.Address{}, GetPrecompileAddress("USER_EXECUTOR", "Q"))
	require.Equal(t, common.Address{}, GetPrecompileAddress("MISSING", "C"))
}

func TestGetChainPrecompiles(t *testing.T) {
	require.Len(t, GetChainPrecompiles("C"), 2)
	require.Len(t, GetChainPrecompiles("B"), 2)
	require.Empty(t, GetChainPrecompiles("Z"))
}

func TestLookup(t *testing.T) {
	info, ok := Lookup(common.HexToAddress(OperatorExecutorCChain))
	require.True(t, ok)
	require.Equal(t, "OPERATOR_EXECUTOR", info.Name)
	require.Equal(t, "LP-6241", info.LPRange)

	_, ok = Lookup(common.HexToAddress("0x01"))
	require.False(t, ok)
}

func TestAddressesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range AllPrecompiles {
		require.False(t, seen[p.Address], "duplicate address %s", p.Address)
		seen[p.Address] = true
	}
}
