// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestReservedAddress(t *testing.T) {
	tests := []struct {
		name     string
		addr     common.Address
		expected bool
	}{
		{"c-chain first gateway item", common.HexToAddress("0x0000000000000000000000000000000000006240"), true},
		{"c-chain last gateway item", common.HexToAddress("0x000000000000000000000000000000000000624f"), true},
		{"b-chain gateway item", common.HexToAddress("0x0000000000000000000000000000000000006541"), true},
		{"below range", common.HexToAddress("0x000000000000000000000000000000000000623f"), false},
		{"above range", common.HexToAddress("0x0000000000000000000000000000000000006250"), false},
		{"zero address", common.Address{}, false},
		{"blackhole", BlackholeAddr, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ReservedAddress(tt.addr))
		})
	}
}

func TestRegisterModule(t *testing.T) {
	saved := registeredModules
	t.Cleanup(func() { registeredModules = saved })
	registeredModules = make([]Module, 0)

	high := Module{ConfigKey: "high", Address: common.HexToAddress("0x000000000000000000000000000000000000654e")}
	low := Module{ConfigKey: "low", Address: common.HexToAddress("0x000000000000000000000000000000000000624e")}

	require.NoError(t, RegisterModule(high))
	require.NoError(t, RegisterModule(low))

	// sorted by address regardless of registration order
	registered := RegisteredModules()
	require.Len(t, registered, 2)
	require.Equal(t, "low", registered[0].ConfigKey)
	require.Equal(t, "high", registered[1].ConfigKey)

	err := RegisterModule(Module{ConfigKey: "low", Address: common.HexToAddress("0x000000000000000000000000000000000000624d")})
	require.ErrorContains(t, err, "name low already used")

	err = RegisterModule(Module{ConfigKey: "other", Address: low.Address})
	require.ErrorContains(t, err, "already used by a stateful precompile")

	err = RegisterModule(Module{ConfigKey: "outside", Address: common.HexToAddress("0x1234")})
	require.ErrorContains(t, err, "not in a reserved range")

	m, ok := GetPrecompileModule("high")
	require.True(t, ok)
	require.Equal(t, high.Address, m.Address)

	m, ok = GetPrecompileModuleByAddress(low.Address)
	require.True(t, ok)
	require.Equal(t, "low", m.ConfigKey)

	_, ok = GetPrecompileModule("missing")
	require.False(t, ok)
}
