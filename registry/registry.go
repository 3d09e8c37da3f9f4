// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry assigns addresses to the gateway precompiles.
package registry

import (
	"fmt"

	"github.com/luxfi/geth/common"
)

// ============================================================================
// GATEWAY ADDRESS SCHEME - Aligned with LP Numbering (LP-0099)
// ============================================================================
//
// Gateway precompiles live in the bridge family page and use trailing-significant
// 20-byte addresses:
//   Format: 0x0000000000000000000000000000000000PCII
//
//   P nibble = 6 (LP-6xxx, Bridges)
//   C nibble = chain slot (C=2 for the C-Chain, C=5 for the B-Chain)
//   II       = item; the gateway uses 0x40-0x4F
//
// Example: user executor on the C-Chain = P=6, C=2, II=0x40
//          Address = 0x0000000000000000000000000000000000006240 (LP-6240)

const (
	// Family page for bridge precompiles.
	FamilyBridge uint8 = 6

	// Items reserved for the gateway.
	ItemUserExecutor     uint8 = 0x40
	ItemOperatorExecutor uint8 = 0x41
)

var (
	UserExecutorCChain     = PrecompileAddress(FamilyBridge, ChainSlot("C"), ItemUserExecutor).Hex()
	OperatorExecutorCChain = PrecompileAddress(FamilyBridge, ChainSlot("C"), ItemOperatorExecutor).Hex()
	UserExecutorBChain     = PrecompileAddress(FamilyBridge, ChainSlot("B"), ItemUserExecutor).Hex()
	OperatorExecutorBChain = PrecompileAddress(FamilyBridge, ChainSlot("B"), ItemOperatorExecutor).Hex()
)

// PrecompileAddress calculates address from (P, C, II) nibbles
// P = Family page (aligned with LP-Pxxx), C = Chain slot, II = Item
// Returns trailing-significant format: 0x0000000000000000000000000000000000PCII
func PrecompileAddress(p, c, ii uint8) common.Address {
	if p > 15 || c > 15 {
		return common.Address{}
	}
	selector := fmt.Sprintf("%x%x%02x", p, c, ii)
	addr := "0000000000000000000000000000000000" + selector
	return common.HexToAddress("0x" + addr)
}

// ChainSlot returns the C-nibble for a chain name
func ChainSlot(chain string) uint8 {
	switch chain {
	case "C", "c":
		return 2
	case "B", "b":
		return 5
	default:
		return 0xFF
	}
}

// PrecompileInfo contains metadata about a precompile
type PrecompileInfo struct {
	Address     string
	Name        string
	Description string
	GasBase     uint64
	Chains      []string
	LPRange     string
}

// AllPrecompiles lists the gateway precompiles with their metadata
var AllPrecompiles = []PrecompileInfo{
	{UserExecutorCChain, "USER_EXECUTOR", "Scenario-gated batch execution", 30000, []string{"C"}, "LP-6240"},
	{OperatorExecutorCChain, "OPERATOR_EXECUTOR", "Operator relay batch execution", 25000, []string{"C"}, "LP-6241"},
	{UserExecutorBChain, "USER_EXECUTOR", "Scenario-gated batch execution", 30000, []string{"B"}, "LP-6540"},
	{OperatorExecutorBChain, "OPERATOR_EXECUTOR", "Operator relay batch execution", 25000, []string{"B"}, "LP-6541"},
}

// GetPrecompileAddress returns the address of precompile [name] on [chainLetter].
func GetPrecompileAddress(name string, chainLetter string) common.Address {
	for _, p := range AllPrecompiles {
		if p.Name != name {
			continue
		}
		for _, c := range p.Chains {
			if c == chainLetter {
				return common.HexToAddress(p.Address)
			}
		}
	}
	return common.Address{}
}

// GetChainPrecompiles returns all gateway precompile addresses for a chain
func GetChainPrecompiles(chainLetter string) []common.Address {
	var result []common.Address
	for _, p := range AllPrecompiles {
		for _, c := range p.Chains {
			if c == chainLetter {
				result = append(result, common.HexToAddress(p.Address))
			}
		}
	}
	return result
}

// Lookup returns the metadata of the precompile at [addr].
func Lookup(addr common.Address) (PrecompileInfo, bool) {
	for _, p := range AllPrecompiles {
		if common.HexToAddress(p.Address) == addr {
			return p, true
		}
	}
	return PrecompileInfo{}, false
}
