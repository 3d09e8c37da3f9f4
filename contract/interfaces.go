// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the interfaces shared by the gateway precompiles and
// the host that executes them.
package contract

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/luxfi/multicall/precompileconfig"
)

// StatefulPrecompiledContract is the interface for executing a precompiled contract
type StatefulPrecompiledContract interface {
	// Run executes the precompiled contract.
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		suppliedGas uint64,
		readOnly bool,
	) (ret []byte, remainingGas uint64, err error)
}

// StateDB is the interface for accessing EVM state
type StateDB interface {
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash) common.Hash

	GetBalance(common.Address) *uint256.Int
	AddBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason) uint256.Int
	SubBalance(common.Address, *uint256.Int, tracing.BalanceChangeReason) uint256.Int

	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64, tracing.NonceChangeReason)

	CreateAccount(common.Address)
	Exist(common.Address) bool

	AddLog(*ethtypes.Log)
	Logs() []*ethtypes.Log

	TxHash() common.Hash

	Snapshot() int
	RevertToSnapshot(int)
}

// BlockContext defines an interface that provides information to a stateful precompile
// about the current block.
type BlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// ConfigurationBlockContext is the block context available while a precompile
// configuration is applied to state.
type ConfigurationBlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// AccessibleState defines the interface exposed to stateful precompile contracts.
//
// Call invokes another account from within a precompile. The host takes a
// snapshot before the callee runs and reverts to it when the callee fails, so a
// failed Call leaves no trace in StateDB. CallValue reports the native value
// attached to the frame currently executing.
type AccessibleState interface {
	Caller
	GetStateDB() StateDB
	GetBlockContext() BlockContext
	CallValue() *uint256.Int
}

// Caller invokes another account on behalf of a running precompile.
type Caller interface {
	Call(
		caller common.Address,
		addr common.Address,
		input []byte,
		gas uint64,
		value *uint256.Int,
		readOnly bool,
	) (ret []byte, leftOverGas uint64, err error)
}

// Configurator is implemented by every precompile module to produce and apply
// its configuration.
type Configurator interface {
	MakeConfig() precompileconfig.Config
	Configure(
		chainConfig precompileconfig.ChainConfig,
		precompileconfig precompileconfig.Config,
		state StateDB,
		blockContext ConfigurationBlockContext,
	) error
}
