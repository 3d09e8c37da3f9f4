// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sim hosts stateful precompiles on an in-memory chain. Calls between
// accounts follow EVM frame semantics: value moves before the callee runs and
// every frame is reverted when its callee fails.
package sim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
	log "github.com/luxfi/log"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/memstate"
	"github.com/luxfi/multicall/modules"
	"github.com/luxfi/multicall/precompileconfig"
)

const (
	// DefaultGasLimit is the gas supplied to every transaction.
	DefaultGasLimit uint64 = 30_000_000
	// MaxCallDepth bounds nested calls like the EVM call stack.
	MaxCallDepth = 1024
)

var (
	ErrDepth               = errors.New("max call depth exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	ErrAlreadyDeployed     = errors.New("contract already deployed")
	ErrNotActive           = errors.New("precompile config not active")
)

// Receipt is the outcome of a transaction.
type Receipt struct {
	TxHash  common.Hash
	Return  []byte
	GasUsed uint64
	Logs    []*ethtypes.Log
}

// Chain is a single-threaded execution environment for precompiles. Methods
// are safe for concurrent use; transactions are applied one at a time.
type Chain struct {
	mu sync.Mutex

	chainID   *big.Int
	state     *memstate.StateDB
	contracts map[common.Address]contract.StatefulPrecompiledContract
	block     *blockContext
	log       log.Logger
	// db receives the state after every applied transaction when set.
	db database.Database
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the logger used for deployments and reverted frames.
func WithLogger(logger log.Logger) Option {
	return func(c *Chain) { c.log = logger }
}

// WithState starts the chain from an existing state.
func WithState(state *memstate.StateDB) Option {
	return func(c *Chain) { c.state = state }
}

// WithChainID sets the chain id reported to precompile configs.
func WithChainID(id uint64) Option {
	return func(c *Chain) { c.chainID = new(big.Int).SetUint64(id) }
}

// New returns an empty chain at block 1.
func New(opts ...Option) *Chain {
	c := &Chain{
		chainID:   big.NewInt(96369),
		state:     memstate.New(),
		contracts: make(map[common.Address]contract.StatefulPrecompiledContract),
		block:     &blockContext{number: 1, timestamp: 1_700_000_000},
		log:       log.NewTestLogger(log.InfoLevel),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open returns a chain persisted in [db], resuming from the state last
// committed there. Contracts are Go values and are not persisted; callers
// deploy them again after reopening.
func Open(db database.Database, opts ...Option) (*Chain, error) {
	state, err := memstate.Load(db)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	c := New(append([]Option{WithState(state)}, opts...)...)
	c.db = db
	return c, nil
}

// persist commits the state to the chain's database, if any.
func (c *Chain) persist() error {
	if c.db == nil {
		return nil
	}
	if err := c.state.Commit(c.db); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// State returns the chain state. Callers must not mutate it while a
// transaction is running.
func (c *Chain) State() *memstate.StateDB {
	return c.state
}

// GetChainID implements precompileconfig.ChainConfig.
func (c *Chain) GetChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Deploy installs [precompile] at [addr].
func (c *Chain) Deploy(addr common.Address, precompile contract.StatefulPrecompiledContract) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deploy(addr, precompile)
}

func (c *Chain) deploy(addr common.Address, precompile contract.StatefulPrecompiledContract) error {
	if _, ok := c.contracts[addr]; ok {
		return fmt.Errorf("%w at %s", ErrAlreadyDeployed, addr)
	}
	c.contracts[addr] = precompile
	c.state.CreateAccount(addr)
	c.log.Debug("deployed contract", "address", addr)
	return nil
}

// Activate verifies [cfg], applies it to state through the module's
// configurator and deploys the module's contract. A failed activation leaves
// the state untouched.
func (c *Chain) Activate(module modules.Module, cfg precompileconfig.Config) error {
	if cfg.IsDisabled() {
		return fmt.Errorf("%w: %s is disabled", ErrNotActive, module.ConfigKey)
	}
	if ts := cfg.Timestamp(); ts != nil && *ts > c.BlockTimestamp() {
		return fmt.Errorf("%w: %s activates at %d", ErrNotActive, module.ConfigKey, *ts)
	}
	if err := cfg.Verify(c); err != nil {
		return fmt.Errorf("invalid %s config: %w", module.ConfigKey, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.contracts[module.Address]; ok {
		return fmt.Errorf("%w at %s", ErrAlreadyDeployed, module.Address)
	}
	snapshot := c.state.Snapshot()
	if err := module.Configure(c, cfg, c.state, c.block); err != nil {
		c.state.RevertToSnapshot(snapshot)
		return fmt.Errorf("configure %s: %w", module.ConfigKey, err)
	}
	if err := c.deploy(module.Address, module.Contract); err != nil {
		c.state.RevertToSnapshot(snapshot)
		return err
	}
	c.state.Finalise()
	c.log.Info("activated precompile", "key", module.ConfigKey, "address", module.Address)
	return c.persist()
}

// Fund mints [amount] of native currency to [addr].
func (c *Chain) Fund(addr common.Address, amount *uint256.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.AddBalance(addr, amount, tracing.BalanceIncreaseGenesisBalance)
	if err := c.persist(); err != nil {
		c.log.Error("fund not persisted", "address", addr, "err", err)
	}
}

// Balance returns the native balance of [addr].
func (c *Chain) Balance(addr common.Address) *uint256.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.GetBalance(addr)
}

// AdvanceTime moves to the next block, [seconds] later.
func (c *Chain) AdvanceTime(seconds uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block.number++
	c.block.timestamp += seconds
}

// BlockTimestamp returns the timestamp of the current block.
func (c *Chain) BlockTimestamp() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block.timestamp
}

// Host returns a top-level frame for driving components directly, outside a
// transaction. It must not be used concurrently with Transact.
func (c *Chain) Host() contract.AccessibleState {
	return &frame{chain: c, value: new(uint256.Int)}
}

// Transact executes [input] against [to] on behalf of [from], attaching
// [value]. A failed transaction leaves no state change besides the sender
// nonce.
func (c *Chain) Transact(from, to common.Address, input []byte, value *uint256.Int) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value == nil {
		value = new(uint256.Int)
	}
	nonce := c.state.GetNonce(from)
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	txHash := common.BytesToHash(crypto.Keccak256(from.Bytes(), nonceBytes[:]))
	c.state.SetTxContext(txHash)
	c.state.SetNonce(from, nonce+1, tracing.NonceChangeEoACall)

	ret, left, err := c.call(0, from, to, input, DefaultGasLimit, value, false)
	receipt := &Receipt{
		TxHash:  txHash,
		Return:  ret,
		GasUsed: DefaultGasLimit - left,
		Logs:    c.state.Logs(),
	}
	c.state.Finalise()
	if perr := c.persist(); perr != nil {
		return receipt, perr
	}
	if err != nil {
		c.log.Debug("transaction failed", "from", from, "to", to, "err", err)
		return receipt, err
	}
	return receipt, nil
}

// StaticCall executes a read-only call against [to] and returns its output.
func (c *Chain) StaticCall(from, to common.Address, input []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ret, _, err := c.call(0, from, to, input, DefaultGasLimit, new(uint256.Int), true)
	return ret, err
}

func (c *Chain) call(
	depth int,
	caller common.Address,
	addr common.Address,
	input []byte,
	gas uint64,
	value *uint256.Int,
	readOnly bool,
) ([]byte, uint64, error) {
	if depth > MaxCallDepth {
		return nil, gas, ErrDepth
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if readOnly && !value.IsZero() {
		return nil, gas, contract.ErrWriteProtection
	}

	snapshot := c.state.Snapshot()
	if !value.IsZero() {
		if c.state.GetBalance(caller).Lt(value) {
			return nil, gas, fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, caller, c.state.GetBalance(caller), value)
		}
		c.state.SubBalance(caller, value, tracing.BalanceChangeTransfer)
		c.state.AddBalance(addr, value, tracing.BalanceChangeTransfer)
	}

	precompile, ok := c.contracts[addr]
	if !ok {
		// Accounts without code accept any call.
		if !c.state.Exist(addr) {
			c.state.CreateAccount(addr)
		}
		return nil, gas, nil
	}

	f := &frame{chain: c, depth: depth, value: value}
	ret, left, err := precompile.Run(f, caller, addr, input, gas, readOnly)
	if err != nil {
		c.state.RevertToSnapshot(snapshot)
		c.log.Debug("call reverted", "caller", caller, "to", addr, "depth", depth, "err", err)
		return ret, left, err
	}
	return ret, left, nil
}

// frame is the AccessibleState handed to a running precompile.
type frame struct {
	chain *Chain
	depth int
	value *uint256.Int
}

var _ contract.AccessibleState = (*frame)(nil)

func (f *frame) GetStateDB() contract.StateDB           { return f.chain.state }
func (f *frame) GetBlockContext() contract.BlockContext { return f.chain.block }
func (f *frame) CallValue() *uint256.Int                { return f.value.Clone() }

func (f *frame) Call(
	caller common.Address,
	addr common.Address,
	input []byte,
	gas uint64,
	value *uint256.Int,
	readOnly bool,
) ([]byte, uint64, error) {
	return f.chain.call(f.depth+1, caller, addr, input, gas, value, readOnly)
}

type blockContext struct {
	number    uint64
	timestamp uint64
}

func (b *blockContext) Number() *big.Int  { return new(big.Int).SetUint64(b.number) }
func (b *blockContext) Timestamp() uint64 { return b.timestamp }
