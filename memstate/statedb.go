// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memstate implements an in-memory, journaled StateDB used to host the
// gateway precompiles outside of a full node.
package memstate

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/luxfi/multicall/contract"
)

var _ contract.StateDB = (*StateDB)(nil)

type account struct {
	balance *uint256.Int
	nonce   uint64
	storage map[common.Hash]common.Hash
}

func newAccount() *account {
	return &account{
		balance: new(uint256.Int),
		storage: make(map[common.Hash]common.Hash),
	}
}

type revision struct {
	id           int
	journalIndex int
}

// StateDB is an in-memory state with snapshot/revert support. Every mutation
// appends an undo entry to the journal; reverting to a snapshot replays the
// undo entries recorded after it in reverse order.
//
// StateDB is not safe for concurrent use.
type StateDB struct {
	accounts map[common.Address]*account
	logs     []*ethtypes.Log
	txHash   common.Hash

	journal        []func()
	validRevisions []revision
	nextRevisionID int
}

// New returns an empty state.
func New() *StateDB {
	return &StateDB{
		accounts: make(map[common.Address]*account),
	}
}

func (s *StateDB) getOrNewAccount(addr common.Address) *account {
	acc, ok := s.accounts[addr]
	if !ok {
		acc = newAccount()
		s.accounts[addr] = acc
		s.journal = append(s.journal, func() { delete(s.accounts, addr) })
	}
	return acc
}

func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	acc, ok := s.accounts[addr]
	if !ok {
		return common.Hash{}
	}
	return acc.storage[key]
}

func (s *StateDB) SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash {
	acc := s.getOrNewAccount(addr)
	prev, had := acc.storage[key]
	if value == (common.Hash{}) {
		delete(acc.storage, key)
	} else {
		acc.storage[key] = value
	}
	s.journal = append(s.journal, func() {
		if had {
			acc.storage[key] = prev
		} else {
			delete(acc.storage, key)
		}
	})
	return prev
}

func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	acc, ok := s.accounts[addr]
	if !ok {
		return new(uint256.Int)
	}
	return acc.balance.Clone()
}

func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	acc := s.getOrNewAccount(addr)
	prev := *acc.balance
	acc.balance = new(uint256.Int).Add(acc.balance, amount)
	s.journal = append(s.journal, func() { acc.balance = &prev })
	return prev
}

// SubBalance panics on underflow; callers check balances before moving value.
func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	acc := s.getOrNewAccount(addr)
	prev := *acc.balance
	if acc.balance.Lt(amount) {
		panic(fmt.Sprintf("memstate: balance underflow for %s: have %s, sub %s", addr, acc.balance, amount))
	}
	acc.balance = new(uint256.Int).Sub(acc.balance, amount)
	s.journal = append(s.journal, func() { acc.balance = &prev })
	return prev
}

func (s *StateDB) GetNonce(addr common.Address) uint64 {
	acc, ok := s.accounts[addr]
	if !ok {
		return 0
	}
	return acc.nonce
}

func (s *StateDB) SetNonce(addr common.Address, nonce uint64, _ tracing.NonceChangeReason) {
	acc := s.getOrNewAccount(addr)
	prev := acc.nonce
	acc.nonce = nonce
	s.journal = append(s.journal, func() { acc.nonce = prev })
}

func (s *StateDB) CreateAccount(addr common.Address) {
	s.getOrNewAccount(addr)
}

func (s *StateDB) Exist(addr common.Address) bool {
	_, ok := s.accounts[addr]
	return ok
}

func (s *StateDB) AddLog(log *ethtypes.Log) {
	log.TxHash = s.txHash
	log.Index = uint(len(s.logs))
	s.logs = append(s.logs, log)
	n := len(s.logs) - 1
	s.journal = append(s.journal, func() { s.logs = s.logs[:n] })
}

func (s *StateDB) Logs() []*ethtypes.Log {
	return s.logs
}

// SetTxContext sets the hash attached to logs emitted from now on and clears
// the logs of the previous transaction.
func (s *StateDB) SetTxContext(txHash common.Hash) {
	s.txHash = txHash
	s.logs = nil
}

func (s *StateDB) TxHash() common.Hash {
	return s.txHash
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionID
	s.nextRevisionID++
	s.validRevisions = append(s.validRevisions, revision{id: id, journalIndex: len(s.journal)})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	idx := -1
	for i := len(s.validRevisions) - 1; i >= 0; i-- {
		if s.validRevisions[i].id == revid {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	target := s.validRevisions[idx].journalIndex
	for i := len(s.journal) - 1; i >= target; i-- {
		s.journal[i]()
	}
	s.journal = s.journal[:target]
	s.validRevisions = s.validRevisions[:idx]
}

// Finalise drops the journal; earlier snapshots become unreachable.
func (s *StateDB) Finalise() {
	s.journal = nil
	s.validRevisions = s.validRevisions[:0]
}
