// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memstate

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Key prefixes of the persisted layout.
var (
	prefixAccount = []byte{'a'}
	prefixStorage = []byte{'s'}
)

var errCorruptEntry = errors.New("corrupt state entry")

// Commit writes the current state to [db], replacing any state previously
// committed there, and finalises the journal.
func (s *StateDB) Commit(db database.Database) error {
	batch := db.NewBatch()
	for _, prefix := range [][]byte{prefixAccount, prefixStorage} {
		it := db.NewIteratorWithPrefix(prefix)
		for it.Next() {
			if err := batch.Delete(bytes.Clone(it.Key())); err != nil {
				it.Release()
				return err
			}
		}
		err := it.Error()
		it.Release()
		if err != nil {
			return err
		}
	}

	for addr, acc := range s.accounts {
		if err := batch.Put(accountKey(addr), encodeAccount(acc)); err != nil {
			return err
		}
		for slot, value := range acc.storage {
			if err := batch.Put(storageKey(addr, slot), value.Bytes()); err != nil {
				return err
			}
		}
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("memstate: commit: %w", err)
	}
	s.Finalise()
	return nil
}

// Load reads a state previously written by Commit.
func Load(db database.Database) (*StateDB, error) {
	s := New()

	it := db.NewIteratorWithPrefix(prefixAccount)
	for it.Next() {
		key := it.Key()
		if len(key) != 1+common.AddressLength {
			it.Release()
			return nil, fmt.Errorf("%w: account key length %d", errCorruptEntry, len(key))
		}
		acc, err := decodeAccount(it.Value())
		if err != nil {
			it.Release()
			return nil, err
		}
		s.accounts[common.BytesToAddress(key[1:])] = acc
	}
	err := it.Error()
	it.Release()
	if err != nil {
		return nil, err
	}

	it = db.NewIteratorWithPrefix(prefixStorage)
	defer it.Release()
	for it.Next() {
		key := it.Key()
		if len(key) != 1+common.AddressLength+common.HashLength {
			return nil, fmt.Errorf("%w: storage key length %d", errCorruptEntry, len(key))
		}
		addr := common.BytesToAddress(key[1 : 1+common.AddressLength])
		acc, ok := s.accounts[addr]
		if !ok {
			return nil, fmt.Errorf("%w: storage for unknown account %s", errCorruptEntry, addr)
		}
		acc.storage[common.BytesToHash(key[1+common.AddressLength:])] = common.BytesToHash(it.Value())
	}
	return s, it.Error()
}

// Digest returns a BLAKE3 digest over every account and storage slot. Two
// states with the same digest hold the same balances, nonces and storage.
// The digest is not a consensus state root.
func (s *StateDB) Digest() common.Hash {
	addrs := make([]common.Address, 0, len(s.accounts))
	for addr, acc := range s.accounts {
		if acc.balance.IsZero() && acc.nonce == 0 && len(acc.storage) == 0 {
			continue
		}
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })

	h := blake3.New()
	for _, addr := range addrs {
		acc := s.accounts[addr]
		h.Write(addr.Bytes())
		h.Write(encodeAccount(acc))

		slots := make([]common.Hash, 0, len(acc.storage))
		for slot := range acc.storage {
			slots = append(slots, slot)
		}
		sort.Slice(slots, func(i, j int) bool { return bytes.Compare(slots[i][:], slots[j][:]) < 0 })
		for _, slot := range slots {
			value := acc.storage[slot]
			h.Write(slot.Bytes())
			h.Write(value.Bytes())
		}
	}
	var out common.Hash
	copy(out[:], h.Sum(nil))
	return out
}

func accountKey(addr common.Address) []byte {
	return append(bytes.Clone(prefixAccount), addr.Bytes()...)
}

func storageKey(addr common.Address, slot common.Hash) []byte {
	key := make([]byte, 0, 1+common.AddressLength+common.HashLength)
	key = append(key, prefixStorage...)
	key = append(key, addr.Bytes()...)
	return append(key, slot.Bytes()...)
}

// encodeAccount packs balance (32 bytes) and nonce (8 bytes).
func encodeAccount(acc *account) []byte {
	out := make([]byte, 40)
	balance := acc.balance.Bytes32()
	copy(out[:32], balance[:])
	binary.BigEndian.PutUint64(out[32:], acc.nonce)
	return out
}

func decodeAccount(b []byte) (*account, error) {
	if len(b) != 40 {
		return nil, fmt.Errorf("%w: account value length %d", errCorruptEntry, len(b))
	}
	acc := newAccount()
	acc.balance.SetBytes32(b[:32])
	acc.nonce = binary.BigEndian.Uint64(b[32:])
	return acc, nil
}
