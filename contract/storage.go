// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// Storage is a typed view over the storage slots of a single account.
// Mapping slots follow the Solidity layout: keccak256(pad32(key) ++ base).
type Storage struct {
	db      StateDB
	account common.Address
}

// NewStorage returns a typed view over the storage of [account].
func NewStorage(db StateDB, account common.Address) Storage {
	return Storage{db: db, account: account}
}

// Account returns the address whose storage is viewed.
func (s Storage) Account() common.Address { return s.account }

// DB returns the underlying state.
func (s Storage) DB() StateDB { return s.db }

// NamespaceSlot derives a root slot from a human readable name.
func NamespaceSlot(name string) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(name)))
}

// MappingSlot returns the slot of [key] in the mapping rooted at [base].
func MappingSlot(base common.Hash, key []byte) common.Hash {
	return common.BytesToHash(crypto.Keccak256(common.LeftPadBytes(key, common.HashLength), base.Bytes()))
}

// OffsetSlot returns [base] + [offset] interpreted as a 256 bit integer.
func OffsetSlot(base common.Hash, offset uint64) common.Hash {
	v := new(uint256.Int).SetBytes32(base.Bytes())
	v.AddUint64(v, offset)
	return common.Hash(v.Bytes32())
}

func (s Storage) Get(slot common.Hash) common.Hash {
	return s.db.GetState(s.account, slot)
}

func (s Storage) Set(slot common.Hash, value common.Hash) {
	s.db.SetState(s.account, slot, value)
}

func (s Storage) Address(slot common.Hash) common.Address {
	return common.BytesToAddress(s.Get(slot).Bytes())
}

func (s Storage) SetAddress(slot common.Hash, addr common.Address) {
	s.Set(slot, common.BytesToHash(addr.Bytes()))
}

func (s Storage) Uint256(slot common.Hash) *uint256.Int {
	return new(uint256.Int).SetBytes32(s.Get(slot).Bytes())
}

func (s Storage) SetUint256(slot common.Hash, v *uint256.Int) {
	s.Set(slot, common.Hash(v.Bytes32()))
}

func (s Storage) Uint64(slot common.Hash) uint64 {
	return s.Uint256(slot).Uint64()
}

func (s Storage) SetUint64(slot common.Hash, v uint64) {
	s.SetUint256(slot, uint256.NewInt(v))
}

func (s Storage) Bool(slot common.Hash) bool {
	return s.Get(slot)[common.HashLength-1] != 0
}

func (s Storage) SetBool(slot common.Hash, v bool) {
	var val common.Hash
	if v {
		val[common.HashLength-1] = 1
	}
	s.Set(slot, val)
}

// Bytes reads a byte string written by SetBytes. The length lives at [slot]
// and the content in consecutive slots starting at keccak256(slot).
func (s Storage) Bytes(slot common.Hash) []byte {
	length := s.Uint64(slot)
	if length == 0 {
		return nil
	}
	out := make([]byte, 0, length)
	data := common.BytesToHash(crypto.Keccak256(slot.Bytes()))
	for i := uint64(0); uint64(len(out)) < length; i++ {
		word := s.Get(OffsetSlot(data, i))
		remaining := length - uint64(len(out))
		if remaining > common.HashLength {
			remaining = common.HashLength
		}
		out = append(out, word[:remaining]...)
	}
	return out
}

// SetBytes stores [b] at [slot], clearing any words left over from a longer
// previous value.
func (s Storage) SetBytes(slot common.Hash, b []byte) {
	prevWords := wordCount(s.Uint64(slot))
	data := common.BytesToHash(crypto.Keccak256(slot.Bytes()))
	words := wordCount(uint64(len(b)))
	for i := uint64(0); i < words; i++ {
		var word common.Hash
		copy(word[:], b[i*common.HashLength:])
		s.Set(OffsetSlot(data, i), word)
	}
	for i := words; i < prevWords; i++ {
		s.Set(OffsetSlot(data, i), common.Hash{})
	}
	s.SetUint64(slot, uint64(len(b)))
}

func wordCount(length uint64) uint64 {
	return (length + common.HashLength - 1) / common.HashLength
}
