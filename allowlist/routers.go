// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package allowlist keeps the administrator-managed sets of routers a batch
// may swap through and of operators trusted to run unrestricted batches.
package allowlist

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

// MaxRouters bounds the size of the router set.
const MaxRouters = 64

var (
	ErrZeroAddress    = errors.New("zero address")
	ErrTooManyRouters = errors.New("too many routers")
)

// The router list is laid out like a Solidity dynamic array: length at the
// list slot, elements from keccak256(list slot).
var (
	routersLengthSlot  = contract.NamespaceSlot("multicall.routers.list")
	routersMemberSlot  = contract.NamespaceSlot("multicall.routers.member")
	routersElementSlot = common.BytesToHash(crypto.Keccak256(routersLengthSlot.Bytes()))
)

// Routers is the set of routers swap-shaped operations may target. The set
// is only ever replaced as a whole.
type Routers struct {
	store contract.Storage
}

// NewRouters returns the router set kept in [store].
func NewRouters(store contract.Storage) *Routers {
	return &Routers{store: store}
}

// SetAllowedRouters replaces the set with [routers]. Duplicates collapse to
// one entry and the input order is kept.
func (r *Routers) SetAllowedRouters(routers []common.Address) error {
	unique := make([]common.Address, 0, len(routers))
	seen := make(map[common.Address]struct{}, len(routers))
	for i, router := range routers {
		if router == (common.Address{}) {
			return fmt.Errorf("router %d: %w", i, ErrZeroAddress)
		}
		if _, ok := seen[router]; ok {
			continue
		}
		seen[router] = struct{}{}
		unique = append(unique, router)
	}
	if len(unique) > MaxRouters {
		return fmt.Errorf("%w: %d > %d", ErrTooManyRouters, len(unique), MaxRouters)
	}

	old := r.AllowedRouters()
	for i, router := range old {
		r.store.SetBool(contract.MappingSlot(routersMemberSlot, router.Bytes()), false)
		r.store.Set(contract.OffsetSlot(routersElementSlot, uint64(i)), common.Hash{})
	}
	for i, router := range unique {
		r.store.SetBool(contract.MappingSlot(routersMemberSlot, router.Bytes()), true)
		r.store.SetAddress(contract.OffsetSlot(routersElementSlot, uint64(i)), router)
	}
	r.store.SetUint64(routersLengthSlot, uint64(len(unique)))
	return nil
}

// AllowedRouters returns the routers in the order they were set.
func (r *Routers) AllowedRouters() []common.Address {
	n := r.store.Uint64(routersLengthSlot)
	out := make([]common.Address, 0, n)
	for i := uint64(0); i < n; i++ {
		out = append(out, r.store.Address(contract.OffsetSlot(routersElementSlot, i)))
	}
	return out
}

// IsAllowedRouter reports whether [router] is in the set.
func (r *Routers) IsAllowedRouter(router common.Address) bool {
	return r.store.Bool(contract.MappingSlot(routersMemberSlot, router.Bytes()))
}
