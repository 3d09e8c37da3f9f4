// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package multicall

import (
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/allowlist"
	"github.com/luxfi/multicall/bridge"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/fee"
	"github.com/luxfi/multicall/scenario"
)

var (
	adminSlot       = contract.NamespaceSlot("multicall.admin")
	eventLoggerSlot = contract.NamespaceSlot("multicall.eventLogger")
	latchSlot       = contract.NamespaceSlot("multicall.latch")
)

// Settings is the configuration shared by both executors. It lives in the
// storage of one account and is owned by a single administrator; every
// mutation through an executor is gated on RequireAdmin.
type Settings struct {
	store contract.Storage

	Scenarios *scenario.Registry
	Routers   *allowlist.Routers
	Operators *allowlist.Operators
	Fees      *fee.Policy
	Bridge    *bridge.Liaison
}

// NewSettings returns the settings kept in the storage of [account].
func NewSettings(db contract.StateDB, account common.Address) *Settings {
	store := contract.NewStorage(db, account)
	return &Settings{
		store:     store,
		Scenarios: scenario.NewRegistry(store),
		Routers:   allowlist.NewRouters(store),
		Operators: allowlist.NewOperators(store),
		Fees:      fee.NewPolicy(store),
		Bridge:    bridge.NewLiaison(store),
	}
}

// Account returns the account holding the settings.
func (s *Settings) Account() common.Address {
	return s.store.Account()
}

func (s *Settings) Admin() common.Address {
	return s.store.Address(adminSlot)
}

// RequireAdmin fails unless [caller] is the administrator. With no
// administrator set every caller is rejected.
func (s *Settings) RequireAdmin(caller common.Address) error {
	admin := s.Admin()
	if admin == (common.Address{}) || caller != admin {
		return fmt.Errorf("%w: %s is not admin", ErrUnauthorized, caller)
	}
	return nil
}

// SetAdmin replaces the administrator.
func (s *Settings) SetAdmin(admin common.Address) error {
	if admin == (common.Address{}) {
		return fmt.Errorf("%w: zero admin", ErrInvalidInput)
	}
	s.store.SetAddress(adminSlot, admin)
	return nil
}

func (s *Settings) EventLogger() common.Address {
	return s.store.Address(eventLoggerSlot)
}

// SetEventLogger records the logger batches report to. The logger grants
// its manager role to the executor on its own side.
func (s *Settings) SetEventLogger(logger common.Address) {
	s.store.SetAddress(eventLoggerSlot, logger)
}

// Locked reports whether a batch is running.
func (s *Settings) Locked() bool {
	return s.store.Bool(latchSlot)
}

// lock takes the latch for the duration of a batch. The returned release
// must run on every exit path.
func (s *Settings) lock() (func(), error) {
	if s.Locked() {
		return nil, ErrReentrantCall
	}
	s.store.SetBool(latchSlot, true)
	return func() { s.store.SetBool(latchSlot, false) }, nil
}
