// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scenario

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

// MaxLabelLength bounds the label stored with a scenario.
const MaxLabelLength = 256

var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrLabelTooLong    = errors.New("scenario label too long")
	ErrZeroFingerprint = errors.New("zero fingerprint")
)

var scenarioRecordsSlot = contract.NamespaceSlot("multicall.scenario.records")

const (
	flagRegistered byte = 1 << iota
	flagEnabled
)

// Scenario is an approved batch shape.
type Scenario struct {
	Fingerprint common.Hash
	Label       string
	Enabled     bool
}

// Registry maps fingerprints to scenarios. It does not authenticate callers;
// the owning executor gates every mutation on its administrator.
type Registry struct {
	store contract.Storage
}

// NewRegistry returns a registry kept in [store].
func NewRegistry(store contract.Storage) *Registry {
	return &Registry{store: store}
}

func recordSlot(fp common.Hash) common.Hash {
	return contract.MappingSlot(scenarioRecordsSlot, fp.Bytes())
}

// Register inserts or overwrites the scenario for [fp] and enables it.
func (r *Registry) Register(fp common.Hash, label string) error {
	if fp == (common.Hash{}) {
		return ErrZeroFingerprint
	}
	if len(label) > MaxLabelLength {
		return fmt.Errorf("%w: %d > %d bytes", ErrLabelTooLong, len(label), MaxLabelLength)
	}
	base := recordSlot(fp)
	r.setFlags(base, flagRegistered|flagEnabled)
	r.store.SetBytes(contract.OffsetSlot(base, 1), []byte(label))
	return nil
}

// SetEnabled toggles a registered scenario without touching its label.
func (r *Registry) SetEnabled(fp common.Hash, enabled bool) error {
	base := recordSlot(fp)
	flags := r.flags(base)
	if flags&flagRegistered == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownScenario, fp)
	}
	if enabled {
		flags |= flagEnabled
	} else {
		flags &^= flagEnabled
	}
	r.setFlags(base, flags)
	return nil
}

// Lookup returns the scenario registered for [fp].
func (r *Registry) Lookup(fp common.Hash) (Scenario, bool) {
	base := recordSlot(fp)
	flags := r.flags(base)
	if flags&flagRegistered == 0 {
		return Scenario{}, false
	}
	return Scenario{
		Fingerprint: fp,
		Label:       string(r.store.Bytes(contract.OffsetSlot(base, 1))),
		Enabled:     flags&flagEnabled != 0,
	}, true
}

// IsEnabled reports whether [fp] is registered and enabled.
func (r *Registry) IsEnabled(fp common.Hash) bool {
	return r.flags(recordSlot(fp))&(flagRegistered|flagEnabled) == flagRegistered|flagEnabled
}

func (r *Registry) flags(base common.Hash) byte {
	return r.store.Get(base)[common.HashLength-1]
}

func (r *Registry) setFlags(base common.Hash, flags byte) {
	var word common.Hash
	word[common.HashLength-1] = flags
	r.store.Set(base, word)
}
