// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompileconfig defines the configuration interfaces shared by the
// gateway precompile modules.
package precompileconfig

import "math/big"

// Config is the JSON configuration of a precompile module.
type Config interface {
	// Key returns the unique key of the module in json config files.
	Key() string
	// Timestamp returns the activation timestamp, nil when not scheduled.
	Timestamp() *uint64
	// IsDisabled reports whether this config disables the precompile.
	IsDisabled() bool
	// Equal reports whether [Config] is identical to this one.
	Equal(Config) bool
	// Verify checks that the config is internally consistent.
	Verify(ChainConfig) error
}

// ChainConfig exposes the chain parameters a precompile config may depend on.
type ChainConfig interface {
	GetChainID() *big.Int
}
