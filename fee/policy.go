// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fee

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

var (
	ErrOracleNotConfigured = errors.New("oracle not configured")
	ErrMissingReceiver     = errors.New("fee receiver required for non-zero fee")
	ErrMissingBaseToken    = errors.New("base token required for oracle")
)

var (
	feeBaseAmountSlot   = contract.NamespaceSlot("multicall.fee.baseAmount")
	feeReceiverSlot     = contract.NamespaceSlot("multicall.fee.receiver")
	oracleAddressSlot   = contract.NamespaceSlot("multicall.oracle.address")
	oracleBaseTokenSlot = contract.NamespaceSlot("multicall.oracle.baseToken")
)

// Config is the fee charged per user batch, denominated in the oracle's base
// token.
type Config struct {
	BaseAmount *uint256.Int
	Receiver   common.Address
}

// OracleBinding names the oracle and the token BaseAmount is quoted in.
type OracleBinding struct {
	Oracle    common.Address
	BaseToken common.Address
}

// Policy holds the fee configuration and computes the payment due. Callers
// authenticate the administrator before any setter.
type Policy struct {
	store   contract.Storage
	adapter *OracleAdapter
}

// NewPolicy returns the policy kept in [store], consulting oracles as the
// owner of [store].
func NewPolicy(store contract.Storage) *Policy {
	return &Policy{
		store:   store,
		adapter: NewOracleAdapter(store.Account()),
	}
}

// SetOracle binds the oracle. A zero oracle removes the binding.
func (p *Policy) SetOracle(oracle, baseToken common.Address) error {
	if oracle != (common.Address{}) && baseToken == (common.Address{}) {
		return ErrMissingBaseToken
	}
	p.store.SetAddress(oracleAddressSlot, oracle)
	p.store.SetAddress(oracleBaseTokenSlot, baseToken)
	return nil
}

// SetFee sets the base amount charged and who receives it.
func (p *Policy) SetFee(baseAmount *uint256.Int, receiver common.Address) error {
	if baseAmount == nil {
		baseAmount = new(uint256.Int)
	}
	if !baseAmount.IsZero() && receiver == (common.Address{}) {
		return ErrMissingReceiver
	}
	p.store.SetUint256(feeBaseAmountSlot, baseAmount)
	p.store.SetAddress(feeReceiverSlot, receiver)
	return nil
}

// Config returns the current fee configuration.
func (p *Policy) Config() Config {
	return Config{
		BaseAmount: p.store.Uint256(feeBaseAmountSlot),
		Receiver:   p.store.Address(feeReceiverSlot),
	}
}

// OracleBinding returns the current oracle binding.
func (p *Policy) OracleBinding() OracleBinding {
	return OracleBinding{
		Oracle:    p.store.Address(oracleAddressSlot),
		BaseToken: p.store.Address(oracleBaseTokenSlot),
	}
}

// CalcFee returns the native-currency payment due for one batch. A zero base
// amount is free and never reaches the oracle; otherwise the oracle must be
// bound and must answer.
func (p *Policy) CalcFee(host contract.Caller, gas uint64) (*uint256.Int, uint64, error) {
	cfg := p.Config()
	if cfg.BaseAmount.IsZero() {
		return new(uint256.Int), gas, nil
	}
	binding := p.OracleBinding()
	if binding.Oracle == (common.Address{}) {
		return nil, gas, fmt.Errorf("%w: base amount %s", ErrOracleNotConfigured, cfg.BaseAmount)
	}
	return p.adapter.Consult(host, binding.Oracle, binding.BaseToken, cfg.BaseAmount, gas)
}
