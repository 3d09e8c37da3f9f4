// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scenario

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

var ErrEmptyBatch = errors.New("empty batch")

// Payloader is anything that carries a call payload.
type Payloader interface {
	Payload() []byte
}

// Fingerprint hashes the ordered selectors of [ops]. Destinations, arguments
// and values do not contribute.
func Fingerprint[T Payloader](ops []T) (common.Hash, error) {
	return fingerprint(len(ops), func(i int) []byte { return ops[i].Payload() })
}

// FingerprintOfPayloads computes the same fingerprint from raw payloads, so a
// scenario can be registered before any batch is submitted.
func FingerprintOfPayloads(payloads [][]byte) (common.Hash, error) {
	return fingerprint(len(payloads), func(i int) []byte { return payloads[i] })
}

// FingerprintOfSelectors hashes an already extracted selector sequence.
func FingerprintOfSelectors(selectors []Selector) (common.Hash, error) {
	return fingerprint(len(selectors), func(i int) []byte { return selectors[i][:] })
}

func fingerprint(n int, payload func(i int) []byte) (common.Hash, error) {
	if n == 0 {
		return common.Hash{}, ErrEmptyBatch
	}
	packed := make([]byte, 0, n*contract.SelectorLen)
	for i := 0; i < n; i++ {
		sel, err := SelectorOf(payload(i))
		if err != nil {
			return common.Hash{}, fmt.Errorf("operation %d: %w", i, err)
		}
		packed = append(packed, sel[:]...)
	}
	return common.BytesToHash(crypto.Keccak256(packed)), nil
}
