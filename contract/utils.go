// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/luxfi/crypto"
)

// SelectorLen is the length of a function selector in bytes.
const SelectorLen = 4

var (
	ErrOutOfGas          = errors.New("out of gas")
	ErrWriteProtection   = errors.New("write protection")
	ErrExecutionReverted = errors.New("execution reverted")
)

var functionSignatureRegex = regexp.MustCompile(`^\w+\(([\w\[\]]*|([\w\[\]()]+,)*[\w\[\]()]+)\)$`)

// IsValidFunctionSignature reports whether [functionSignature] is a canonical
// signature such as "transfer(address,uint256)".
func IsValidFunctionSignature(functionSignature string) bool {
	return functionSignatureRegex.MatchString(functionSignature)
}

// CalculateFunctionSelector returns the 4 byte function selector that results from [functionSignature]
// Ex. transfer(address,uint256) => 0xa9059cbb
func CalculateFunctionSelector(functionSignature string) []byte {
	if !IsValidFunctionSignature(functionSignature) {
		panic(fmt.Errorf("invalid function signature: %q", functionSignature))
	}
	hash := crypto.Keccak256([]byte(functionSignature))
	return hash[:SelectorLen]
}

// DeductGas checks if [suppliedGas] is sufficient against [requiredGas] and deducts [requiredGas] from [suppliedGas].
func DeductGas(suppliedGas uint64, requiredGas uint64) (uint64, error) {
	if suppliedGas < requiredGas {
		return 0, ErrOutOfGas
	}
	return suppliedGas - requiredGas, nil
}
