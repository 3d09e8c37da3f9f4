// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scenario

// RouterKind classifies the V2 router entry points an operation may target.
type RouterKind int

const (
	RouterUnknown RouterKind = iota

	RouterAddLiquidity
	RouterAddLiquidityETH
	RouterRemoveLiquidity
	RouterRemoveLiquidityETH
	RouterRemoveLiquidityETHSupportingFeeOnTransferTokens
	RouterRemoveLiquidityWithPermit
	RouterRemoveLiquidityETHWithPermit
	RouterRemoveLiquidityETHWithPermitSupportingFeeOnTransferTokens

	RouterSwapExactETHForTokens
	RouterSwapETHForExactTokens
	RouterSwapExactTokensForETH
	RouterSwapTokensForExactETH
	RouterSwapExactTokensForTokens
	RouterSwapTokensForExactTokens
	RouterSwapExactETHForTokensSupportingFeeOnTransferTokens
	RouterSwapExactTokensForETHSupportingFeeOnTransferTokens
	RouterSwapExactTokensForTokensSupportingFeeOnTransferTokens
)

var routerSignatures = map[RouterKind]string{
	RouterAddLiquidity:       "addLiquidity(address,address,uint256,uint256,uint256,uint256,address,uint256)",
	RouterAddLiquidityETH:    "addLiquidityETH(address,uint256,uint256,uint256,address,uint256)",
	RouterRemoveLiquidity:    "removeLiquidity(address,address,uint256,uint256,uint256,address,uint256)",
	RouterRemoveLiquidityETH: "removeLiquidityETH(address,uint256,uint256,uint256,address,uint256)",
	RouterRemoveLiquidityETHSupportingFeeOnTransferTokens:           "removeLiquidityETHSupportingFeeOnTransferTokens(address,uint256,uint256,uint256,address,uint256)",
	RouterRemoveLiquidityWithPermit:                                 "removeLiquidityWithPermit(address,address,uint256,uint256,uint256,address,uint256,bool,uint8,bytes32,bytes32)",
	RouterRemoveLiquidityETHWithPermit:                              "removeLiquidityETHWithPermit(address,uint256,uint256,uint256,address,uint256,bool,uint8,bytes32,bytes32)",
	RouterRemoveLiquidityETHWithPermitSupportingFeeOnTransferTokens: "removeLiquidityETHWithPermitSupportingFeeOnTransferTokens(address,uint256,uint256,uint256,address,uint256,bool,uint8,bytes32,bytes32)",

	RouterSwapExactETHForTokens:                                 "swapExactETHForTokens(uint256,address[],address,uint256)",
	RouterSwapETHForExactTokens:                                 "swapETHForExactTokens(uint256,address[],address,uint256)",
	RouterSwapExactTokensForETH:                                 "swapExactTokensForETH(uint256,uint256,address[],address,uint256)",
	RouterSwapTokensForExactETH:                                 "swapTokensForExactETH(uint256,uint256,address[],address,uint256)",
	RouterSwapExactTokensForTokens:                              "swapExactTokensForTokens(uint256,uint256,address[],address,uint256)",
	RouterSwapTokensForExactTokens:                              "swapTokensForExactTokens(uint256,uint256,address[],address,uint256)",
	RouterSwapExactETHForTokensSupportingFeeOnTransferTokens:    "swapExactETHForTokensSupportingFeeOnTransferTokens(uint256,address[],address,uint256)",
	RouterSwapExactTokensForETHSupportingFeeOnTransferTokens:    "swapExactTokensForETHSupportingFeeOnTransferTokens(uint256,uint256,address[],address,uint256)",
	RouterSwapExactTokensForTokensSupportingFeeOnTransferTokens: "swapExactTokensForTokensSupportingFeeOnTransferTokens(uint256,uint256,address[],address,uint256)",
}

var selectorToRouterKind map[Selector]RouterKind

func init() {
	selectorToRouterKind = make(map[Selector]RouterKind, len(routerSignatures))
	for kind, sig := range routerSignatures {
		selectorToRouterKind[SelectorFromSignature(sig)] = kind
	}
}

// ClassifyRouterCall returns the router entry point addressed by [payload],
// or RouterUnknown.
func ClassifyRouterCall(payload []byte) RouterKind {
	sel, err := SelectorOf(payload)
	if err != nil {
		return RouterUnknown
	}
	return selectorToRouterKind[sel]
}

// IsRouterCall reports whether [payload] targets a V2 router entry point.
// Such operations move the executor's approved funds through the destination,
// so the destination must be an allowlisted router.
func IsRouterCall(payload []byte) bool {
	return ClassifyRouterCall(payload) != RouterUnknown
}

// IsSwap reports whether [kind] is one of the swap entry points.
func (k RouterKind) IsSwap() bool {
	return k >= RouterSwapExactETHForTokens
}

// Signature returns the canonical function signature for [k].
func (k RouterKind) Signature() string {
	return routerSignatures[k]
}
