// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mock

import (
	"bytes"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
)

const routerABI = `[
	{"type":"function","name":"getAmountsOut","stateMutability":"view","inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"type":"function","name":"getReserves","stateMutability":"view","inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"outputs":[{"name":"reserveA","type":"uint256"},{"name":"reserveB","type":"uint256"}]},
	{"type":"function","name":"addLiquidity","stateMutability":"nonpayable","inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"amountADesired","type":"uint256"},{"name":"amountBDesired","type":"uint256"},{"name":"amountAMin","type":"uint256"},{"name":"amountBMin","type":"uint256"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amountA","type":"uint256"},{"name":"amountB","type":"uint256"},{"name":"liquidity","type":"uint256"}]},
	{"type":"function","name":"swapExactTokensForTokens","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

// RouterABI is the subset of the V2 router interface the mock serves.
var RouterABI = contract.ParseABI(routerABI)

var routerReservesSlot = contract.NamespaceSlot("mock.router.reserves")

// Fee numerator and denominator of the constant product curve (0.3%).
const (
	routerFeeNumerator   = 997
	routerFeeDenominator = 1000
)

// Router is a constant product AMM that keeps every pool's tokens in its own
// account. Pools are created by the first addLiquidity.
type Router struct {
	dispatcher
}

var _ contract.StatefulPrecompiledContract = (*Router)(nil)

func NewRouter() *Router {
	r := &Router{}
	r.dispatcher = dispatcher{
		abi: RouterABI,
		handlers: map[string]handler{
			"getAmountsOut":            r.getAmountsOut,
			"getReserves":              r.getReserves,
			"addLiquidity":             r.addLiquidity,
			"swapExactTokensForTokens": r.swapExactTokensForTokens,
		},
	}
	return r
}

func (r *Router) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	return r.run(accessibleState, caller, addr, input, suppliedGas, readOnly)
}

// reserveSlot addresses the reserve of [token] in the pool it shares with
// [other].
func reserveSlot(token, other common.Address) common.Hash {
	lo, hi := token, other
	if bytes.Compare(lo[:], hi[:]) > 0 {
		lo, hi = hi, lo
	}
	pool := contract.MappingSlot(contract.MappingSlot(routerReservesSlot, lo.Bytes()), hi.Bytes())
	return contract.MappingSlot(pool, token.Bytes())
}

func (r *Router) reserves(c *call, a, b common.Address) (*uint256.Int, *uint256.Int) {
	return c.store.Uint256(reserveSlot(a, b)), c.store.Uint256(reserveSlot(b, a))
}

// AmountOut applies the constant product formula with the 0.3% input fee.
func AmountOut(amountIn, reserveIn, reserveOut *uint256.Int) *uint256.Int {
	if amountIn.IsZero() || reserveIn.IsZero() || reserveOut.IsZero() {
		return new(uint256.Int)
	}
	inWithFee := new(uint256.Int).Mul(amountIn, uint256.NewInt(routerFeeNumerator))
	num := new(uint256.Int).Mul(inWithFee, reserveOut)
	den := new(uint256.Int).Mul(reserveIn, uint256.NewInt(routerFeeDenominator))
	den.Add(den, inWithFee)
	return num.Div(num, den)
}

func (r *Router) amountsOut(c *call, amountIn *uint256.Int, path []common.Address) ([]*uint256.Int, error) {
	if len(path) < 2 {
		return nil, revert("invalid path")
	}
	amounts := make([]*uint256.Int, len(path))
	amounts[0] = amountIn.Clone()
	for i := 0; i < len(path)-1; i++ {
		in, out := r.reserves(c, path[i], path[i+1])
		if in.IsZero() || out.IsZero() {
			return nil, revert("no liquidity for %s/%s", path[i], path[i+1])
		}
		amounts[i+1] = AmountOut(amounts[i], in, out)
	}
	return amounts, nil
}

func (r *Router) getAmountsOut(c *call, args []interface{}) ([]interface{}, error) {
	amounts, err := r.amountsOut(c, toUint256(args[0]), args[1].([]common.Address))
	if err != nil {
		return nil, err
	}
	return []interface{}{toBigs(amounts)}, nil
}

func (r *Router) getReserves(c *call, args []interface{}) ([]interface{}, error) {
	a, b := r.reserves(c, args[0].(common.Address), args[1].(common.Address))
	return []interface{}{a.ToBig(), b.ToBig()}, nil
}

func (r *Router) addLiquidity(c *call, args []interface{}) ([]interface{}, error) {
	tokenA, tokenB := args[0].(common.Address), args[1].(common.Address)
	amountA, amountB := toUint256(args[2]), toUint256(args[3])
	if err := r.checkDeadline(c, args[7]); err != nil {
		return nil, err
	}
	if tokenA == tokenB {
		return nil, revert("identical tokens")
	}
	if err := r.pull(c, tokenA, amountA); err != nil {
		return nil, err
	}
	if err := r.pull(c, tokenB, amountB); err != nil {
		return nil, err
	}
	resA, resB := r.reserves(c, tokenA, tokenB)
	c.store.SetUint256(reserveSlot(tokenA, tokenB), resA.Add(resA, amountA))
	c.store.SetUint256(reserveSlot(tokenB, tokenA), resB.Add(resB, amountB))

	liquidity := new(uint256.Int).Mul(amountA, amountB)
	liquidity.Sqrt(liquidity)
	return []interface{}{amountA.ToBig(), amountB.ToBig(), liquidity.ToBig()}, nil
}

func (r *Router) swapExactTokensForTokens(c *call, args []interface{}) ([]interface{}, error) {
	amountIn, amountOutMin := toUint256(args[0]), toUint256(args[1])
	path, to := args[2].([]common.Address), args[3].(common.Address)
	if err := r.checkDeadline(c, args[4]); err != nil {
		return nil, err
	}
	amounts, err := r.amountsOut(c, amountIn, path)
	if err != nil {
		return nil, err
	}
	out := amounts[len(amounts)-1]
	if out.Lt(amountOutMin) {
		return nil, revert("insufficient output amount: %s < %s", out, amountOutMin)
	}
	if err := r.pull(c, path[0], amountIn); err != nil {
		return nil, err
	}
	for i := 0; i < len(path)-1; i++ {
		in, outRes := r.reserves(c, path[i], path[i+1])
		c.store.SetUint256(reserveSlot(path[i], path[i+1]), in.Add(in, amounts[i]))
		c.store.SetUint256(reserveSlot(path[i+1], path[i]), outRes.Sub(outRes, amounts[i+1]))
	}
	transfer, err := ERC20ABI.Pack("transfer", to, out.ToBig())
	if err != nil {
		return nil, err
	}
	if _, err := c.invoke(path[len(path)-1], transfer); err != nil {
		return nil, err
	}
	return []interface{}{toBigs(amounts)}, nil
}

// pull moves [amount] of [token] from the caller into the router.
func (r *Router) pull(c *call, token common.Address, amount *uint256.Int) error {
	input, err := ERC20ABI.Pack("transferFrom", c.caller, c.self, amount.ToBig())
	if err != nil {
		return err
	}
	_, err = c.invoke(token, input)
	return err
}

func (r *Router) checkDeadline(c *call, deadline interface{}) error {
	now := new(big.Int).SetUint64(c.host.GetBlockContext().Timestamp())
	if deadline.(*big.Int).Cmp(now) < 0 {
		return revert("expired")
	}
	return nil
}

func toBigs(in []*uint256.Int) []*big.Int {
	out := make([]*big.Int, len(in))
	for i, v := range in {
		out[i] = v.ToBig()
	}
	return out
}
