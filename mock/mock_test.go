// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mock

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/sim"
	"github.com/stretchr/testify/require"
)

var (
	alice  = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000a0001")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000b0002")
	router = common.HexToAddress("0x0000000000000000000000000000000000007700")
	amb    = common.HexToAddress("0x0000000000000000000000000000000000007a00")
	logger = common.HexToAddress("0x0000000000000000000000000000000000007b00")
	oracle = common.HexToAddress("0x0000000000000000000000000000000000007c00")
)

func pack(t testing.TB, a contract.ExtendedABI, method string, args ...interface{}) []byte {
	t.Helper()
	input, err := a.Pack(method, args...)
	require.NoError(t, err)
	return input
}

func send(t testing.TB, chain *sim.Chain, from, to common.Address, input []byte) {
	t.Helper()
	_, err := chain.Transact(from, to, input, nil)
	require.NoError(t, err)
}

func balanceOf(t testing.TB, chain *sim.Chain, token, owner common.Address) *big.Int {
	t.Helper()
	ret, err := chain.StaticCall(owner, token, pack(t, ERC20ABI, "balanceOf", owner))
	require.NoError(t, err)
	out, err := ERC20ABI.Unpack("balanceOf", ret)
	require.NoError(t, err)
	return out[0].(*big.Int)
}

func allowanceOf(t testing.TB, chain *sim.Chain, token, owner, spender common.Address) *big.Int {
	t.Helper()
	ret, err := chain.StaticCall(owner, token, pack(t, ERC20ABI, "allowance", owner, spender))
	require.NoError(t, err)
	out, err := ERC20ABI.Unpack("allowance", ret)
	require.NoError(t, err)
	return out[0].(*big.Int)
}

func newChain(t testing.TB) *sim.Chain {
	t.Helper()
	chain := sim.New()
	require.NoError(t, chain.Deploy(tokenA, NewERC20()))
	require.NoError(t, chain.Deploy(tokenB, NewERC20()))
	return chain
}

func TestERC20(t *testing.T) {
	require := require.New(t)
	chain := newChain(t)

	send(t, chain, alice, tokenA, pack(t, ERC20ABI, "mint", alice, big.NewInt(1000)))
	receipt, err := chain.Transact(alice, tokenA, pack(t, ERC20ABI, "transfer", bob, big.NewInt(400)), nil)
	require.NoError(err)
	require.Len(receipt.Logs, 1)
	require.Equal(ERC20ABI.Events["Transfer"].ID, receipt.Logs[0].Topics[0])

	require.Equal(big.NewInt(600), balanceOf(t, chain, tokenA, alice))
	require.Equal(big.NewInt(400), balanceOf(t, chain, tokenA, bob))

	before := chain.State().Digest()
	_, err = chain.Transact(alice, tokenA, pack(t, ERC20ABI, "transfer", bob, big.NewInt(601)), nil)
	require.ErrorIs(err, contract.ErrExecutionReverted)
	require.ErrorContains(err, "exceeds balance")
	// Only the sender nonce moved.
	chain.State().SetNonce(alice, chain.State().GetNonce(alice)-1, 0)
	require.Equal(before, chain.State().Digest())
}

func TestERC20Allowance(t *testing.T) {
	require := require.New(t)
	chain := newChain(t)
	send(t, chain, alice, tokenA, pack(t, ERC20ABI, "mint", alice, big.NewInt(1000)))

	send(t, chain, alice, tokenA, pack(t, ERC20ABI, "approve", bob, big.NewInt(300)))
	send(t, chain, bob, tokenA, pack(t, ERC20ABI, "transferFrom", alice, bob, big.NewInt(200)))
	require.Equal(big.NewInt(100), allowanceOf(t, chain, tokenA, alice, bob))

	_, err := chain.Transact(bob, tokenA, pack(t, ERC20ABI, "transferFrom", alice, bob, big.NewInt(101)), nil)
	require.ErrorContains(err, "insufficient allowance")

	send(t, chain, alice, tokenA, pack(t, ERC20ABI, "approve", bob, MaxUint256.ToBig()))
	send(t, chain, bob, tokenA, pack(t, ERC20ABI, "transferFrom", alice, bob, big.NewInt(500)))
	require.Equal(MaxUint256.ToBig(), allowanceOf(t, chain, tokenA, alice, bob))
	require.Equal(big.NewInt(700), balanceOf(t, chain, tokenA, bob))
}

func TestERC20ReadOnly(t *testing.T) {
	chain := newChain(t)
	_, err := chain.StaticCall(alice, tokenA, pack(t, ERC20ABI, "mint", alice, big.NewInt(1)))
	require.ErrorIs(t, err, contract.ErrWriteProtection)

	_, err = chain.StaticCall(alice, tokenA, []byte{0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func setupPool(t testing.TB, chain *sim.Chain, reserveA, reserveB int64) {
	t.Helper()
	require.NoError(t, chain.Deploy(router, NewRouter()))
	send(t, chain, alice, tokenA, pack(t, ERC20ABI, "mint", alice, big.NewInt(reserveA)))
	send(t, chain, alice, tokenB, pack(t, ERC20ABI, "mint", alice, big.NewInt(reserveB)))
	send(t, chain, alice, tokenA, pack(t, ERC20ABI, "approve", router, MaxUint256.ToBig()))
	send(t, chain, alice, tokenB, pack(t, ERC20ABI, "approve", router, MaxUint256.ToBig()))
	deadline := new(big.Int).SetUint64(chain.BlockTimestamp() + 60)
	send(t, chain, alice, router, pack(t, RouterABI, "addLiquidity",
		tokenA, tokenB, big.NewInt(reserveA), big.NewInt(reserveB), common.Big0, common.Big0, alice, deadline))
}

func TestRouterSwap(t *testing.T) {
	require := require.New(t)
	chain := newChain(t)
	setupPool(t, chain, 1_000_000, 2_000_000)

	path := []common.Address{tokenA, tokenB}
	ret, err := chain.StaticCall(bob, router, pack(t, RouterABI, "getAmountsOut", big.NewInt(1000), path))
	require.NoError(err)
	out, err := RouterABI.Unpack("getAmountsOut", ret)
	require.NoError(err)
	amounts := out[0].([]*big.Int)
	want := AmountOut(uint256.NewInt(1000), uint256.NewInt(1_000_000), uint256.NewInt(2_000_000))
	require.Equal(want.ToBig(), amounts[1])

	send(t, chain, alice, tokenA, pack(t, ERC20ABI, "mint", bob, big.NewInt(1000)))
	send(t, chain, bob, tokenA, pack(t, ERC20ABI, "approve", router, big.NewInt(1000)))
	deadline := new(big.Int).SetUint64(chain.BlockTimestamp())
	send(t, chain, bob, router, pack(t, RouterABI, "swapExactTokensForTokens",
		big.NewInt(1000), amounts[1], path, bob, deadline))

	require.Equal(amounts[1], balanceOf(t, chain, tokenB, bob))
	require.Zero(balanceOf(t, chain, tokenA, bob).Sign())

	ret, err = chain.StaticCall(bob, router, pack(t, RouterABI, "getReserves", tokenA, tokenB))
	require.NoError(err)
	out, err = RouterABI.Unpack("getReserves", ret)
	require.NoError(err)
	require.Equal(big.NewInt(1_001_000), out[0])
	require.Equal(new(big.Int).Sub(big.NewInt(2_000_000), amounts[1]), out[1])
}

func TestRouterSwapFailures(t *testing.T) {
	chain := newChain(t)
	setupPool(t, chain, 1_000_000, 1_000_000)
	send(t, chain, alice, tokenA, pack(t, ERC20ABI, "mint", bob, big.NewInt(1000)))
	send(t, chain, bob, tokenA, pack(t, ERC20ABI, "approve", router, big.NewInt(1000)))
	path := []common.Address{tokenA, tokenB}

	expired := new(big.Int).SetUint64(chain.BlockTimestamp() - 1)
	_, err := chain.Transact(bob, router, pack(t, RouterABI, "swapExactTokensForTokens",
		big.NewInt(1000), common.Big0, path, bob, expired), nil)
	require.ErrorContains(t, err, "expired")

	deadline := new(big.Int).SetUint64(chain.BlockTimestamp())
	_, err = chain.Transact(bob, router, pack(t, RouterABI, "swapExactTokensForTokens",
		big.NewInt(1000), big.NewInt(1000), path, bob, deadline), nil)
	require.ErrorContains(t, err, "insufficient output amount")

	_, err = chain.Transact(bob, router, pack(t, RouterABI, "swapExactTokensForTokens",
		big.NewInt(1001), common.Big0, path, bob, deadline), nil)
	require.ErrorContains(t, err, "insufficient allowance")
	require.Equal(t, big.NewInt(1000), balanceOf(t, chain, tokenA, bob))
}

func TestAMBArities(t *testing.T) {
	require := require.New(t)
	chain := newChain(t)
	require.NoError(chain.Deploy(amb, NewAMB(tokenA)))
	send(t, chain, alice, tokenA, pack(t, ERC20ABI, "mint", alice, big.NewInt(100)))
	send(t, chain, alice, tokenA, pack(t, ERC20ABI, "approve", amb, big.NewInt(100)))

	receipt, err := chain.Transact(alice, amb, pack(t, AMBABI, "relayTokens", bob, big.NewInt(30)), nil)
	require.NoError(err)
	last := receipt.Logs[len(receipt.Logs)-1]
	require.Equal(AMBABI.Events["TokensRelayed"].ID, last.Topics[0])
	require.Equal(common.BytesToHash(alice.Bytes()), last.Topics[1])

	receipt, err = chain.Transact(alice, amb, pack(t, AMBABI, "relayTokens0", logger, bob, big.NewInt(20)), nil)
	require.NoError(err)
	last = receipt.Logs[len(receipt.Logs)-1]
	require.Equal(common.BytesToHash(logger.Bytes()), last.Topics[1])

	require.Equal(big.NewInt(50), balanceOf(t, chain, tokenA, amb))
	ret, err := chain.StaticCall(bob, amb, pack(t, AMBABI, "relayed", bob))
	require.NoError(err)
	out, err := AMBABI.Unpack("relayed", ret)
	require.NoError(err)
	require.Equal(big.NewInt(50), out[0])

	_, err = chain.Transact(alice, amb, pack(t, AMBABI, "relayTokens", bob, big.NewInt(51)), nil)
	require.ErrorContains(err, "insufficient allowance")
}

func TestEventLoggerRoles(t *testing.T) {
	require := require.New(t)
	chain := newChain(t)
	require.NoError(chain.Deploy(logger, NewEventLogger(alice)))

	event := LogEvent{
		Values:    []*big.Int{big.NewInt(7)},
		Senders:   []common.Address{alice},
		Receivers: []common.Address{bob},
	}
	_, err := chain.Transact(bob, logger, pack(t, EventLoggerABI, "log", event), nil)
	require.ErrorContains(err, "missing role")

	_, err = chain.Transact(bob, logger, pack(t, EventLoggerABI, "grantRole", [32]byte(ManagerRole), bob), nil)
	require.ErrorContains(err, "missing the admin role")

	send(t, chain, alice, logger, pack(t, EventLoggerABI, "grantRole", [32]byte(ManagerRole), bob))
	ret, err := chain.StaticCall(bob, logger, pack(t, EventLoggerABI, "hasRole", [32]byte(ManagerRole), bob))
	require.NoError(err)
	out, err := EventLoggerABI.Unpack("hasRole", ret)
	require.NoError(err)
	require.Equal(true, out[0])

	receipt, err := chain.Transact(bob, logger, pack(t, EventLoggerABI, "log", event), nil)
	require.NoError(err)
	require.Len(receipt.Logs, 1)
	require.Equal(EventLoggerABI.Events["Logged"].ID, receipt.Logs[0].Topics[0])
}

func TestOracle(t *testing.T) {
	require := require.New(t)
	chain := newChain(t)
	require.NoError(chain.Deploy(oracle, NewOracle()))

	consult := pack(t, OracleABI, "consult", tokenA, big.NewInt(10))
	_, err := chain.StaticCall(bob, oracle, consult)
	require.ErrorContains(err, "no price")

	// 2.5 native units per token.
	send(t, chain, alice, oracle, pack(t, OracleABI, "setRate", tokenA, big.NewInt(2_500_000_000_000_000_000)))
	ret, err := chain.StaticCall(bob, oracle, consult)
	require.NoError(err)
	out, err := OracleABI.Unpack("consult", ret)
	require.NoError(err)
	require.Equal(big.NewInt(25), out[0])
}
