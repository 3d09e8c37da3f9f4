// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fee

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/mock"
	"github.com/luxfi/multicall/sim"
	"github.com/stretchr/testify/require"
)

var (
	settingsAccount = common.HexToAddress("0x0000000000000000000000000000000000006240")
	oracleAddr      = common.HexToAddress("0x0000000000000000000000000000000000007c00")
	baseToken       = common.HexToAddress("0x00000000000000000000000000000000000a0001")
	receiver        = common.HexToAddress("0x000000000000000000000000000000000000fee0")
	admin           = common.HexToAddress("0x000000000000000000000000000000000000ad01")
)

const gas = 1_000_000

func newPolicy(t *testing.T) (*Policy, *sim.Chain) {
	t.Helper()
	chain := sim.New()
	require.NoError(t, chain.Deploy(oracleAddr, mock.NewOracle()))
	// 0.5 native units per base token.
	input, err := mock.OracleABI.Pack("setRate", baseToken, big.NewInt(500_000_000_000_000_000))
	require.NoError(t, err)
	_, err = chain.Transact(admin, oracleAddr, input, nil)
	require.NoError(t, err)
	return NewPolicy(contract.NewStorage(chain.State(), settingsAccount)), chain
}

func TestCalcFeeZeroSkipsOracle(t *testing.T) {
	require := require.New(t)
	policy, chain := newPolicy(t)

	// No oracle bound and no fee set.
	fee, left, err := policy.CalcFee(chain.Host(), gas)
	require.NoError(err)
	require.True(fee.IsZero())
	require.Equal(uint64(gas), left)

	// A zero fee never reaches a broken oracle either.
	require.NoError(policy.SetOracle(receiver, baseToken))
	fee, _, err = policy.CalcFee(chain.Host(), gas)
	require.NoError(err)
	require.True(fee.IsZero())
}

func TestCalcFeeFailsClosedWithoutOracle(t *testing.T) {
	policy, chain := newPolicy(t)
	require.NoError(t, policy.SetFee(uint256.NewInt(100), receiver))

	_, _, err := policy.CalcFee(chain.Host(), gas)
	require.ErrorIs(t, err, ErrOracleNotConfigured)
}

func TestCalcFeeQuotesThroughOracle(t *testing.T) {
	require := require.New(t)
	policy, chain := newPolicy(t)
	require.NoError(policy.SetFee(uint256.NewInt(100), receiver))
	require.NoError(policy.SetOracle(oracleAddr, baseToken))

	fee, left, err := policy.CalcFee(chain.Host(), gas)
	require.NoError(err)
	require.Equal(uint256.NewInt(50), fee)
	require.Less(left, uint64(gas))

	require.Equal(Config{BaseAmount: uint256.NewInt(100), Receiver: receiver}, policy.Config())
	require.Equal(OracleBinding{Oracle: oracleAddr, BaseToken: baseToken}, policy.OracleBinding())
}

func TestCalcFeeOracleFailures(t *testing.T) {
	tests := []struct {
		name   string
		oracle common.Address
		token  common.Address
		errMsg string
	}{
		{
			name:   "oracle reverts",
			oracle: oracleAddr,
			token:  receiver,
			errMsg: "no price",
		},
		{
			name:   "oracle has no code",
			oracle: receiver,
			token:  baseToken,
			errMsg: "malformed reply",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, chain := newPolicy(t)
			require.NoError(t, policy.SetFee(uint256.NewInt(100), receiver))
			require.NoError(t, policy.SetOracle(tt.oracle, tt.token))

			_, _, err := policy.CalcFee(chain.Host(), gas)
			require.ErrorIs(t, err, ErrOracleFailure)
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestPolicySetterValidation(t *testing.T) {
	require := require.New(t)
	policy, _ := newPolicy(t)

	require.ErrorIs(policy.SetFee(uint256.NewInt(1), common.Address{}), ErrMissingReceiver)
	require.NoError(policy.SetFee(new(uint256.Int), common.Address{}))
	require.NoError(policy.SetFee(nil, common.Address{}))
	require.True(policy.Config().BaseAmount.IsZero())

	require.ErrorIs(policy.SetOracle(oracleAddr, common.Address{}), ErrMissingBaseToken)
	require.NoError(policy.SetOracle(common.Address{}, common.Address{}))
	require.Equal(OracleBinding{}, policy.OracleBinding())
}
