// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package allowlist

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/memstate"
	"github.com/stretchr/testify/require"
)

var (
	settingsAccount = common.HexToAddress("0x0000000000000000000000000000000000006240")
	routerA         = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	routerB         = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	routerC         = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func TestSetAllowedRoutersReplacesSet(t *testing.T) {
	require := require.New(t)
	state := memstate.New()
	routers := NewRouters(contract.NewStorage(state, settingsAccount))

	require.Empty(routers.AllowedRouters())
	require.False(routers.IsAllowedRouter(routerA))

	require.NoError(routers.SetAllowedRouters([]common.Address{routerA, routerB, routerA}))
	require.Equal([]common.Address{routerA, routerB}, routers.AllowedRouters())
	require.True(routers.IsAllowedRouter(routerA))
	require.True(routers.IsAllowedRouter(routerB))

	require.NoError(routers.SetAllowedRouters([]common.Address{routerC}))
	require.Equal([]common.Address{routerC}, routers.AllowedRouters())
	require.False(routers.IsAllowedRouter(routerA))
	require.False(routers.IsAllowedRouter(routerB))
	require.True(routers.IsAllowedRouter(routerC))

	// Clearing the set leaves no storage behind.
	require.NoError(routers.SetAllowedRouters(nil))
	require.Empty(routers.AllowedRouters())
	require.False(routers.IsAllowedRouter(routerC))
	require.Equal(memstate.New().Digest(), state.Digest())
}

func TestSetAllowedRoutersValidation(t *testing.T) {
	require := require.New(t)
	routers := NewRouters(contract.NewStorage(memstate.New(), settingsAccount))
	require.NoError(routers.SetAllowedRouters([]common.Address{routerA}))

	err := routers.SetAllowedRouters([]common.Address{routerB, {}})
	require.ErrorIs(err, ErrZeroAddress)
	require.ErrorContains(err, "router 1")
	require.Equal([]common.Address{routerA}, routers.AllowedRouters())

	tooMany := make([]common.Address, MaxRouters+1)
	for i := range tooMany {
		tooMany[i] = common.BigToAddress(common.Big1)
		tooMany[i][0] = byte(i + 1)
	}
	require.ErrorIs(routers.SetAllowedRouters(tooMany), ErrTooManyRouters)
	require.NoError(routers.SetAllowedRouters(tooMany[:MaxRouters]))
	require.Len(routers.AllowedRouters(), MaxRouters)
}

func TestOperators(t *testing.T) {
	require := require.New(t)
	state := memstate.New()
	operators := NewOperators(contract.NewStorage(state, settingsAccount))
	op := common.HexToAddress("0x0000000000000000000000000000000000000abc")

	require.False(operators.IsOperator(op))
	require.NoError(operators.SetOperator(op, true))
	require.True(operators.IsOperator(op))
	require.False(operators.IsOperator(routerA))

	require.NoError(operators.SetOperator(op, false))
	require.False(operators.IsOperator(op))
	require.Equal(memstate.New().Digest(), state.Digest())

	require.ErrorIs(operators.SetOperator(common.Address{}, true), ErrZeroAddress)
}

func TestAllowlistsShareAccountWithoutCollisions(t *testing.T) {
	store := contract.NewStorage(memstate.New(), settingsAccount)
	routers := NewRouters(store)
	operators := NewOperators(store)

	require.NoError(t, routers.SetAllowedRouters([]common.Address{routerA}))
	require.False(t, operators.IsOperator(routerA))
	require.NoError(t, operators.SetOperator(routerB, true))
	require.False(t, routers.IsAllowedRouter(routerB))
}
