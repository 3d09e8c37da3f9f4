// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package multicall

import (
	"github.com/luxfi/geth/common"
	"github.com/luxfi/multicall/contract"
	"github.com/luxfi/multicall/scenario"
)

// batch runs operations as one atomic unit on behalf of an executor.
type batch struct {
	host contract.AccessibleState
	// self is the executor; every operation is called with it as caller.
	self common.Address
	ops  []Operation
}

// run executes [prelude] and then every operation in order. The first
// failure reverts all state written since run began, the prelude's included.
func (b *batch) run(gas uint64, prelude func(gas uint64) (uint64, error)) (uint64, error) {
	stateDB := b.host.GetStateDB()
	snapshot := stateDB.Snapshot()

	if prelude != nil {
		var err error
		if gas, err = prelude(gas); err != nil {
			stateDB.RevertToSnapshot(snapshot)
			return gas, err
		}
	}
	for i, op := range b.ops {
		ret, left, err := b.host.Call(b.self, op.Dest, op.Data, gas, op.Value, false)
		gas = left
		if err != nil {
			stateDB.RevertToSnapshot(snapshot)
			sel, _ := scenario.SelectorOf(op.Data)
			return gas, &CallError{
				Index:      i,
				Dest:       op.Dest,
				Selector:   sel,
				Err:        err,
				ReturnData: ret,
			}
		}
	}
	return gas, nil
}
