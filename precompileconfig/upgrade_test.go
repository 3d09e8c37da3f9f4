// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package precompileconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func u64(v uint64) *uint64 { return &v }

func TestUpgradeEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Upgrade
		expected bool
	}{
		{"both unset", &Upgrade{}, &Upgrade{}, true},
		{"same timestamp", &Upgrade{BlockTimestamp: u64(5)}, &Upgrade{BlockTimestamp: u64(5)}, true},
		{"different timestamp", &Upgrade{BlockTimestamp: u64(5)}, &Upgrade{BlockTimestamp: u64(6)}, false},
		{"one unset", &Upgrade{BlockTimestamp: u64(5)}, &Upgrade{}, false},
		{"disable differs", &Upgrade{Disable: true}, &Upgrade{}, false},
		{"nil other", &Upgrade{}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.a.Equal(tt.b))
		})
	}
}

func TestUpgradeIsActivated(t *testing.T) {
	u := &Upgrade{}
	require.False(t, u.IsActivated(100))

	u.BlockTimestamp = u64(10)
	require.False(t, u.IsActivated(9))
	require.True(t, u.IsActivated(10))
	require.True(t, u.IsActivated(11))
	require.Equal(t, u64(10), u.Timestamp())
}
