// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package aggregation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatisticSetAbsorb(t *testing.T) {
	s := NewStatisticSet()
	require.True(t, s.IsEmpty())

	s.Absorb(5)
	s.Absorb(1)
	s.Absorb(9)
	s.Absorb(3)

	require.False(t, s.IsEmpty())
	require.Equal(t, int64(1), s.Min())
	require.Equal(t, int64(9), s.Max())
	require.Equal(t, int64(18), s.Sum())
	require.Equal(t, uint64(4), s.Count())
}

func TestStatisticSetReset(t *testing.T) {
	s := NewStatisticSet()
	s.Absorb(42)
	s.Reset()
	require.True(t, s.IsEmpty())
	require.Equal(t, int64(0), s.Min())
	require.Equal(t, int64(0), s.Max())
}
