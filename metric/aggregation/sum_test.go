// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package aggregation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSumEmptyUntilTouched(t *testing.T) {
	s := NewSum()
	require.True(t, s.IsEmpty())

	s.Absorb(0)
	require.False(t, s.IsEmpty(), "absorbing a zero-valued observation still counts as touched")
	require.Equal(t, int64(0), s.Value())
}

func TestSumRollover(t *testing.T) {
	s := NewSum()
	s.Absorb(3)
	s.Absorb(-1)
	require.Equal(t, int64(2), s.Value())

	got := s.Rollover()
	require.Equal(t, int64(2), got)
	require.True(t, s.IsEmpty())
	require.Equal(t, int64(0), s.Value())
}

func TestSumKind(t *testing.T) {
	require.Equal(t, KindSum, NewSum().Kind())
}
