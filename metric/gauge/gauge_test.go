// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package gauge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatisticSetObserveAndReset(t *testing.T) {
	g := NewStatisticSet()

	snap := g.Reset()
	require.True(t, snap.Empty, "untouched gauge resets empty")

	g.Observe(5)
	g.Observe(1)
	g.Observe(9)

	snap = g.Reset()
	require.False(t, snap.Empty)
	require.Equal(t, uint64(3), snap.Count)
	require.Equal(t, int64(15), snap.Sum)
	require.Equal(t, int64(1), snap.Min)
	require.Equal(t, int64(9), snap.Max)

	snap = g.Reset()
	require.True(t, snap.Empty, "reset clears the gauge back to empty")
}

func TestSumObserveAndReset(t *testing.T) {
	g := NewSum()

	snap := g.Reset()
	require.True(t, snap.Empty)

	g.Observe(3)
	g.Observe(-1)

	snap = g.Reset()
	require.False(t, snap.Empty)
	require.Equal(t, int64(2), snap.Value)

	snap = g.Reset()
	require.True(t, snap.Empty)
}
