// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package aggregation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func countNonZero(buckets []uint64) int {
	n := 0
	for _, c := range buckets {
		if c > 0 {
			n++
		}
	}
	return n
}

func sumBuckets(buckets []uint64) uint64 {
	var total uint64
	for _, c := range buckets {
		total += c
	}
	return total
}

func TestExponentialHistogramAbsorb(t *testing.T) {
	h := NewExponentialHistogram()
	require.True(t, h.IsEmpty())

	h.Absorb(0)
	h.Absorb(1.0)
	h.Absorb(-2.0)

	require.False(t, h.IsEmpty())
	require.Equal(t, uint64(1), h.ZeroCount())
	require.Equal(t, uint64(3), h.Count())
	require.Equal(t, 1, countNonZero(h.PositiveBuckets()))
	require.Equal(t, 1, countNonZero(h.NegativeBuckets()))
	require.Equal(t, float64(-2), h.Min())
	require.Equal(t, float64(1), h.Max())
}

func TestExponentialHistogramRescales(t *testing.T) {
	h := NewExponentialHistogramWithLimits(DefaultScale, 4)
	for i := 1; i <= 64; i++ {
		h.Absorb(float64(i))
	}
	require.LessOrEqual(t, countNonZero(h.PositiveBuckets()), 4)
	require.Less(t, h.Scale(), DefaultScale)
	require.Equal(t, uint64(64), sumBuckets(h.PositiveBuckets()))
}

func TestExponentialHistogramRescalesLargeValueIntoTopBucket(t *testing.T) {
	h := NewExponentialHistogramWithLimits(0, 8)
	h.Absorb(1e9)
	require.Equal(t, -2, h.Scale())
	require.Equal(t, uint64(1), h.PositiveBuckets()[7])
}

func TestExponentialHistogramReset(t *testing.T) {
	h := NewExponentialHistogram()
	h.Absorb(5)
	h.Reset()
	require.True(t, h.IsEmpty())
	require.Equal(t, KindExponentialHistogram, h.Kind())
	require.Equal(t, uint64(0), sumBuckets(h.PositiveBuckets()))
}
