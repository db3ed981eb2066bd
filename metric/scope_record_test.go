// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScopeRecordLastWriteWins(t *testing.T) {
	rec := NewScopeRecord("test")
	rec.Dimension("a", "first")
	rec.Dimension("a", "second")
	rec.Measurement("v", Int64Observation(1))
	rec.Measurement("v", Int64Observation(2))

	_, dims, meas := rec.Drain()
	require.Len(t, dims, 1)
	require.Equal(t, "second", dims[0].Value)
	require.Len(t, meas, 1)
	require.Equal(t, int64(2), meas["v"].Observation().AsInt64())
}

func TestScopeRecordDimensionsSortedOnDrain(t *testing.T) {
	rec := NewScopeRecord("test")
	rec.Dimension("zebra", "z")
	rec.Dimension("alpha", "a")
	rec.Dimension("mid", "m")

	_, dims, _ := rec.Drain()
	require.Equal(t, []string{"alpha", "mid", "zebra"}, []string{dims[0].Name, dims[1].Name, dims[2].Name})
}

func TestScopeRecordRestartPreservesBehaviorBits(t *testing.T) {
	rec := NewScopeRecord("test")
	rec.addBehavior(BehaviorSuppress)
	rec.Dimension("a", "b")
	rec.Measurement("v", Int64Observation(1))

	before := rec.StartTime()
	time.Sleep(time.Millisecond)
	rec.Restart()

	require.True(t, rec.HasBehavior(BehaviorSuppress))
	require.True(t, rec.StartTime().After(before))

	_, dims, meas := rec.Drain()
	require.Empty(t, dims)
	require.Empty(t, meas)
}

func TestTimerRecordsElapsedDistribution(t *testing.T) {
	rec := NewScopeRecord("test")
	timer := rec.Time("elapsed")
	time.Sleep(2 * time.Millisecond)
	timer.Stop()
	timer.Stop() // idempotent

	_, _, meas := rec.Drain()
	m, ok := meas["elapsed"]
	require.True(t, ok)
	require.Equal(t, MeasurementDistribution, m.Kind())
	require.Greater(t, m.Distribution().Values()[0], int64(0))
}

func TestObservationTruncatesFloatTowardZero(t *testing.T) {
	require.Equal(t, int64(3), Float64Observation(3.9).AsInt64())
	require.Equal(t, int64(-3), Float64Observation(-3.9).AsInt64())
}
