// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package aggregator

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lux-metrics/goodmetrics/metric"
	"github.com/lux-metrics/goodmetrics/metric/aggregation"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestFoldBasicAggregation exercises scenario 1: two scopes under the same
// name and dimension set, each observing a measurement, fold into a single
// entry with an exact StatisticSet of both values.
func TestFoldBasicAggregation(t *testing.T) {
	cfg := metric.NewConfig()
	factory := metric.NewDefaultFactory(cfg, nil)
	a := New(factory, cfg, discardLogger())

	agg := metric.NewAggregatedMap()

	for _, v := range []int64{10, 20} {
		guard := factory.RecordScopeWithBehavior("request", metric.BehaviorSuppressTotalTime)
		guard.Dimension("route", "/health")
		guard.Measurement("latency", metric.Int64Observation(v))
		guard.Close()

		env := <-factory.Sink().Receive()
		a.fold(agg, env)
	}

	entries := agg.Drain()
	require.Len(t, entries, 1)
	require.Equal(t, "request", entries[0].MetricName)

	ss, ok := entries[0].Measurements["latency"].(*aggregation.StatisticSet)
	require.True(t, ok)
	require.Equal(t, uint64(2), ss.Count())
	require.Equal(t, int64(30), ss.Sum())
	require.Equal(t, int64(10), ss.Min())
	require.Equal(t, int64(20), ss.Max())
}

// TestFoldDistinctMeasurementNamesGetDistinctEntries covers invariant 4:
// within one entry, two distinct measurement names fold into two distinct
// inner aggregations, never merged together.
func TestFoldDistinctMeasurementNamesGetDistinctEntries(t *testing.T) {
	cfg := metric.NewConfig()
	factory := metric.NewDefaultFactory(cfg, nil)
	a := New(factory, cfg, discardLogger())
	agg := metric.NewAggregatedMap()

	guard := factory.RecordScopeWithBehavior("request", metric.BehaviorSuppressTotalTime)
	guard.Measurement("latency", metric.Int64Observation(5))
	guard.Sum("retries", 3)
	guard.Close()

	env := <-factory.Sink().Receive()
	a.fold(agg, env)

	entries := agg.Drain()
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Measurements, 2)
	require.Equal(t, aggregation.KindStatisticSet, entries[0].Measurements["latency"].Kind())
	require.Equal(t, aggregation.KindSum, entries[0].Measurements["retries"].Kind())
}

// TestFoldKindConflictDropsDatumPreservesExisting covers scenario 6: a
// measurement name first folded as an Observation, then a second scope
// reusing the same name as a Sum, must not corrupt the existing
// StatisticSet; the conflicting datum is dropped and logged.
func TestFoldKindConflictDropsDatumPreservesExisting(t *testing.T) {
	cfg := metric.NewConfig()
	factory := metric.NewDefaultFactory(cfg, nil)
	a := New(factory, cfg, discardLogger())
	agg := metric.NewAggregatedMap()

	first := factory.RecordScopeWithBehavior("request", metric.BehaviorSuppressTotalTime)
	first.Measurement("value", metric.Int64Observation(7))
	first.Close()
	a.fold(agg, <-factory.Sink().Receive())

	second := factory.RecordScopeWithBehavior("request", metric.BehaviorSuppressTotalTime)
	second.Sum("value", 99)
	second.Close()
	a.fold(agg, <-factory.Sink().Receive())

	entries := agg.Drain()
	require.Len(t, entries, 1)
	ss, ok := entries[0].Measurements["value"].(*aggregation.StatisticSet)
	require.True(t, ok, "the original StatisticSet must survive the kind conflict")
	require.Equal(t, uint64(1), ss.Count())
	require.Equal(t, int64(7), ss.Sum())
}

// TestFoldDistributionRespectsConfiguredMode verifies that Distribution
// measurements fold into whichever aggregation kind the Aggregator was
// configured with.
func TestFoldDistributionRespectsConfiguredMode(t *testing.T) {
	cfg := metric.NewConfig(metric.WithDistributionMode(metric.DistributionMode{
		Kind: metric.DistributionModeTDigest,
	}))
	factory := metric.NewDefaultFactory(cfg, nil)
	a := New(factory, cfg, discardLogger())
	agg := metric.NewAggregatedMap()

	guard := factory.RecordScopeWithBehavior("request", metric.BehaviorSuppressTotalTime)
	guard.Distribution("size", metric.Int64Distribution(100))
	guard.Close()
	a.fold(agg, <-factory.Sink().Receive())

	entries := agg.Drain()
	td, ok := entries[0].Measurements["size"].(*aggregation.TDigest)
	require.True(t, ok)
	require.Equal(t, uint64(1), td.Count())
}

// TestRunEmitsBatchOnCadence is an end-to-end smoke test: it starts Run
// with a short cadence, emits one scope, and waits for a batch to arrive
// at the downstream sink.
func TestRunEmitsBatchOnCadence(t *testing.T) {
	cfg := metric.NewConfig(metric.WithCadence(30*time.Millisecond), metric.WithPollInterval(time.Millisecond))
	factory := metric.NewDefaultFactory(cfg, nil)
	a := New(factory, cfg, discardLogger())

	batcher := metric.BatcherFunc(func(now time.Time, covered time.Duration, aggregated *metric.AggregatedMap) metric.Batch {
		return aggregated.Drain()
	})

	received := make(chan metric.Batch, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = a.Run(ctx, batcher, func(b metric.Batch) {
			received <- b
		})
	}()

	guard := factory.RecordScopeWithBehavior("request", metric.BehaviorSuppressTotalTime)
	guard.Measurement("latency", metric.Int64Observation(1))
	guard.Close()

	select {
	case batch := <-received:
		entries := batch.([]*metric.MetricEntry)
		require.NotEmpty(t, entries)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a batch")
	}
}
