// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/lux-metrics/goodmetrics/metric/aggregation"
	"github.com/lux-metrics/goodmetrics/metric/allocator"
	"github.com/lux-metrics/goodmetrics/metric/gauge"
	"github.com/lux-metrics/goodmetrics/metric/sink"
)

// ScopeEnvelope is a scope record plus its return-to-allocator guard,
// exactly what travels through the sink queue: the aggregator folds the
// record and is responsible for releasing the envelope back to its
// allocator once done, which is what makes pool recycling safe.
type ScopeEnvelope = *allocator.ReturningReference[ScopeRecord]

// Factory is the producer-facing facade: it holds an allocator, a sink, a
// default behavior bitset, a disabled flag, and an owned gauge registry.
// Cloning a Factory (via Clone) shares the allocator and sink but creates a
// fresh, empty gauge registry, so gauge ownership stays scoped to the
// instance it was created from.
type Factory struct {
	alloc  allocator.Allocator[ScopeRecord]
	sink   sink.Sink[ScopeEnvelope]
	gauges *gauge.Registry
	cfg    *Config
	logger *slog.Logger
}

// NewFactory assembles a Factory from caller-supplied collaborators. Most
// callers should prefer NewDefaultFactory, which wires a PooledAllocator
// and ChannelSink sized from cfg.
func NewFactory(alloc allocator.Allocator[ScopeRecord], snk sink.Sink[ScopeEnvelope], cfg *Config, logger *slog.Logger) *Factory {
	if cfg == nil {
		cfg = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{alloc: alloc, sink: snk, gauges: gauge.NewRegistry(), cfg: cfg, logger: logger}
}

// NewDefaultFactory wires a PooledAllocator (8 slots by convention,
// capacity split evenly from cfg.AllocatorCacheSize) and a ChannelSink
// sized from cfg.SinkCapacity.
func NewDefaultFactory(cfg *Config, logger *slog.Logger) *Factory {
	if cfg == nil {
		cfg = NewConfig()
	}
	perSlot := cfg.AllocatorCacheSize / allocator.DefaultSlotCount
	if perSlot < 1 {
		perSlot = 1
	}
	alloc := allocator.NewPooledAllocator(
		func() *ScopeRecord { return NewScopeRecord("") },
		(*ScopeRecord).Restart,
		allocator.DefaultSlotCount,
		perSlot,
	)
	snk := sink.NewChannelSink[ScopeEnvelope](cfg.SinkCapacity, logger)
	return NewFactory(alloc, snk, cfg, logger)
}

// Clone returns a Factory that shares f's allocator, sink, config and
// logger but owns a fresh, empty gauge registry.
func (f *Factory) Clone() *Factory {
	return &Factory{alloc: f.alloc, sink: f.sink, gauges: gauge.NewRegistry(), cfg: f.cfg, logger: f.logger}
}

// Sink returns the factory's sink, for the aggregator to drain.
func (f *Factory) Sink() sink.Sink[ScopeEnvelope] { return f.sink }

// Gauges returns the factory's owned gauge registry.
func (f *Factory) Gauges() *gauge.Registry { return f.gauges }

// Config returns the factory's configuration.
func (f *Factory) Config() *Config { return f.cfg }

// RecordScope asks the allocator for a record, stamps the factory's
// default behaviors (and Suppress if the factory is disabled), and returns
// a guard. The caller must `defer guard.Close()`.
func (f *Factory) RecordScope(name string) *ScopeGuard {
	return f.RecordScopeWithBehavior(name, 0)
}

// RecordScopeWithBehavior is RecordScope plus one extra behavior bit.
func (f *Factory) RecordScopeWithBehavior(name string, extra Behavior) *ScopeGuard {
	ref := f.alloc.Allocate()
	rec := ref.Get()
	rec.SetName(name)
	rec.addBehavior(f.cfg.DefaultBehaviors)
	rec.addBehavior(extra)
	if f.cfg.Disabled {
		rec.addBehavior(BehaviorSuppress)
	}
	return &ScopeGuard{ref: ref, factory: f}
}

// GaugeStatisticSet returns the strong handle for a StatisticSetGauge
// identified by (group, name, dims), creating it on first touch.
func (f *Factory) GaugeStatisticSet(group, name string, dims ...Dimension) *gauge.Handle {
	return f.gauges.Gauge(group, name, toGaugeDimensions(dims), gauge.KindStatisticSet)
}

// GaugeSum returns the strong handle for a SumGauge identified by (group,
// name, dims), creating it on first touch.
func (f *Factory) GaugeSum(group, name string, dims ...Dimension) *gauge.Handle {
	return f.gauges.Gauge(group, name, toGaugeDimensions(dims), gauge.KindSum)
}

func toGaugeDimensions(dims []Dimension) gauge.Dimensions {
	m := make(gauge.Dimensions, len(dims))
	for _, d := range dims {
		m[d.Name] = d.Value
	}
	return m
}

func fromGaugeDimensions(dims gauge.Dimensions) []Dimension {
	out := make([]Dimension, 0, len(dims))
	for name, value := range dims {
		out = append(out, Dimension{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// emit is called by a ScopeGuard on Close. If Suppress is set the record
// is silently discarded and returned to the allocator without ever
// touching the sink. Otherwise, unless SuppressTotalTime is set, a
// "totaltime" distribution is appended, and the envelope is handed to the
// sink; a full sink drops the envelope and releases it immediately.
func (f *Factory) emit(ref ScopeEnvelope) {
	rec := ref.Get()
	if rec.HasBehavior(BehaviorSuppress) {
		ref.Release()
		return
	}
	if !rec.HasBehavior(BehaviorSuppressTotalTime) {
		rec.Distribution("totaltime", TimerDistribution(time.Since(rec.StartTime()).Nanoseconds()))
	}
	if !f.sink.Accept(ref) {
		ref.Release()
	}
}

// ReportGaugesForever runs a periodic task, scheduled by a gocron
// scheduler on cadence, that snapshots-and-resets the gauge registry into
// a fresh AggregatedMap, hands it to batcher, and try-sends the resulting
// Batch on send. It blocks until ctx is canceled.
func (f *Factory) ReportGaugesForever(ctx context.Context, cadence time.Duration, batcher Batcher, send func(Batch) bool) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cadence),
		gocron.NewTask(func() { f.snapshotGaugesOnce(cadence, batcher, send) }),
	)
	if err != nil {
		return err
	}
	scheduler.Start()
	<-ctx.Done()
	return scheduler.Shutdown()
}

func (f *Factory) snapshotGaugesOnce(cadence time.Duration, batcher Batcher, send func(Batch) bool) {
	stats, sums := f.gauges.ResetAll()
	if len(stats) == 0 && len(sums) == 0 {
		return
	}

	agg := NewAggregatedMap()
	for _, e := range stats {
		entry := agg.GetOrCreateEntry(e.Group, fromGaugeDimensions(e.Dims))
		entry.Measurements[e.Name] = aggregation.NewStatisticSetFromValues(
			e.Snapshot.Min, e.Snapshot.Max, e.Snapshot.Sum, e.Snapshot.Count,
		)
	}
	for _, e := range sums {
		entry := agg.GetOrCreateEntry(e.Group, fromGaugeDimensions(e.Dims))
		entry.Measurements[e.Name] = aggregation.NewSumFromValue(e.Snapshot.Value)
	}

	now := time.Now()
	batch := batcher.Batch(now, cadence, agg)
	if !send(batch) {
		f.logger.Error("gauge batch dropped: downstream channel full")
	}
}
