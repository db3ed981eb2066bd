// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package aggregator

import (
	"github.com/lux-metrics/goodmetrics/metric"
	"github.com/lux-metrics/goodmetrics/metric/aggregation"
)

// fold drains the envelope's scope record, folds every measurement into
// the entry for (name, dims) in agg, and releases the envelope back to its
// allocator. The fold is the only place mixed-kind conflicts are detected:
// a measurement name that has already been folded under a different
// aggregation kind within the same window is logged and dropped, keeping
// whichever aggregation got there first.
func (a *Aggregator) fold(agg *metric.AggregatedMap, env metric.ScopeEnvelope) {
	rec := env.Get()
	name, dims, measurements := rec.Drain()
	env.Release()

	entry := agg.GetOrCreateEntry(name, dims)
	for measurementName, m := range measurements {
		existing, hasExisting := entry.Measurements[measurementName]

		switch m.Kind() {
		case metric.MeasurementObservation:
			if hasExisting && existing.Kind() != aggregation.KindStatisticSet {
				a.logKindConflict(name, measurementName, aggregation.KindStatisticSet, existing.Kind())
				continue
			}
			ss, ok := existing.(*aggregation.StatisticSet)
			if !ok {
				ss = aggregation.NewStatisticSet()
				entry.Measurements[measurementName] = ss
			}
			ss.Absorb(m.Observation().AsInt64())

		case metric.MeasurementSum:
			if hasExisting && existing.Kind() != aggregation.KindSum {
				a.logKindConflict(name, measurementName, aggregation.KindSum, existing.Kind())
				continue
			}
			sum, ok := existing.(*aggregation.Sum)
			if !ok {
				sum = aggregation.NewSum()
				entry.Measurements[measurementName] = sum
			}
			sum.Absorb(m.Sum())

		case metric.MeasurementDistribution:
			wantKind := a.distributionKind()
			if hasExisting && existing.Kind() != wantKind {
				a.logKindConflict(name, measurementName, wantKind, existing.Kind())
				continue
			}
			distAgg, ok := entry.Measurements[measurementName]
			if !ok {
				distAgg = a.newDistributionAggregation()
				entry.Measurements[measurementName] = distAgg
			}
			for _, v := range m.Distribution().Values() {
				absorbDistributionValue(distAgg, v)
			}
		}
	}
}

func (a *Aggregator) logKindConflict(metricName, measurementName string, want, got aggregation.Kind) {
	a.logger.Error("measurement kind conflict, dropping datum",
		"metric", metricName,
		"measurement", measurementName,
		"expected_kind", want.String(),
		"actual_kind", got.String(),
	)
}

func (a *Aggregator) distributionKind() aggregation.Kind {
	switch a.cfg.DistributionMode.Kind {
	case metric.DistributionModeExponentialHistogram:
		return aggregation.KindExponentialHistogram
	case metric.DistributionModeTDigest:
		return aggregation.KindTDigest
	default:
		return aggregation.KindHistogram
	}
}

func (a *Aggregator) newDistributionAggregation() aggregation.Aggregation {
	switch a.cfg.DistributionMode.Kind {
	case metric.DistributionModeExponentialHistogram:
		maxBuckets := a.cfg.DistributionMode.ExponentialHistogramMaxBuckets
		if maxBuckets <= 0 {
			maxBuckets = aggregation.DefaultMaxBuckets
		}
		scale := a.cfg.DistributionMode.ExponentialHistogramScale
		if scale == 0 {
			scale = aggregation.DefaultScale
		}
		return aggregation.NewExponentialHistogramWithLimits(scale, maxBuckets)
	case metric.DistributionModeTDigest:
		return aggregation.NewTDigest()
	default:
		return aggregation.NewHistogram()
	}
}

func absorbDistributionValue(agg aggregation.Aggregation, v int64) {
	switch typed := agg.(type) {
	case *aggregation.Histogram:
		typed.Absorb(v)
	case *aggregation.ExponentialHistogram:
		typed.Absorb(float64(v))
	case *aggregation.TDigest:
		typed.Absorb(float64(v))
	}
}
