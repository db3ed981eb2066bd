// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package natssink

import (
	"time"

	"github.com/lux-metrics/goodmetrics/metric"
	"github.com/lux-metrics/goodmetrics/metric/aggregation"
)

// Batcher implements metric.Batcher by flattening every AggregatedMap
// entry's measurements into a LineEntry per (metric name, dimension set),
// one float64 field per measurement. Distributions fold down to a handful
// of summary fields since line protocol has no native histogram shape:
// count/sum/min/max for an ExponentialHistogram, count and quantiles for a
// TDigest, and only the count for a Histogram.
type Batcher struct{}

// Batch implements metric.Batcher.
func (Batcher) Batch(now time.Time, coveredDuration time.Duration, aggregated *metric.AggregatedMap) metric.Batch {
	entries := aggregated.Drain()
	out := make([]LineEntry, 0, len(entries))
	for _, entry := range entries {
		fields := map[string]float64{}
		for measurementName, agg := range entry.Measurements {
			flattenInto(fields, measurementName, agg)
		}
		out = append(out, LineEntry{
			Measurement: entry.MetricName,
			Tags:        entry.Dimensions,
			Fields:      fields,
			Timestamp:   now,
		})
	}
	return out
}

func flattenInto(fields map[string]float64, name string, agg aggregation.Aggregation) {
	switch a := agg.(type) {
	case *aggregation.Sum:
		fields[name] = float64(a.Value())
	case *aggregation.StatisticSet:
		fields[name+"_count"] = float64(a.Count())
		fields[name+"_sum"] = float64(a.Sum())
		fields[name+"_min"] = float64(a.Min())
		fields[name+"_max"] = float64(a.Max())
	case *aggregation.Histogram:
		var count uint64
		for _, c := range a.Buckets() {
			count += c
		}
		fields[name+"_count"] = float64(count)
	case *aggregation.ExponentialHistogram:
		fields[name+"_count"] = float64(a.Count())
		fields[name+"_sum"] = a.Sum()
		fields[name+"_min"] = a.Min()
		fields[name+"_max"] = a.Max()
	case *aggregation.TDigest:
		fields[name+"_count"] = float64(a.Count())
		fields[name+"_p50"] = a.Quantile(0.5)
		fields[name+"_p90"] = a.Quantile(0.9)
		fields[name+"_p99"] = a.Quantile(0.99)
	}
}
