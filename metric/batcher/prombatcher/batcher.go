// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package prombatcher

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/proto"

	"github.com/lux-metrics/goodmetrics/metric"
	"github.com/lux-metrics/goodmetrics/metric/aggregation"
)

// Batcher converts a windowed AggregatedMap into Prometheus metric
// families and remembers the most recent conversion so it can serve as its
// own prometheus.Gatherer. It implements metric.Batcher.
type Batcher struct {
	namespace string

	mu       sync.Mutex
	families map[string]*dto.MetricFamily
}

// NewBatcher returns a Batcher that prefixes every converted metric name
// with namespace + "_" (namespace may be empty).
func NewBatcher(namespace string) *Batcher {
	return &Batcher{namespace: namespace, families: map[string]*dto.MetricFamily{}}
}

// Batch implements metric.Batcher: it drains aggregated, converts every
// entry to one or more dto.MetricFamily, replaces the batcher's remembered
// snapshot, and returns the family slice as the opaque Batch.
func (b *Batcher) Batch(now time.Time, coveredDuration time.Duration, aggregated *metric.AggregatedMap) metric.Batch {
	entries := aggregated.Drain()
	families := map[string]*dto.MetricFamily{}
	for _, entry := range entries {
		b.mergeEntry(families, entry)
	}

	b.mu.Lock()
	b.families = families
	b.mu.Unlock()

	out := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		out = append(out, mf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// Gather implements prometheus.Gatherer over the batcher's last converted
// window, so a Batcher can be passed directly to promhttp.HandlerFor.
func (b *Batcher) Gather() ([]*dto.MetricFamily, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*dto.MetricFamily, 0, len(b.families))
	for _, mf := range b.families {
		out = append(out, mf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out, nil
}

func (b *Batcher) familyName(metricName, measurementName string) string {
	parts := []string{}
	if b.namespace != "" {
		parts = append(parts, b.namespace)
	}
	parts = append(parts, metricName, measurementName)
	return strings.Join(parts, "_")
}

func (b *Batcher) mergeEntry(families map[string]*dto.MetricFamily, entry *metric.MetricEntry) {
	labels := toLabelPairs(entry.Dimensions)
	for measurementName, agg := range entry.Measurements {
		name := b.familyName(entry.MetricName, measurementName)
		switch a := agg.(type) {
		case *aggregation.Sum:
			addCounter(families, name, labels, a)
		case *aggregation.StatisticSet:
			addSummaryFromStatisticSet(families, name, labels, a)
		case *aggregation.Histogram:
			addHistogram(families, name, labels, a)
		case *aggregation.ExponentialHistogram:
			addExponentialHistogram(families, name, labels, a)
		case *aggregation.TDigest:
			addSummaryFromTDigest(families, name, labels, a)
		}
	}
}

func toLabelPairs(dims []metric.Dimension) []*dto.LabelPair {
	pairs := make([]*dto.LabelPair, 0, len(dims))
	for _, d := range dims {
		pairs = append(pairs, &dto.LabelPair{Name: proto.String(d.Name), Value: proto.String(dimensionValueString(d.Value))})
	}
	return pairs
}

func dimensionValueString(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return "<unknown>"
	}
}

func getOrCreateFamily(families map[string]*dto.MetricFamily, name string, mType dto.MetricType) *dto.MetricFamily {
	mf, ok := families[name]
	if !ok {
		mf = &dto.MetricFamily{Name: proto.String(name), Type: mType.Enum()}
		families[name] = mf
	}
	return mf
}

func addCounter(families map[string]*dto.MetricFamily, name string, labels []*dto.LabelPair, sum *aggregation.Sum) {
	mf := getOrCreateFamily(families, name, dto.MetricType_COUNTER)
	mf.Metric = append(mf.Metric, &dto.Metric{
		Label:   labels,
		Counter: &dto.Counter{Value: proto.Float64(float64(sum.Value()))},
	})
}

// addSummaryFromStatisticSet emits a Prometheus Summary carrying only
// sample count and sample sum: a StatisticSet tracks exact min/max/sum/count
// rather than quantile estimates, so no Quantile entries are populated. Min
// and max are exposed as extra gauges under _min/_max suffixes, carrying
// the same labels, since Summary has no slot for them.
func addSummaryFromStatisticSet(families map[string]*dto.MetricFamily, name string, labels []*dto.LabelPair, ss *aggregation.StatisticSet) {
	mf := getOrCreateFamily(families, name, dto.MetricType_SUMMARY)
	mf.Metric = append(mf.Metric, &dto.Metric{
		Label:   labels,
		Summary: &dto.Summary{SampleCount: proto.Uint64(ss.Count()), SampleSum: proto.Float64(float64(ss.Sum()))},
	})

	addGauge(families, name+"_min", labels, float64(ss.Min()))
	addGauge(families, name+"_max", labels, float64(ss.Max()))
}

func addGauge(families map[string]*dto.MetricFamily, name string, labels []*dto.LabelPair, value float64) {
	mf := getOrCreateFamily(families, name, dto.MetricType_GAUGE)
	mf.Metric = append(mf.Metric, &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(value)},
	})
}

// addHistogram converts the exact-value bucket map into a classic
// Prometheus cumulative histogram. SampleSum is approximated as the sum of
// each bucket's canonical rounded value times its count, since Histogram
// itself only tracks bucketed counts, not raw sample sums.
func addHistogram(families map[string]*dto.MetricFamily, name string, labels []*dto.LabelPair, h *aggregation.Histogram) {
	buckets := h.Buckets()
	bounds := make([]int64, 0, len(buckets))
	for bound := range buckets {
		bounds = append(bounds, bound)
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })

	mf := getOrCreateFamily(families, name, dto.MetricType_HISTOGRAM)
	var cumulative uint64
	var approxSum float64
	dtoBuckets := make([]*dto.Bucket, 0, len(bounds))
	for _, bound := range bounds {
		count := buckets[bound]
		cumulative += count
		approxSum += float64(bound) * float64(count)
		dtoBuckets = append(dtoBuckets, &dto.Bucket{UpperBound: proto.Float64(float64(bound)), CumulativeCount: proto.Uint64(cumulative)})
	}

	mf.Metric = append(mf.Metric, &dto.Metric{
		Label: labels,
		Histogram: &dto.Histogram{
			SampleCount: proto.Uint64(cumulative),
			SampleSum:   proto.Float64(approxSum),
			Bucket:      dtoBuckets,
		},
	})
}

// addExponentialHistogram re-expresses the zero count and the positive
// base-2 bucket vector as classic cumulative Prometheus buckets,
// reconstructing each bucket's upper bound from its index and scale
// (value = 2^((idx+1) / 2^scale)). Negative-side buckets are not emitted
// as buckets; those observations appear only in SampleCount and
// SampleSum. Native Prometheus exponential histograms require a dedicated
// wire encoding this client_model version does not expose, so the classic
// representation is the closest exact fit available.
func addExponentialHistogram(families map[string]*dto.MetricFamily, name string, labels []*dto.LabelPair, eh *aggregation.ExponentialHistogram) {
	mf := getOrCreateFamily(families, name, dto.MetricType_HISTOGRAM)
	base := math.Pow(2, 1/math.Pow(2, float64(eh.Scale())))

	var cumulative uint64
	var approxSum float64
	dtoBuckets := make([]*dto.Bucket, 0)

	if eh.ZeroCount() > 0 {
		cumulative += eh.ZeroCount()
		dtoBuckets = append(dtoBuckets, &dto.Bucket{UpperBound: proto.Float64(0), CumulativeCount: proto.Uint64(cumulative)})
	}

	for idx, count := range eh.PositiveBuckets() {
		if count == 0 {
			continue
		}
		upper := math.Pow(base, float64(idx+1))
		cumulative += count
		approxSum += upper * float64(count)
		dtoBuckets = append(dtoBuckets, &dto.Bucket{UpperBound: proto.Float64(upper), CumulativeCount: proto.Uint64(cumulative)})
	}

	sampleCount := cumulative
	if eh.Count() > cumulative {
		sampleCount = eh.Count()
	}
	sampleSum := eh.Sum()
	if sampleSum == 0 {
		sampleSum = approxSum
	}
	mf.Metric = append(mf.Metric, &dto.Metric{
		Label: labels,
		Histogram: &dto.Histogram{
			SampleCount: proto.Uint64(sampleCount),
			SampleSum:   proto.Float64(sampleSum),
			Bucket:      dtoBuckets,
		},
	})
}

// addSummaryFromTDigest materializes p50/p90/p99/p999 as explicit
// Quantile entries, the closest classic-Summary analogue of a sketch.
func addSummaryFromTDigest(families map[string]*dto.MetricFamily, name string, labels []*dto.LabelPair, td *aggregation.TDigest) {
	mf := getOrCreateFamily(families, name, dto.MetricType_SUMMARY)
	sampleSum := 0.0

	quantiles := make([]*dto.Quantile, 0, 4)
	for _, q := range []float64{0.5, 0.9, 0.99, 0.999} {
		value := td.Quantile(q)
		sampleSum += value
		quantiles = append(quantiles, &dto.Quantile{Quantile: proto.Float64(q), Value: proto.Float64(value)})
	}

	mf.Metric = append(mf.Metric, &dto.Metric{
		Label: labels,
		Summary: &dto.Summary{
			SampleCount: proto.Uint64(td.Count()),
			SampleSum:   proto.Float64(sampleSum),
			Quantile:    quantiles,
		},
	})
}
