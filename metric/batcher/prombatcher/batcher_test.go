// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package prombatcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"

	"github.com/lux-metrics/goodmetrics/metric"
	"github.com/lux-metrics/goodmetrics/metric/aggregation"
)

func familyNamed(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestBatcherConvertsSumToCounter(t *testing.T) {
	b := NewBatcher("test")
	agg := metric.NewAggregatedMap()
	entry := agg.GetOrCreateEntry("requests", []metric.Dimension{metric.StringDimension("route", "/health")})
	sum := aggregation.NewSum()
	sum.Absorb(3)
	entry.Measurements["count"] = sum

	batch := b.Batch(time.Now(), time.Second, agg)
	families := batch.([]*dto.MetricFamily)

	mf := familyNamed(families, "test_requests_count")
	require.NotNil(t, mf)
	require.Equal(t, dto.MetricType_COUNTER, mf.GetType())
	require.Equal(t, float64(3), mf.Metric[0].GetCounter().GetValue())
	require.Equal(t, "/health", mf.Metric[0].Label[0].GetValue())
}

func TestBatcherConvertsStatisticSetToSummaryAndGauges(t *testing.T) {
	b := NewBatcher("")
	agg := metric.NewAggregatedMap()
	entry := agg.GetOrCreateEntry("request", nil)
	ss := aggregation.NewStatisticSet()
	ss.Absorb(10)
	ss.Absorb(20)
	entry.Measurements["latency"] = ss

	families := b.Batch(time.Now(), time.Second, agg).([]*dto.MetricFamily)

	summary := familyNamed(families, "request_latency")
	require.NotNil(t, summary)
	require.Equal(t, uint64(2), summary.Metric[0].GetSummary().GetSampleCount())
	require.Equal(t, float64(30), summary.Metric[0].GetSummary().GetSampleSum())

	min := familyNamed(families, "request_latency_min")
	require.Equal(t, float64(10), min.Metric[0].GetGauge().GetValue())
	max := familyNamed(families, "request_latency_max")
	require.Equal(t, float64(20), max.Metric[0].GetGauge().GetValue())
}

func TestBatcherConvertsHistogramCumulatively(t *testing.T) {
	b := NewBatcher("")
	agg := metric.NewAggregatedMap()
	entry := agg.GetOrCreateEntry("request", nil)
	h := aggregation.NewHistogram()
	h.Absorb(10)
	h.Absorb(10)
	h.Absorb(20)
	entry.Measurements["size"] = h

	families := b.Batch(time.Now(), time.Second, agg).([]*dto.MetricFamily)
	mf := familyNamed(families, "request_size")
	require.NotNil(t, mf)
	require.Equal(t, dto.MetricType_HISTOGRAM, mf.GetType())

	buckets := mf.Metric[0].GetHistogram().GetBucket()
	require.Len(t, buckets, 2)
	require.Equal(t, uint64(2), buckets[0].GetCumulativeCount())
	require.Equal(t, uint64(3), buckets[1].GetCumulativeCount())
	require.Equal(t, uint64(3), mf.Metric[0].GetHistogram().GetSampleCount())
}

func TestBatcherGatherReturnsLastBatch(t *testing.T) {
	b := NewBatcher("")
	agg := metric.NewAggregatedMap()
	entry := agg.GetOrCreateEntry("request", nil)
	sum := aggregation.NewSum()
	sum.Absorb(1)
	entry.Measurements["count"] = sum
	b.Batch(time.Now(), time.Second, agg)

	families, err := b.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
