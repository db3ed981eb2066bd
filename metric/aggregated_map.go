// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lux-metrics/goodmetrics/metric/aggregation"
)

// DimensionSetKey returns a deterministic, sorted string key for a
// dimension set, used as the aggregated map's middle key. dims must
// already be sorted by Name (ScopeRecord.Drain guarantees this).
func DimensionSetKey(dims []Dimension) string {
	if len(dims) == 0 {
		return ""
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = d.Name + "=" + dimensionValueString(d.Value)
	}
	return strings.Join(parts, "\x1f")
}

func dimensionValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case uint64:
		return strconv.FormatUint(val, 10)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return sortableFallback(val)
	}
}

func sortableFallback(v any) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	return "<unknown>"
}

// MetricEntry is the aggregated map's per-(metric name, dimension set)
// bucket: the dimension set it was grouped under, and a mapping of
// measurement name to the chosen aggregation. Per §3's invariant, once an
// aggregation kind is established for a given measurement name within an
// entry, it is fixed for the entry's lifetime.
type MetricEntry struct {
	MetricName   string
	Dimensions   []Dimension
	Measurements map[string]aggregation.Aggregation
}

// AggregatedMap is the aggregator's accumulating state: metric name →
// dimension set → (measurement name → aggregation). It is owned
// exclusively by one aggregator (or gauge-reporter) goroutine; there is no
// internal locking.
type AggregatedMap struct {
	// groups maps metric name -> dims key -> entry.
	groups map[string]map[string]*MetricEntry
}

// NewAggregatedMap returns an empty AggregatedMap.
func NewAggregatedMap() *AggregatedMap {
	return &AggregatedMap{groups: make(map[string]map[string]*MetricEntry)}
}

// GetOrCreateEntry returns the MetricEntry for (metricName, dims),
// creating it (and its Measurements map) on first touch.
func (m *AggregatedMap) GetOrCreateEntry(metricName string, dims []Dimension) *MetricEntry {
	byDims, ok := m.groups[metricName]
	if !ok {
		byDims = make(map[string]*MetricEntry)
		m.groups[metricName] = byDims
	}
	key := DimensionSetKey(dims)
	entry, ok := byDims[key]
	if !ok {
		entry = &MetricEntry{
			MetricName:   metricName,
			Dimensions:   dims,
			Measurements: make(map[string]aggregation.Aggregation),
		}
		byDims[key] = entry
	}
	return entry
}

// IsEmpty reports whether the map holds no entries at all.
func (m *AggregatedMap) IsEmpty() bool {
	return len(m.groups) == 0
}

// Drain returns every entry currently held, sorted by metric name then
// dimension key for deterministic batch output, and clears the map. The
// underlying maps are reused (not reallocated) so repeated window cycles
// don't pay fresh allocation cost for the outer map structure.
func (m *AggregatedMap) Drain() []*MetricEntry {
	var entries []*MetricEntry
	metricNames := make([]string, 0, len(m.groups))
	for name := range m.groups {
		metricNames = append(metricNames, name)
	}
	sort.Strings(metricNames)

	for _, name := range metricNames {
		byDims := m.groups[name]
		keys := make([]string, 0, len(byDims))
		for k := range byDims {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			entries = append(entries, byDims[k])
		}
	}

	clear(m.groups)
	return entries
}
