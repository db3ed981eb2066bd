// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package aggregation

import "math"

// Histogram buckets a stream of int64 observations into base-10,
// two-significant-figure buckets. Bucketing trades exact values for a
// bounded, predictable number of buckets regardless of the input's range,
// which keeps the wire representation of a high-cardinality latency
// distribution small.
type Histogram struct {
	buckets map[int64]uint64
}

// NewHistogram returns an empty Histogram.
func NewHistogram() *Histogram {
	return &Histogram{buckets: make(map[int64]uint64)}
}

// Absorb places value into its bucket and increments that bucket's count.
func (h *Histogram) Absorb(value int64) {
	if h.buckets == nil {
		h.buckets = make(map[int64]uint64)
	}
	h.buckets[Bucket(value)]++
}

// Buckets returns the live bucket-count map. Callers must not retain it
// past a subsequent Reset.
func (h *Histogram) Buckets() map[int64]uint64 {
	return h.buckets
}

// Kind implements Aggregation.
func (h *Histogram) Kind() Kind {
	return KindHistogram
}

// IsEmpty implements Aggregation.
func (h *Histogram) IsEmpty() bool {
	return len(h.buckets) == 0
}

// Reset implements Aggregation.
func (h *Histogram) Reset() {
	h.buckets = make(map[int64]uint64)
}

// Bucket rounds value up (away from zero) to its base-10, two-significant-
// figure bucket boundary. Bucket(0) is 0. For any nonzero value the
// magnitude is rounded up to the nearest multiple of 10^(digits-2), where
// digits is the number of decimal digits in the magnitude: values 1..99
// round up to themselves, 100..990 round up to the nearest 10, 1000..9900
// round up to the nearest 100, and so on.
func Bucket(value int64) int64 {
	if value == 0 {
		return 0
	}
	sign := int64(1)
	v := value
	if v < 0 {
		sign = -1
		v = -v
	}
	p := int(math.Ceil(math.Log10(float64(v)))) - 2
	if p < 0 {
		p = 0
	}
	m := int64(math.Pow10(p))
	rounded := ((v + m - 1) / m) * m
	return sign * rounded
}

// BucketBelow returns the exclusive lower boundary of the bucket containing
// value: the largest representable value strictly below value's own
// bucket. It is used to compute a bucket's lower edge when rendering a
// histogram as a set of [low, high] ranges. Note this is one step down the
// number line in both directions: for a negative value, its bucket rounds
// away from zero (more negative), and bucket_below goes one step further
// negative still.
func BucketBelow(value int64) int64 {
	if value == 0 {
		return -1
	}
	v := value
	if v < 0 {
		v = -v
	}
	p := int(math.Ceil(math.Log10(float64(v)))) - 2
	if p < 0 {
		p = 0
	}
	m := int64(math.Pow10(p))
	return Bucket(value) - m
}
