// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package aggregation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultCompression bounds how many centroids a TDigest keeps. Higher
// compression means more centroids and tighter quantile estimates, at the
// cost of more memory and a more expensive compress pass.
const DefaultCompression = 100.0

// centroid is a single weighted mean tracked by a TDigest.
type centroid struct {
	mean   float64
	weight float64
}

// TDigest is an online sketch of a distribution's quantiles, built by
// merging new observations into a small set of weighted centroids and
// periodically compressing them back down to the target count. Unlike
// Histogram's fixed buckets, a TDigest concentrates resolution near the
// tails, which is where quantile estimates matter most for latency data.
type TDigest struct {
	compression float64
	centroids   []centroid
	count       uint64
	min         float64
	max         float64
	unmerged    int
}

// NewTDigest returns an empty TDigest at the default compression.
func NewTDigest() *TDigest {
	return NewTDigestWithCompression(DefaultCompression)
}

// NewTDigestWithCompression returns an empty TDigest with a caller-chosen
// compression factor.
func NewTDigestWithCompression(compression float64) *TDigest {
	return &TDigest{compression: compression}
}

// Absorb folds a single observation into the sketch. Compression runs
// lazily, once enough uncompressed points have accumulated, rather than on
// every Absorb, so a hot path doing many observations per window isn't
// paying a sort on each one.
func (t *TDigest) Absorb(value float64) {
	if t.count == 0 {
		t.min = value
		t.max = value
	} else {
		if value < t.min {
			t.min = value
		}
		if value > t.max {
			t.max = value
		}
	}
	t.count++
	t.centroids = append(t.centroids, centroid{mean: value, weight: 1})
	t.unmerged++
	if t.unmerged >= int(t.compression)*2 {
		t.compress()
	}
}

// compress sorts centroids by mean and merges adjacent ones whose combined
// weight still fits within the scale function's budget for their quantile
// position, bringing the centroid count back toward compression.
func (t *TDigest) compress() {
	if len(t.centroids) == 0 {
		t.unmerged = 0
		return
	}
	sort.Slice(t.centroids, func(i, j int) bool {
		return t.centroids[i].mean < t.centroids[j].mean
	})

	total := float64(t.count)
	merged := make([]centroid, 0, len(t.centroids))
	cur := t.centroids[0]
	soFar := 0.0

	for i := 1; i < len(t.centroids); i++ {
		next := t.centroids[i]
		q := (soFar + cur.weight/2) / total
		limit := 4 * total * q * (1 - q) / t.compression
		if cur.weight+next.weight <= limit || limit <= 0 && i == 1 {
			combined := cur.weight + next.weight
			cur.mean = (cur.mean*cur.weight + next.mean*next.weight) / combined
			cur.weight = combined
			continue
		}
		soFar += cur.weight
		merged = append(merged, cur)
		cur = next
	}
	merged = append(merged, cur)

	t.centroids = merged
	t.unmerged = 0
}

// Quantile returns an estimate of the value at quantile q (0 <= q <= 1) by
// linear interpolation between the centroids straddling q's cumulative
// weight. Returns 0 if the digest has absorbed nothing.
func (t *TDigest) Quantile(q float64) float64 {
	if t.count == 0 {
		return 0
	}
	t.compress()
	if len(t.centroids) == 1 {
		return t.centroids[0].mean
	}

	target := q * float64(t.count)
	var soFar float64
	for i, c := range t.centroids {
		next := soFar + c.weight
		if target <= next || i == len(t.centroids)-1 {
			if c.weight <= 1 {
				return c.mean
			}
			frac := (target - soFar) / c.weight
			if frac < 0 {
				frac = 0
			}
			if frac > 1 {
				frac = 1
			}
			lo, hi := c.mean, c.mean
			if i > 0 {
				lo = (t.centroids[i-1].mean + c.mean) / 2
			} else {
				lo = t.min
			}
			if i < len(t.centroids)-1 {
				hi = (c.mean + t.centroids[i+1].mean) / 2
			} else {
				hi = t.max
			}
			return lo + frac*(hi-lo)
		}
		soFar = next
	}
	return t.max
}

// Min returns the smallest observation absorbed.
func (t *TDigest) Min() float64 { return t.min }

// Max returns the largest observation absorbed.
func (t *TDigest) Max() float64 { return t.max }

// Count returns the number of observations absorbed.
func (t *TDigest) Count() uint64 { return t.count }

// Kind implements Aggregation.
func (t *TDigest) Kind() Kind {
	return KindTDigest
}

// IsEmpty implements Aggregation.
func (t *TDigest) IsEmpty() bool {
	return t.count == 0
}

// Reset implements Aggregation.
func (t *TDigest) Reset() {
	t.centroids = nil
	t.count = 0
	t.min = 0
	t.max = 0
	t.unmerged = 0
}

// String renders the digest's quantile summary (p50/p90/p99) as exact
// decimal text, avoiding float formatting artifacts in logs and debug
// output.
func (t *TDigest) String() string {
	if t.count == 0 {
		return "tdigest(empty)"
	}
	p50 := decimal.NewFromFloat(t.Quantile(0.5)).Round(4)
	p90 := decimal.NewFromFloat(t.Quantile(0.9)).Round(4)
	p99 := decimal.NewFromFloat(t.Quantile(0.99)).Round(4)
	return "tdigest(count=" + decimal.NewFromInt(int64(t.count)).String() +
		", p50=" + p50.String() +
		", p90=" + p90.String() +
		", p99=" + p99.String() +
		", min=" + decimal.NewFromFloat(t.min).Round(4).String() +
		", max=" + decimal.NewFromFloat(t.max).Round(4).String() + ")"
}
