// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package aggregation

import "math"

const (
	// DefaultScale is the starting scale factor: a magnitude v's bucket
	// index is floor(log2(v) * 2^scale), so higher scale means finer
	// resolution and a narrower range of magnitudes before the vector fills.
	DefaultScale = 2
	// DefaultMaxBuckets bounds the positive (and, separately, negative)
	// bucket vector length. Index computation clamps into [0, maxBuckets-1]
	// rather than growing the vector: Absorb first lowers the scale until a
	// high magnitude fits, and only once the scale reaches -32 does an
	// out-of-range magnitude collapse into the top bucket.
	DefaultMaxBuckets = 160
)

// ExponentialHistogram buckets observations on an exponential scale: the
// bucket holding magnitude v at scale s is floor(log2(v) * 2^s), clamped to
// [0, max_buckets-1]. Positive and negative observations are tracked in
// separate fixed-length bucket vectors. When an observation's unclamped
// index would exceed the vector, the histogram halves its scale and folds
// adjacent buckets together until the new data fits, trading resolution
// for a bounded bucket count.
type ExponentialHistogram struct {
	scale      int
	maxBuckets int
	zeroCount  uint64
	positive   []uint64
	negative   []uint64
	count      uint64
	sum        float64
	min        float64
	max        float64
}

// NewExponentialHistogram returns an empty ExponentialHistogram at the
// default scale and bucket cap.
func NewExponentialHistogram() *ExponentialHistogram {
	return NewExponentialHistogramWithLimits(DefaultScale, DefaultMaxBuckets)
}

// NewExponentialHistogramWithLimits returns an empty ExponentialHistogram
// with a caller-chosen starting scale and bucket cap.
func NewExponentialHistogramWithLimits(scale, maxBuckets int) *ExponentialHistogram {
	return &ExponentialHistogram{
		scale:      scale,
		maxBuckets: maxBuckets,
		positive:   make([]uint64, maxBuckets),
		negative:   make([]uint64, maxBuckets),
	}
}

// Absorb places value into its exponential bucket.
func (h *ExponentialHistogram) Absorb(value float64) {
	if h.count == 0 {
		h.min, h.max = value, value
	} else {
		if value < h.min {
			h.min = value
		}
		if value > h.max {
			h.max = value
		}
	}
	h.sum += value
	h.count++

	if value == 0 {
		h.zeroCount++
		return
	}

	negative := value < 0
	v := value
	if negative {
		v = -value
	}
	h.absorbInto(negative, v)
}

// absorbInto increments the bucket for magnitude v on the given side,
// rescaling first if the unclamped index would overflow the vector.
func (h *ExponentialHistogram) absorbInto(negative bool, v float64) {
	for h.unclampedIndex(v) >= h.maxBuckets && h.scale > -32 {
		h.scale--
		h.rescale()
	}
	idx := h.clampedIndex(v)
	if negative {
		h.negative[idx]++
	} else {
		h.positive[idx]++
	}
}

func (h *ExponentialHistogram) unclampedIndex(v float64) int {
	return int(math.Floor(math.Log2(v) * math.Pow(2, float64(h.scale))))
}

func (h *ExponentialHistogram) clampedIndex(v float64) int {
	idx := h.unclampedIndex(v)
	if idx < 0 {
		return 0
	}
	if idx >= h.maxBuckets {
		return h.maxBuckets - 1
	}
	return idx
}

// rescale halves the scale and re-indexes every existing bucket into the
// now-coarser vector, folding pairs of adjacent buckets together.
func (h *ExponentialHistogram) rescale() {
	h.positive = rescaleVector(h.positive)
	h.negative = rescaleVector(h.negative)
}

func rescaleVector(buckets []uint64) []uint64 {
	rescaled := make([]uint64, len(buckets))
	for idx, count := range buckets {
		if count == 0 {
			continue
		}
		parent := idx / 2
		if parent >= len(rescaled) {
			parent = len(rescaled) - 1
		}
		rescaled[parent] += count
	}
	return rescaled
}

// Scale returns the histogram's current scale factor.
func (h *ExponentialHistogram) Scale() int { return h.scale }

// Offset returns the bucket vector's starting index. Because indices are
// clamped into [0, max_buckets-1] rather than grown, the offset is always
// zero; the field is exposed so callers that render sparse bucket lists
// have a stable anchor regardless of internal representation.
func (h *ExponentialHistogram) Offset() int { return 0 }

// ZeroCount returns the number of exactly-zero observations absorbed.
func (h *ExponentialHistogram) ZeroCount() uint64 { return h.zeroCount }

// Count returns the total number of observations absorbed, including zeros.
func (h *ExponentialHistogram) Count() uint64 { return h.count }

// Sum returns the running sum of all absorbed observations.
func (h *ExponentialHistogram) Sum() float64 { return h.sum }

// Min returns the smallest observation absorbed.
func (h *ExponentialHistogram) Min() float64 { return h.min }

// Max returns the largest observation absorbed.
func (h *ExponentialHistogram) Max() float64 { return h.max }

// PositiveBuckets returns the live positive-side bucket vector.
func (h *ExponentialHistogram) PositiveBuckets() []uint64 { return h.positive }

// NegativeBuckets returns the live negative-side bucket vector.
func (h *ExponentialHistogram) NegativeBuckets() []uint64 { return h.negative }

// Kind implements Aggregation.
func (h *ExponentialHistogram) Kind() Kind {
	return KindExponentialHistogram
}

// IsEmpty implements Aggregation.
func (h *ExponentialHistogram) IsEmpty() bool {
	return h.count == 0
}

// Reset implements Aggregation. The scale is intentionally NOT reset to the
// default: a histogram that has already rescaled to accommodate a wide
// spread of values keeps that coarser scale across windows, since the next
// window's data is likely to need it again.
func (h *ExponentialHistogram) Reset() {
	h.zeroCount = 0
	h.count = 0
	h.sum = 0
	h.min = 0
	h.max = 0
	h.positive = make([]uint64, h.maxBuckets)
	h.negative = make([]uint64, h.maxBuckets)
}
