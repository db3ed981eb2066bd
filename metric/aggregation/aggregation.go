// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package aggregation implements the fixed set of per-window summary kinds
// that measurements fold into: Sum, StatisticSet, Histogram,
// ExponentialHistogram, and TDigest. Every kind absorbs data of exactly one
// shape and knows how to reset itself back to its identity value so the
// aggregator can reuse the same instance across windows.
package aggregation

// Kind identifies which concrete aggregation a map entry holds. The
// aggregator engine uses it to detect a measurement arriving under the same
// name with an incompatible shape (e.g. once as an Observation, later as a
// Distribution) and to drop the conflicting datum rather than corrupt the
// existing aggregation.
type Kind int

const (
	KindSum Kind = iota
	KindStatisticSet
	KindHistogram
	KindExponentialHistogram
	KindTDigest
)

func (k Kind) String() string {
	switch k {
	case KindSum:
		return "sum"
	case KindStatisticSet:
		return "statistic_set"
	case KindHistogram:
		return "histogram"
	case KindExponentialHistogram:
		return "exponential_histogram"
	case KindTDigest:
		return "tdigest"
	default:
		return "unknown"
	}
}

// Aggregation is the common surface every aggregation kind implements.
// Absorbing data happens through the kind-specific Absorb* method exposed
// by each concrete type; callers that only need to classify or drain an
// entry use this interface.
type Aggregation interface {
	Kind() Kind
	IsEmpty() bool
	Reset()
}
