// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package aggregation

// Sum accumulates an int64 total across a window. It distinguishes "never
// absorbed anything" from "absorbed values that summed to zero" via touched,
// so the aggregator can tell an untouched Sum apart from a legitimately
// zero-valued one when deciding whether an entry is empty.
type Sum struct {
	value   int64
	touched bool
}

// NewSum returns an empty Sum ready to absorb observations.
func NewSum() *Sum {
	return &Sum{}
}

// NewSumFromValue builds a Sum directly from an already-computed total, as
// reported by a gauge snapshot.
func NewSumFromValue(value int64) *Sum {
	return &Sum{value: value, touched: true}
}

// Absorb folds a single observation into the running total.
func (s *Sum) Absorb(value int64) {
	s.value += value
	s.touched = true
}

// Value returns the current total.
func (s *Sum) Value() int64 {
	return s.value
}

// Kind implements Aggregation.
func (s *Sum) Kind() Kind {
	return KindSum
}

// IsEmpty implements Aggregation.
func (s *Sum) IsEmpty() bool {
	return !s.touched
}

// Reset implements Aggregation, zeroing the sum so the instance can be
// reused for the next window. Rollover is the term the rest of this package
// uses for this: read out Value, then Reset.
func (s *Sum) Reset() {
	s.value = 0
	s.touched = false
}

// Rollover returns the accumulated value and resets the Sum in one step,
// mirroring the read-then-clear handoff the aggregator performs at the end
// of every window.
func (s *Sum) Rollover() int64 {
	v := s.value
	s.Reset()
	return v
}
