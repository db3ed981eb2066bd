// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"sort"
	"time"
)

// ScopeRecord is the per-unit-of-work container a producer mutates
// exclusively for its lifetime: dimensions, measurements, a start
// timestamp, and a behavior bitset. It is created by an allocator, owned
// by exactly one producer goroutine, and on scope exit either discarded
// (Suppress) or handed to the sink queue for the aggregator to fold and
// eventually return to the allocator.
type ScopeRecord struct {
	name         string
	startTime    time.Time
	dimensions   map[string]Dimension
	measurements map[string]Measurement
	behaviors    Behavior
}

// NewScopeRecord returns a freshly constructed, empty ScopeRecord for
// name. Allocators call this on a pool miss; most callers should go
// through an Allocator instead of calling this directly.
func NewScopeRecord(name string) *ScopeRecord {
	return &ScopeRecord{
		name:         name,
		startTime:    time.Now(),
		dimensions:   make(map[string]Dimension),
		measurements: make(map[string]Measurement),
	}
}

// Dimension records a dimension under name, overwriting any prior value
// for that name.
func (s *ScopeRecord) Dimension(name string, value any) {
	s.dimensions[name] = Dimension{Name: name, Value: value}
}

// Measurement records an Observation under name, overwriting any prior
// measurement for that name.
func (s *ScopeRecord) Measurement(name string, o Observation) {
	s.measurements[name] = observationMeasurement(o)
}

// Distribution records a Distribution under name, overwriting any prior
// measurement for that name.
func (s *ScopeRecord) Distribution(name string, d Distribution) {
	s.measurements[name] = distributionMeasurement(d)
}

// Sum records a monotonic sum contribution under name, overwriting any
// prior measurement for that name.
func (s *ScopeRecord) Sum(name string, delta int64) {
	s.measurements[name] = sumMeasurement(delta)
}

// Time starts a Timer that, on Stop, records its elapsed time as a
// Distribution under name. Multiple timers may be open simultaneously;
// they do not interact.
func (s *ScopeRecord) Time(name string) *Timer {
	return &Timer{record: s, name: name, start: time.Now()}
}

// Name returns the scope record's metric name.
func (s *ScopeRecord) Name() string { return s.name }

// StartTime returns when the record was allocated or last restarted.
func (s *ScopeRecord) StartTime() time.Time { return s.startTime }

// Restart resets start_time and clears both maps, leaving the behavior
// bits intact. Used by the pooling allocator to recycle a returned
// record before it is handed out again.
func (s *ScopeRecord) Restart() {
	s.startTime = time.Now()
	for k := range s.dimensions {
		delete(s.dimensions, k)
	}
	for k := range s.measurements {
		delete(s.measurements, k)
	}
}

// SetName reassigns the record's metric name. Used when a pooled record is
// handed out for a new scope.
func (s *ScopeRecord) SetName(name string) {
	s.name = name
}

// HasBehavior reports whether b is set.
func (s *ScopeRecord) HasBehavior(b Behavior) bool {
	return s.behaviors&b != 0
}

// addBehavior ORs b into the behavior bitset.
func (s *ScopeRecord) addBehavior(b Behavior) {
	s.behaviors |= b
}

// drain returns the record's dimensions as a deterministically sorted
// slice and its measurements map, then clears both from the record. The
// metric name is swapped for a sentinel so a record accidentally reused
// after drain is visibly broken rather than silently aliased.
func (s *ScopeRecord) drain() (string, []Dimension, map[string]Measurement) {
	name := s.name
	s.name = "<drained>"

	dims := make([]Dimension, 0, len(s.dimensions))
	for _, d := range s.dimensions {
		dims = append(dims, d)
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i].Name < dims[j].Name })
	s.dimensions = make(map[string]Dimension)

	measurements := s.measurements
	s.measurements = make(map[string]Measurement)

	return name, dims, measurements
}

// Drain is the exported form of drain, used by the aggregator package to
// consume a record's contents before returning it to its allocator.
func (s *ScopeRecord) Drain() (name string, dimensions []Dimension, measurements map[string]Measurement) {
	return s.drain()
}

// Timer is a scope guard that records its elapsed time as a Distribution
// when Stop is called. Go has no destructors, so callers must `defer
// timer.Stop()` immediately after calling Time; Stop is idempotent.
type Timer struct {
	record  *ScopeRecord
	name    string
	start   time.Time
	stopped bool
}

// Stop records the elapsed time since Time was called as a Distribution
// under the timer's name. Safe to call more than once; only the first
// call has an effect.
func (t *Timer) Stop() {
	if t.stopped {
		return
	}
	t.stopped = true
	t.record.Distribution(t.name, TimerDistribution(time.Since(t.start).Nanoseconds()))
}
