// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

// ScopeGuard is the producer-facing handle returned by Factory.RecordScope.
// It wraps an allocated ScopeRecord; Go has no destructors, so callers
// must `defer guard.Close()` immediately after opening the scope. Close is
// idempotent: only the first call emits the record.
type ScopeGuard struct {
	ref     ScopeEnvelope
	factory *Factory
	closed  bool
}

// Record returns the underlying ScopeRecord for direct manipulation.
func (g *ScopeGuard) Record() *ScopeRecord { return g.ref.Get() }

// Dimension records a dimension on the underlying scope record.
func (g *ScopeGuard) Dimension(name string, value any) {
	g.ref.Get().Dimension(name, value)
}

// Measurement records an Observation on the underlying scope record.
func (g *ScopeGuard) Measurement(name string, o Observation) {
	g.ref.Get().Measurement(name, o)
}

// Distribution records a Distribution on the underlying scope record.
func (g *ScopeGuard) Distribution(name string, d Distribution) {
	g.ref.Get().Distribution(name, d)
}

// Sum records a monotonic sum contribution on the underlying scope record.
func (g *ScopeGuard) Sum(name string, delta int64) {
	g.ref.Get().Sum(name, delta)
}

// Time starts a Timer on the underlying scope record.
func (g *ScopeGuard) Time(name string) *Timer {
	return g.ref.Get().Time(name)
}

// Close finishes the scope: if Suppress is set the record is silently
// discarded, otherwise (absent SuppressTotalTime) a totaltime distribution
// is appended and the record is handed to the sink. Safe to call more than
// once; only the first call has an effect.
func (g *ScopeGuard) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.factory.emit(g.ref)
}
