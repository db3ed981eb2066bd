// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package allocator vends and reclaims scope records. It is generic over
// the record type so it has no dependency on the root metric package;
// the root package supplies the record type and a reset function.
package allocator

// Allocator vends records of type T, wrapped in a ReturningReference that
// knows how to give the record back when the caller is done with it.
type Allocator[T any] interface {
	Allocate() *ReturningReference[T]
}

// returnTarget is implemented by every Allocator so a ReturningReference
// can hand its record back without holding a type-specific pointer back to
// the allocator.
type returnTarget[T any] interface {
	release(rec *T)
}

// ReturningReference is a single-owner guard around an allocated record.
// Release transfers the record back to the allocator it came from,
// unconditionally and exactly once; calling Release more than once is a
// no-op, not a double-free. Callers typically `defer ref.Release()`
// immediately after allocating.
type ReturningReference[T any] struct {
	record   *T
	target   returnTarget[T]
	returned bool
}

// Get returns the owned record. It remains valid until Release is called.
func (r *ReturningReference[T]) Get() *T {
	return r.record
}

// Release hands the record back to its allocator. Safe to call multiple
// times or via defer alongside an earlier explicit call.
func (r *ReturningReference[T]) Release() {
	if r.returned {
		return
	}
	r.returned = true
	r.target.release(r.record)
}
