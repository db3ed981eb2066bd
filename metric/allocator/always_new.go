// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package allocator

// AlwaysNewAllocator constructs a fresh record on every Allocate and drops
// every returned record. It is the simplest possible strategy and the
// right default for workloads where scope-record construction is cheap
// relative to everything else happening in the scope.
type AlwaysNewAllocator[T any] struct {
	new func() *T
}

// NewAlwaysNewAllocator returns an allocator that calls newFn for every
// Allocate and never recycles.
func NewAlwaysNewAllocator[T any](newFn func() *T) *AlwaysNewAllocator[T] {
	return &AlwaysNewAllocator[T]{new: newFn}
}

// Allocate implements Allocator.
func (a *AlwaysNewAllocator[T]) Allocate() *ReturningReference[T] {
	return &ReturningReference[T]{record: a.new(), target: a}
}

func (a *AlwaysNewAllocator[T]) release(*T) {
	// Always-new allocator never recycles; the record is simply dropped.
}
