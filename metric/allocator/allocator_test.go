// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package allocator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type record struct {
	value int
	live  bool
}

func TestAlwaysNewAllocatorNeverRecycles(t *testing.T) {
	constructed := 0
	a := NewAlwaysNewAllocator(func() *record {
		constructed++
		return &record{}
	})

	r1 := a.Allocate()
	r1.Release()
	r2 := a.Allocate()
	r2.Release()

	require.Equal(t, 2, constructed)
}

func TestPooledAllocatorRecyclesAfterRelease(t *testing.T) {
	constructed := 0
	p := NewPooledAllocator(
		func() *record {
			constructed++
			return &record{}
		},
		func(r *record) { r.value = 0 },
		1, 4,
	)

	ref := p.Allocate()
	ref.Get().value = 99
	ref.Release()

	ref2 := p.Allocate()
	require.Equal(t, 0, ref2.Get().value, "pooled record should have been reset before reuse")
	require.Equal(t, 1, constructed, "second allocate should have recycled, not constructed")
}

func TestPooledAllocatorReleaseIsIdempotent(t *testing.T) {
	p := NewPooledAllocator(func() *record { return &record{} }, nil, 2, 4)
	ref := p.Allocate()
	ref.Release()
	require.NotPanics(t, func() {
		ref.Release()
	})
}

// TestPooledAllocatorNeverExceedsCapacity exercises invariant: for all
// schedules, len(slot) <= capacity(slot) at all observation points.
func TestPooledAllocatorNeverExceedsCapacity(t *testing.T) {
	const slotCount = 8
	const perSlotCapacity = 4
	p := NewPooledAllocator(func() *record { return &record{} }, nil, slotCount, perSlotCapacity)

	var wg sync.WaitGroup
	for g := 0; g < 64; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				ref := p.Allocate()
				ref.Release()
			}
		}()
	}
	wg.Wait()

	for _, s := range p.slots {
		require.LessOrEqual(t, len(s.free), s.capacity)
	}
}
