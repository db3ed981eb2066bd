// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package gauge

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"weak"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Kind identifies which concrete gauge a handle wraps.
type Kind int

const (
	KindStatisticSet Kind = iota
	KindSum
)

// dimensionKeyCacheSize bounds the interned dimension-key cache so a
// producer emitting a pathologically high-cardinality dimension set can't
// grow it without bound.
const dimensionKeyCacheSize = 4096

// Dimensions is the dimension set a gauge is keyed by. Values are expected
// to be strings, bools, or numeric types, matching the wider recording
// model's dimension value set.
type Dimensions map[string]any

// CanonicalKey returns a deterministic, sorted-by-name string
// representation of a dimension set, used as the middle key in the
// group → dims → name nesting.
func CanonicalKey(dims Dimensions) string {
	if len(dims) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(dims))
	for k, v := range dims {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "\x1f")
}

// Handle is the strong reference to an atomic gauge that a producer holds
// and calls Observe through. The registry holds only a weak pointer to the
// same Handle, so once every producer drops its strong handle the gauge
// auto-unregisters on the next snapshot.
type Handle struct {
	Kind         Kind
	StatisticSet *StatisticSet
	Sum          *Sum
}

func newHandle(kind Kind) *Handle {
	switch kind {
	case KindSum:
		return &Handle{Kind: KindSum, Sum: NewSum()}
	default:
		return &Handle{Kind: KindStatisticSet, StatisticSet: NewStatisticSet()}
	}
}

type slot struct {
	weak weak.Pointer[Handle]
	name string
	dims Dimensions
}

type group struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// Registry is the group → dims → name nesting of weak gauge handles,
// described in §4.F: creation locks the registry, finds or inserts the
// group, then within that group finds or inserts the (dimensions, name)
// slot, upgrading its weak handle if still live.
type Registry struct {
	mu        sync.Mutex
	groups    map[string]*group
	keyCache  *lru.Cache[string, string]
	construct singleflight.Group
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	cache, _ := lru.New[string, string](dimensionKeyCacheSize)
	return &Registry{
		groups:   make(map[string]*group),
		keyCache: cache,
	}
}

// Gauge finds or creates the (group, name, dims) gauge of the requested
// kind and returns a strong handle to it. Concurrent first-touch calls for
// the same identity are deduplicated via singleflight so only one goroutine
// constructs the underlying atomic gauge.
func (r *Registry) Gauge(groupName, name string, dims Dimensions, kind Kind) *Handle {
	dimsKey := r.internKey(CanonicalKey(dims))
	g := r.getOrCreateGroup(groupName)
	slotKey := dimsKey + "\x1e" + name

	g.mu.Lock()
	s, ok := g.slots[slotKey]
	if !ok {
		s = &slot{name: name, dims: dims}
		g.slots[slotKey] = s
	} else if h := s.weak.Value(); h != nil {
		g.mu.Unlock()
		return h
	}
	g.mu.Unlock()

	v, _, _ := r.construct.Do(groupName+"\x1e"+slotKey, func() (any, error) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if h := s.weak.Value(); h != nil {
			return h, nil
		}
		h := newHandle(kind)
		s.weak = weak.Make(h)
		return h, nil
	})
	return v.(*Handle)
}

func (r *Registry) getOrCreateGroup(name string) *group {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[name]
	if !ok {
		g = &group{slots: make(map[string]*slot)}
		r.groups[name] = g
	}
	return g
}

// internKey returns a cached, shared string for raw dimension keys that
// repeat across many Gauge calls, bounded to dimensionKeyCacheSize entries.
func (r *Registry) internKey(raw string) string {
	if cached, ok := r.keyCache.Get(raw); ok {
		return cached
	}
	r.keyCache.Add(raw, raw)
	return raw
}

// StatisticSetEntry and SumEntry are snapshot results from ResetAll,
// identifying which group/dims/name the values came from.
type StatisticSetEntry struct {
	Group    string
	Dims     Dimensions
	Name     string
	Snapshot StatisticSetSnapshot
}

type SumEntry struct {
	Group    string
	Dims     Dimensions
	Name     string
	Snapshot SumSnapshot
}

// ResetAll snapshots-and-resets every live gauge in the registry, and as a
// side effect removes slots whose weak handle no longer upgrades and
// groups that become empty as a result — the mechanism by which a producer
// dropping its last strong handle auto-unregisters the gauge.
func (r *Registry) ResetAll() (stats []StatisticSetEntry, sums []SumEntry) {
	r.mu.Lock()
	groupNames := make([]string, 0, len(r.groups))
	for name := range r.groups {
		groupNames = append(groupNames, name)
	}
	r.mu.Unlock()

	for _, groupName := range groupNames {
		r.mu.Lock()
		g, ok := r.groups[groupName]
		r.mu.Unlock()
		if !ok {
			continue
		}

		g.mu.Lock()
		for slotKey, s := range g.slots {
			h := s.weak.Value()
			if h == nil {
				delete(g.slots, slotKey)
				continue
			}
			switch h.Kind {
			case KindSum:
				snap := h.Sum.Reset()
				if !snap.Empty {
					sums = append(sums, SumEntry{Group: groupName, Dims: s.dims, Name: s.name, Snapshot: snap})
				}
			default:
				snap := h.StatisticSet.Reset()
				if !snap.Empty {
					stats = append(stats, StatisticSetEntry{Group: groupName, Dims: s.dims, Name: s.name, Snapshot: snap})
				}
			}
		}
		empty := len(g.slots) == 0
		g.mu.Unlock()

		if empty {
			r.mu.Lock()
			if cur, ok := r.groups[groupName]; ok && cur == g {
				delete(r.groups, groupName)
			}
			r.mu.Unlock()
		}
	}
	return stats, sums
}
