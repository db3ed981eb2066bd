// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

// Behavior is a bitset of per-scope flags controlling emit-time behavior.
// The zero value is the default: no suppression of any kind.
type Behavior uint8

const (
	// BehaviorSuppressTotalTime omits the automatic "totaltime" distribution
	// that would otherwise be appended on emit.
	BehaviorSuppressTotalTime Behavior = 1 << iota
	// BehaviorSuppress discards the record entirely on emit: nothing is
	// enqueued to the sink.
	BehaviorSuppress
)
