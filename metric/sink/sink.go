// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sink implements the one-way handoff from producer goroutines
// (scope records being emitted) into the bounded queue the aggregator
// drains. Accept never blocks: a full queue drops the record rather than
// stalling the caller, since telemetry loss is preferred to latency impact
// on the host application.
package sink

import "log/slog"

// DefaultCapacity is the queue depth the project uses in production.
const DefaultCapacity = 1024

// Sink is a bounded, non-blocking handoff from any number of producers to
// a single consumer.
type Sink[T any] interface {
	// Accept offers rec to the queue. Returns false if the queue was full
	// and rec was dropped.
	Accept(rec T) bool

	// Receive returns the channel the aggregator drains.
	Receive() <-chan T
}

// ChannelSink is a Sink backed by a buffered Go channel. Accept uses a
// non-blocking select so a full channel never stalls the producer.
type ChannelSink[T any] struct {
	ch     chan T
	logger *slog.Logger
}

// NewChannelSink returns a ChannelSink with the given capacity. A nil
// logger falls back to slog.Default().
func NewChannelSink[T any](capacity int, logger *slog.Logger) *ChannelSink[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelSink[T]{ch: make(chan T, capacity), logger: logger}
}

// Accept implements Sink.
func (s *ChannelSink[T]) Accept(rec T) bool {
	select {
	case s.ch <- rec:
		return true
	default:
		s.logger.Debug("sink queue full, dropping record")
		return false
	}
}

// Receive implements Sink.
func (s *ChannelSink[T]) Receive() <-chan T {
	return s.ch
}

// Len reports the number of records currently queued. Intended for tests
// and introspection, not for flow-control decisions.
func (s *ChannelSink[T]) Len() int {
	return len(s.ch)
}

// Cap reports the sink's configured capacity.
func (s *ChannelSink[T]) Cap() int {
	return cap(s.ch)
}
