// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import "time"

// Batch is the opaque, transport-ready output of a Batcher. Its concrete
// shape is entirely up to the Batcher implementation (a Prometheus
// collector, a NATS-bound payload, an in-memory test fixture); the core
// never inspects it.
type Batch any

// Batcher is the contract an external transport implements to convert a
// window's aggregated map into a send-ready Batch. Implementations are
// expected to drain the map (consuming its entries via AggregatedMap.Drain)
// and convert each aggregation to the transport's native form. The map is
// passed by pointer precisely so the aggregator can reuse its allocated
// capacity across windows.
type Batcher interface {
	Batch(now time.Time, coveredDuration time.Duration, aggregated *AggregatedMap) Batch
}

// BatcherFunc adapts a plain function to the Batcher interface.
type BatcherFunc func(now time.Time, coveredDuration time.Duration, aggregated *AggregatedMap) Batch

// Batch implements Batcher.
func (f BatcherFunc) Batch(now time.Time, coveredDuration time.Duration, aggregated *AggregatedMap) Batch {
	return f(now, coveredDuration, aggregated)
}
