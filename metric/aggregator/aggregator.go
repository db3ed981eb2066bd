// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package aggregator is the single-consumer engine that drains a Factory's
// sink, folds each scope record's measurements into a windowed
// AggregatedMap, and hands the finished window to a Batcher on cadence. It
// also supervises the Factory's gauge-reporter loop and a downstream
// forwarding goroutine under one errgroup so Run returns the first error
// any of them reports on shutdown.
package aggregator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lux-metrics/goodmetrics/metric"
)

// Aggregator owns no state between Run calls; a fresh AggregatedMap and
// receive loop are built each time Run is invoked.
type Aggregator struct {
	factory *metric.Factory
	cfg     *metric.Config
	logger  *slog.Logger
}

// New builds an Aggregator bound to factory. cfg defaults to
// factory.Config() when nil.
func New(factory *metric.Factory, cfg *metric.Config, logger *slog.Logger) *Aggregator {
	if cfg == nil {
		cfg = factory.Config()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{factory: factory, cfg: cfg, logger: logger}
}

// Run drives three supervised goroutines until ctx is canceled or one of
// them returns an error: the fold loop, the gauge reporter, and a
// downstream-forwarding loop that hands each completed Batch to downstream.
// downstream is called synchronously from the forwarding goroutine; a slow
// downstream only delays forwarding, it never blocks folding because the
// two are decoupled by the batch channel.
func (a *Aggregator) Run(ctx context.Context, batcher metric.Batcher, downstream func(metric.Batch)) error {
	batchCh := make(chan metric.Batch, a.cfg.BatchChannelCapacity)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runFoldLoop(gctx, batcher, batchCh)
	})
	g.Go(func() error {
		return a.factory.ReportGaugesForever(gctx, a.cfg.Cadence, batcher, trySend(batchCh, a.logger))
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case batch := <-batchCh:
				downstream(batch)
			}
		}
	})
	return g.Wait()
}

func trySend(ch chan<- metric.Batch, logger *slog.Logger) func(metric.Batch) bool {
	return func(b metric.Batch) bool {
		select {
		case ch <- b:
			return true
		default:
			return false
		}
	}
}

// runFoldLoop implements the consumer side of the pipeline: it delays
// startup to align window boundaries to wall-clock cadence, then
// repeatedly tries to receive a record, folds it if one is ready, and
// otherwise sleeps for min(remaining_window, poll_interval) until the
// window has fully elapsed, at which point it emits (if non-empty) and
// starts the next window.
func (a *Aggregator) runFoldLoop(ctx context.Context, batcher metric.Batcher, batchCh chan<- metric.Batch) error {
	cadence := a.cfg.Cadence
	pollInterval := a.cfg.PollInterval

	alignDelay := time.Duration(time.Now().UnixMilli()%cadence.Milliseconds()) * time.Millisecond
	select {
	case <-time.After(alignDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	agg := metric.NewAggregatedMap()
	receive := a.factory.Sink().Receive()
	windowStart := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-receive:
			a.fold(agg, env)
		default:
		}

		remaining := cadence - time.Since(windowStart)
		if remaining <= 0 {
			windowStart = time.Now()
			if !agg.IsEmpty() {
				batch := batcher.Batch(windowStart, cadence, agg)
				select {
				case batchCh <- batch:
				default:
					a.logger.Error("aggregator batch dropped: downstream channel full")
				}
			}
			continue
		}

		sleep := pollInterval
		if remaining < sleep {
			sleep = remaining
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case env := <-receive:
			timer.Stop()
			a.fold(agg, env)
		case <-timer.C:
		}
	}
}
