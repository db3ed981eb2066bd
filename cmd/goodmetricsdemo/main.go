// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Command goodmetricsdemo wires a Factory, the fold-and-aggregate engine,
// a Prometheus batcher, and an HTTP /metrics endpoint end to end, and
// drives a handful of synthetic scopes so the exposed metrics have
// something to show.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"golang.org/x/term"

	"github.com/lux-metrics/goodmetrics/metric"
	"github.com/lux-metrics/goodmetrics/metric/aggregator"
	"github.com/lux-metrics/goodmetrics/metric/batcher/prombatcher"
)

func main() {
	addr := flag.String("addr", ":9090", "address to serve /metrics on")
	namespace := flag.String("namespace", "goodmetricsdemo", "metric family name prefix")
	cadence := flag.Duration("cadence", 10*time.Second, "aggregation window")
	flag.Parse()

	logger := newLogger()
	slog.SetDefault(logger)

	cfg := metric.NewConfig(metric.WithCadence(*cadence))
	factory := metric.NewDefaultFactory(cfg, logger)
	agg := aggregator.New(factory, cfg, logger)
	batch := prombatcher.NewBatcher(*namespace)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go driveSyntheticLoad(ctx, factory)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(batch, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: *addr, Handler: mux}
		logger.Info("serving metrics", "addr", *addr)
		go func() {
			<-ctx.Done()
			_ = server.Close()
		}()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server exited", "error", err)
		}
	}()

	if err := agg.Run(ctx, batch, func(b metric.Batch) {
		families, _ := b.([]*dto.MetricFamily)
		logger.Debug("window emitted", "families", len(families))
	}); err != nil && ctx.Err() == nil {
		logger.Error("aggregator exited", "error", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05",
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	})
	return slog.New(handler)
}

// driveSyntheticLoad records a handful of scopes every tick so the demo's
// /metrics endpoint always has fresh data to show.
func driveSyntheticLoad(ctx context.Context, factory *metric.Factory) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	routes := []string{"/health", "/widgets", "/widgets/:id"}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			route := routes[rand.Intn(len(routes))]
			guard := factory.RecordScope("http_request")
			guard.Dimension("route", route)
			guard.Measurement("status", metric.Int64Observation(200))
			guard.Distribution("response_bytes", metric.Int64Distribution(int64(50+rand.Intn(5000))))
			guard.Sum("requests_total", 1)
			guard.Close()

			depth := factory.GaugeStatisticSet("pool", "queue_depth", metric.StringDimension("route", route))
			depth.StatisticSet.Observe(int64(rand.Intn(20)))
		}
	}
}
