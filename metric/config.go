// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import "time"

// DistributionModeKind selects which aggregation kind a Distribution
// measurement folds into.
type DistributionModeKind int

const (
	DistributionModeHistogram DistributionModeKind = iota
	DistributionModeExponentialHistogram
	DistributionModeTDigest
)

// DistributionMode configures how Distribution measurements are
// aggregated. ExponentialHistogramMaxBuckets/ExponentialHistogramScale are only
// consulted when Kind == DistributionModeExponentialHistogram.
type DistributionMode struct {
	Kind                          DistributionModeKind
	ExponentialHistogramMaxBuckets int
	ExponentialHistogramScale      int
}

// Defaults matching the project's conventional values.
const (
	DefaultCadence               = 10 * time.Second
	DefaultPollInterval           = 5 * time.Millisecond
	DefaultSinkCapacity           = 1024
	DefaultBatchChannelCapacity   = 128
	DefaultAllocatorCacheSize     = 64
	DefaultAllocatorSlotCount     = 8
)

// Config holds every option recognized at factory/aggregator construction.
type Config struct {
	DistributionMode      DistributionMode
	DefaultBehaviors      Behavior
	Disabled              bool
	AllocatorCacheSize    int
	Cadence               time.Duration
	PollInterval          time.Duration
	SinkCapacity          int
	BatchChannelCapacity  int
}

// Option mutates a Config during construction.
type Option func(*Config)

// NewConfig returns a Config populated with defaults, then applies opts.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		DistributionMode:     DistributionMode{Kind: DistributionModeHistogram},
		AllocatorCacheSize:   DefaultAllocatorCacheSize,
		Cadence:              DefaultCadence,
		PollInterval:         DefaultPollInterval,
		SinkCapacity:         DefaultSinkCapacity,
		BatchChannelCapacity: DefaultBatchChannelCapacity,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithDistributionMode selects the aggregation kind for Distribution
// measurements.
func WithDistributionMode(mode DistributionMode) Option {
	return func(c *Config) { c.DistributionMode = mode }
}

// WithDefaultBehaviors sets the behavior bitset stamped onto every opened
// scope.
func WithDefaultBehaviors(b Behavior) Option {
	return func(c *Config) { c.DefaultBehaviors = b }
}

// WithDisabled marks every opened scope Suppress in addition to any
// configured default behaviors.
func WithDisabled(disabled bool) Option {
	return func(c *Config) { c.Disabled = disabled }
}

// WithAllocatorCacheSize sets the total capacity across all pool slots.
func WithAllocatorCacheSize(size int) Option {
	return func(c *Config) { c.AllocatorCacheSize = size }
}

// WithCadence sets the emit window for both the aggregator and the gauge
// reporter.
func WithCadence(cadence time.Duration) Option {
	return func(c *Config) { c.Cadence = cadence }
}

// WithPollInterval sets the consumer sleep granularity.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) { c.PollInterval = interval }
}

// WithSinkCapacity sets the bounded queue depth between producers and the
// aggregator.
func WithSinkCapacity(capacity int) Option {
	return func(c *Config) { c.SinkCapacity = capacity }
}

// WithBatchChannelCapacity sets the bounded downstream batch channel depth.
func WithBatchChannelCapacity(capacity int) Option {
	return func(c *Config) { c.BatchChannelCapacity = capacity }
}
