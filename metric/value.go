// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metric is an in-process metrics recording and aggregation
// library for latency-sensitive services. Application code records
// structured observations — named scopes with dimensions, point
// measurements, distributions, and long-lived gauges — through a Factory;
// the library folds them over fixed windows into compact summaries handed
// to a pluggable Batcher. Wire protocols and transport are a collaborator's
// problem, not this package's.
package metric

// Dimension is a key/value tag attached to a scope. Value is expected to
// be a string, bool, uint64, or int64; Go's strings and small integers are
// already cheap to copy and share backing storage, so unlike the
// value-model this package is modeled on, there is no separate "borrowed
// vs owned vs shared" string variant here — a plain string covers all
// three cases an idiomatic Go reader would expect.
type Dimension struct {
	Name  string
	Value any
}

// StringDimension returns a string-valued Dimension.
func StringDimension(name, value string) Dimension {
	return Dimension{Name: name, Value: value}
}

// BoolDimension returns a bool-valued Dimension.
func BoolDimension(name string, value bool) Dimension {
	return Dimension{Name: name, Value: value}
}

// Uint64Dimension returns a uint64-valued Dimension.
func Uint64Dimension(name string, value uint64) Dimension {
	return Dimension{Name: name, Value: value}
}

// Int64Dimension returns an int64-valued Dimension.
func Int64Dimension(name string, value int64) Dimension {
	return Dimension{Name: name, Value: value}
}

// Observation is a single numeric value intended to feed a StatisticSet.
// Every numeric width coerces to a signed 64-bit accumulator value at
// construction time; floats truncate toward zero, matching the specified
// cast.
type Observation struct {
	asInt64 int64
}

func Int32Observation(v int32) Observation   { return Observation{asInt64: int64(v)} }
func Int64Observation(v int64) Observation   { return Observation{asInt64: v} }
func Uint32Observation(v uint32) Observation { return Observation{asInt64: int64(v)} }
func Uint64Observation(v uint64) Observation { return Observation{asInt64: int64(v)} }
func Float32Observation(v float32) Observation {
	return Observation{asInt64: int64(v)}
}
func Float64Observation(v float64) Observation {
	return Observation{asInt64: int64(v)}
}

// AsInt64 returns the observation's signed 64-bit accumulation value.
func (o Observation) AsInt64() int64 { return o.asInt64 }

// Distribution is a value, or batch of values, intended to feed a
// histogram-like aggregation. The single-value constructors carry exactly
// one signed 64-bit sample; Int64SliceDistribution carries as many as its
// input, which may be none. TimerDistribution is the variant a Timer guard
// produces from an elapsed nanosecond count.
type Distribution struct {
	values []int64
}

// Int64Distribution wraps a single signed 64-bit sample.
func Int64Distribution(v int64) Distribution {
	return Distribution{values: []int64{v}}
}

// Int32Distribution wraps a single 32-bit sample.
func Int32Distribution(v int32) Distribution {
	return Distribution{values: []int64{int64(v)}}
}

// Int64SliceDistribution wraps a finite sequence of samples, absorbed as a
// batch.
func Int64SliceDistribution(vs []int64) Distribution {
	cp := make([]int64, len(vs))
	copy(cp, vs)
	return Distribution{values: cp}
}

// TimerDistribution wraps a single elapsed-nanosecond sample, the variant
// produced by a Timer guard on Stop.
func TimerDistribution(elapsedNanos int64) Distribution {
	return Distribution{values: []int64{elapsedNanos}}
}

// Values returns the distribution's samples. Callers must not mutate the
// returned slice.
func (d Distribution) Values() []int64 { return d.values }

// MeasurementKind identifies which of the three Measurement variants is
// populated.
type MeasurementKind int

const (
	MeasurementObservation MeasurementKind = iota
	MeasurementDistribution
	MeasurementSum
)

// Measurement is a tagged union of {Observation, Distribution, monotonic
// sum contribution}, attached to a scope record under a name.
type Measurement struct {
	kind         MeasurementKind
	observation  Observation
	distribution Distribution
	sum          int64
}

func observationMeasurement(o Observation) Measurement {
	return Measurement{kind: MeasurementObservation, observation: o}
}

func distributionMeasurement(d Distribution) Measurement {
	return Measurement{kind: MeasurementDistribution, distribution: d}
}

func sumMeasurement(delta int64) Measurement {
	return Measurement{kind: MeasurementSum, sum: delta}
}

// Kind reports which variant is populated.
func (m Measurement) Kind() MeasurementKind { return m.kind }

// Observation returns the measurement's Observation payload. Only valid
// when Kind() == MeasurementObservation.
func (m Measurement) Observation() Observation { return m.observation }

// Distribution returns the measurement's Distribution payload. Only valid
// when Kind() == MeasurementDistribution.
func (m Measurement) Distribution() Distribution { return m.distribution }

// Sum returns the measurement's sum-contribution payload. Only valid when
// Kind() == MeasurementSum.
func (m Measurement) Sum() int64 { return m.sum }
