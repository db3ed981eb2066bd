// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package natssink is an example downstream sender: it encodes a Batch of
// line-protocol-shaped entries and publishes them to a NATS subject. It
// exists to show how a metric.Batcher's output reaches a real transport,
// not as the only supported one — any publish-capable client works.
package natssink

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/influxdata/line-protocol/v2/lineprotocol"
	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"

	"github.com/lux-metrics/goodmetrics/metric"
)

// Config configures a Sink's connection and publishing behavior.
type Config struct {
	Address       string
	Subject       string
	Username      string
	Password      string
	CredsFilePath string
	Logger        *slog.Logger
}

// Sink publishes metric.Batch values (produced by Batcher in batcher.go) onto
// a NATS subject as line-protocol-encoded byte payloads. Connection
// lifecycle and reconnection are left entirely to nats.go's own handling;
// a publish that fails outright (no active connection) is logged and
// dropped rather than retried, matching the library's "never block the
// aggregator" sending discipline.
type Sink struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger

	mu  sync.Mutex
	enc lineprotocol.Encoder
}

// Connect dials the configured NATS server and returns a ready Sink.
func Connect(cfg Config) (*Sink, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("natssink: missing address")
	}
	if cfg.Subject == "" {
		return nil, fmt.Errorf("natssink: missing subject")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("natssink disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("natssink reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("natssink error", "error", err)
		}),
	)

	conn, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("natssink: connect failed: %w", err)
	}

	return &Sink{conn: conn, subject: cfg.Subject, logger: logger}, nil
}

// Close flushes and closes the underlying NATS connection.
func (s *Sink) Close() {
	s.conn.Flush()
	s.conn.Close()
}

// Send encodes batch (expected to be a []LineEntry, the type Batcher
// produces) and publishes it as one line-protocol payload. It never
// blocks: a connection in a disconnected state fails the publish
// immediately, which Send logs and returns rather than retries, so a
// downstream outage never backs up the aggregator feeding it.
func (s *Sink) Send(batch metric.Batch) {
	entries, ok := batch.([]LineEntry)
	if !ok {
		s.logger.Error("natssink: unexpected batch type, dropping", "type", fmt.Sprintf("%T", batch))
		return
	}
	if len(entries) == 0 {
		return
	}

	s.mu.Lock()
	s.enc.Reset()
	s.enc.SetPrecision(lineprotocol.Nanosecond)
	for _, e := range entries {
		e.encode(&s.enc)
	}
	payload := append([]byte(nil), s.enc.Bytes()...)
	err := s.enc.Err()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("natssink: encode failed, dropping batch", "error", err)
		return
	}

	msg := nats.NewMsg(s.subject)
	msg.Data = payload
	// A per-window ULID as the dedup header lets a JetStream consumer on
	// the other end discard a redelivered batch instead of double-counting
	// it; core NATS subscribers simply ignore the header.
	msg.Header.Set("Nats-Msg-Id", ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String())
	if err := s.conn.PublishMsg(msg); err != nil {
		s.logger.Error("natssink: publish failed, dropping batch", "error", err)
	}
}

// LineEntry is one line-protocol-shaped record: a measurement name, its
// dimensions as tags, and a flat set of numeric fields. Batcher produces
// these from an AggregatedMap.
type LineEntry struct {
	Measurement string
	Tags        []metric.Dimension
	Fields      map[string]float64
	Timestamp   time.Time
}

func (e LineEntry) encode(enc *lineprotocol.Encoder) {
	enc.StartLine(e.Measurement)
	for _, tag := range e.Tags {
		enc.AddTag(tag.Name, dimensionValueString(tag.Value))
	}
	if len(e.Fields) == 0 {
		enc.AddField("value", lineprotocol.MustNewValue(float64(0)))
	}
	for name, value := range e.Fields {
		enc.AddField(name, lineprotocol.MustNewValue(value))
	}
	enc.EndLine(e.Timestamp)
}

func dimensionValueString(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprintf("%v", typed)
	}
}
