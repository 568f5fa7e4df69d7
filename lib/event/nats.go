// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/trustmesh-foundation/trustmesh/lib/codec"
)

// NATSSink publishes records to a NATS subject hierarchy for remote
// indexers. The subject is <prefix>.<type>, so a consumer can
// subscribe to "<prefix>.>" for everything or to a single event type.
// The full chained Record is published, letting remote consumers run
// [Verify] over the stream they receive.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSSink wraps an established NATS connection. The connection's
// lifecycle belongs to the caller; closing the sink does not close it.
func NewNATSSink(conn *nats.Conn, prefix string) (*NATSSink, error) {
	if conn == nil {
		return nil, fmt.Errorf("event: nats connection is required")
	}
	if prefix == "" {
		prefix = "trustmesh.events"
	}
	return &NATSSink{conn: conn, prefix: prefix}, nil
}

// Append implements Sink. Publishing is at-least-once from the
// indexer's point of view only if the consumer uses a durable
// subscription; the sink itself does fire-and-forget publishes and
// reports transport errors to the Log.
func (s *NATSSink) Append(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("event: encoding record for publish: %w", err)
	}
	subject := s.prefix + "." + string(record.Type)
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("event: publishing to %s: %w", subject, err)
	}
	return nil
}
