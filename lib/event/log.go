// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/trustmesh-foundation/trustmesh/lib/codec"
)

// Sink receives records in sequence order. Implementations must not
// reorder or drop records they accept; a returned error means the
// record was not durably accepted by that sink.
type Sink interface {
	Append(ctx context.Context, record Record) error
}

// Tailer is implemented by durable sinks that can report the last
// record they hold, letting a Log resume an existing chain instead of
// restarting at sequence 1.
type Tailer interface {
	Tail(ctx context.Context) (seq uint64, sum [32]byte, ok bool, err error)
}

// Log assigns sequence numbers, chains records, and fans them out to
// its sinks. Safe for concurrent use; appends are serialized so the
// chain has no gaps or forks.
type Log struct {
	logger *slog.Logger

	mu    sync.Mutex
	sinks []Sink
	seq   uint64
	prev  [32]byte
}

// NewLog creates a Log writing to the given sinks. A nil logger
// discards sink failure reports.
func NewLog(logger *slog.Logger, sinks ...Sink) *Log {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Log{logger: logger, sinks: sinks}
}

// Resume seeds the chain position from a previously persisted tail.
// Must be called before the first Append; typically the ledger
// assembly reads the tail from a durable sink's Tailer.
func (l *Log) Resume(seq uint64, sum [32]byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq = seq
	l.prev = sum
}

// Append encodes payload, chains it, and delivers the record to every
// sink. The ledger state transition has already committed by the time
// Append runs, so sink errors are reported to the logger rather than
// propagated; the chain advances regardless.
func (l *Log) Append(ctx context.Context, typ Type, timestamp int64, payload any) {
	encoded, err := codec.Marshal(payload)
	if err != nil {
		// Payload structs are fixed shapes defined in this package;
		// an encoding failure is a programming error.
		panic(fmt.Sprintf("event: encoding %s payload: %v", typ, err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	record := Record{
		Seq:       l.seq + 1,
		Timestamp: timestamp,
		Type:      typ,
		Payload:   encoded,
		Prev:      l.prev,
	}
	record.Sum = chainSum(record)

	l.seq = record.Seq
	l.prev = record.Sum

	for _, sink := range l.sinks {
		if err := sink.Append(ctx, record); err != nil {
			l.logger.Error("event sink append failed",
				"type", typ,
				"seq", record.Seq,
				"error", err,
			)
		}
	}
}

// chainSum computes the BLAKE3 chain sum of a record: Prev, then
// big-endian Seq and Timestamp, then the type string, then the raw
// payload bytes. The framing is unambiguous because the first three
// fields are fixed-width and the type is length-prefixed.
func chainSum(record Record) [32]byte {
	hasher := blake3.New()
	hasher.Write(record.Prev[:])

	var fixed [8]byte
	binary.BigEndian.PutUint64(fixed[:], record.Seq)
	hasher.Write(fixed[:])
	binary.BigEndian.PutUint64(fixed[:], uint64(record.Timestamp))
	hasher.Write(fixed[:])

	binary.BigEndian.PutUint64(fixed[:], uint64(len(record.Type)))
	hasher.Write(fixed[:])
	hasher.Write([]byte(record.Type))
	hasher.Write(record.Payload)

	var sum [32]byte
	hasher.Sum(sum[:0])
	return sum
}

// Verify walks a contiguous slice of records and checks the chain:
// sequence numbers increment by one, each Prev matches the preceding
// Sum, and each Sum is correct for its contents. The first record's
// Prev is not checked against anything, so a suffix of a log verifies
// against its own head.
func Verify(records []Record) error {
	for i, record := range records {
		if i > 0 {
			previous := records[i-1]
			if record.Seq != previous.Seq+1 {
				return fmt.Errorf("event: sequence gap at %d: %d follows %d", i, record.Seq, previous.Seq)
			}
			if record.Prev != previous.Sum {
				return fmt.Errorf("event: chain break at seq %d: prev does not match preceding sum", record.Seq)
			}
		}
		if record.Sum != chainSum(record) {
			return fmt.Errorf("event: record seq %d has been altered: sum mismatch", record.Seq)
		}
	}
	return nil
}

// Decode unmarshals a record's payload into the struct for its type.
// Callers that know the type can unmarshal directly; Decode is for
// generic consumers such as indexers.
func Decode(record Record) (any, error) {
	var payload any
	switch record.Type {
	case TypeAgentRegistered:
		payload = new(AgentRegistered)
	case TypeAgentUpdated:
		payload = new(AgentUpdated)
	case TypeAgentOwnerChanged:
		payload = new(AgentOwnerChanged)
	case TypeFeedbackAuthGranted:
		payload = new(FeedbackAuthGranted)
	case TypeFeedbackAuthRevoked:
		payload = new(FeedbackAuthRevoked)
	case TypeReputationIssued:
		payload = new(ReputationIssued)
	case TypeReputationRevoked:
		payload = new(ReputationRevoked)
	case TypeResponseAppended:
		payload = new(ResponseAppended)
	case TypeGovernanceTransferred:
		payload = new(GovernanceTransferred)
	case TypeValidationRequested:
		payload = new(ValidationRequested)
	case TypeValidationResponded:
		payload = new(ValidationResponded)
	default:
		return nil, fmt.Errorf("event: unknown event type %q", record.Type)
	}
	if err := codec.Unmarshal(record.Payload, payload); err != nil {
		return nil, fmt.Errorf("event: decoding %s payload: %w", record.Type, err)
	}
	return payload, nil
}

// MemorySink buffers records in memory. It implements Tailer so it
// can stand in for a durable sink in tests.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements Sink.
func (s *MemorySink) Append(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Records returns a snapshot of everything appended so far.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]Record, len(s.records))
	copy(snapshot, s.records)
	return snapshot
}

// Tail implements Tailer.
func (s *MemorySink) Tail(context.Context) (uint64, [32]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return 0, [32]byte{}, false, nil
	}
	last := s.records[len(s.records)-1]
	return last.Seq, last.Sum, true, nil
}

// errSinkClosed is shared by sinks that reject appends after Close.
var errSinkClosed = errors.New("event: sink is closed")
