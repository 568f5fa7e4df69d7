// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trustmesh-foundation/trustmesh/lib/testutil"
)

func TestFileSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sink, err := OpenFileSink(FileSinkConfig{Dir: dir})
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}

	log := NewLog(nil, sink)
	ctx := context.Background()
	log.Append(ctx, TypeAgentRegistered, 10, AgentRegistered{Agent: testutil.Address(1)})
	log.Append(ctx, TypeReputationRevoked, 11, ReputationRevoked{Record: testutil.Address(2), Issuer: testutil.Address(3)})
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	records, err := ReadSegment(filepath.Join(dir, activeSegmentName))
	if err != nil {
		t.Fatalf("ReadSegment: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if err := Verify(records); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if records[1].Type != TypeReputationRevoked {
		t.Fatalf("record 1 type = %s", records[1].Type)
	}
}

func TestFileSinkSealsSegments(t *testing.T) {
	dir := t.TempDir()
	// Tiny threshold: every append seals a segment.
	sink, err := OpenFileSink(FileSinkConfig{Dir: dir, SegmentBytes: 1})
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}
	log := NewLog(nil, sink)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		log.Append(ctx, TypeAgentUpdated, int64(i), AgentUpdated{Agent: testutil.Address(1)})
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var sealed []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".cbor.zst") {
			sealed = append(sealed, filepath.Join(dir, entry.Name()))
		}
	}
	if len(sealed) != 3 {
		t.Fatalf("got %d sealed segments, want 3", len(sealed))
	}

	// Sealed segments decompress back to verifiable records; names
	// sort in sequence order.
	var all []Record
	for _, path := range sealed {
		records, err := ReadSegment(path)
		if err != nil {
			t.Fatalf("ReadSegment(%s): %v", path, err)
		}
		all = append(all, records...)
	}
	if len(all) != 3 {
		t.Fatalf("got %d records across sealed segments, want 3", len(all))
	}
	if err := Verify(all); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestFileSinkResumesActiveSegment(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	sink, err := OpenFileSink(FileSinkConfig{Dir: dir})
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}
	log := NewLog(nil, sink)
	log.Append(ctx, TypeAgentRegistered, 1, AgentRegistered{Agent: testutil.Address(1)})
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenFileSink(FileSinkConfig{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	seq, sum, ok, err := reopened.Tail(ctx)
	if err != nil || !ok || seq != 1 {
		t.Fatalf("Tail = (%d, ok=%v, err=%v)", seq, ok, err)
	}
	resumed := NewLog(nil, reopened)
	resumed.Resume(seq, sum)
	resumed.Append(ctx, TypeAgentUpdated, 2, AgentUpdated{Agent: testutil.Address(1)})
	if err := reopened.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	records, err := ReadSegment(filepath.Join(dir, activeSegmentName))
	if err != nil {
		t.Fatalf("ReadSegment: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if err := Verify(records); err != nil {
		t.Fatalf("Verify across reopen: %v", err)
	}
}

func TestFileSinkTailAfterSeal(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	sink, err := OpenFileSink(FileSinkConfig{Dir: dir, SegmentBytes: 1})
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}
	log := NewLog(nil, sink)
	log.Append(ctx, TypeAgentRegistered, 1, AgentRegistered{Agent: testutil.Address(1)})
	log.Append(ctx, TypeAgentUpdated, 2, AgentUpdated{Agent: testutil.Address(1)})
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The active segment is empty (every append sealed), so the
	// tail must come from the newest sealed segment.
	reopened, err := OpenFileSink(FileSinkConfig{Dir: dir, SegmentBytes: 1})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	seq, _, ok, err := reopened.Tail(ctx)
	if err != nil || !ok || seq != 2 {
		t.Fatalf("Tail = (%d, ok=%v, err=%v), want seq 2", seq, ok, err)
	}
}
