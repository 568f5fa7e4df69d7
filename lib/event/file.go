// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/trustmesh-foundation/trustmesh/lib/codec"
)

const activeSegmentName = "events.active.cbor"

// FileSink writes records to an append-only CBOR segment file. When
// the active segment reaches SegmentBytes it is sealed: compressed
// with zstd to "events-<firstseq>-<lastseq>.cbor.zst" and a fresh
// active segment started. Sealed segments are immutable; together
// with the active segment they hold the full stream.
type FileSink struct {
	dir          string
	segmentBytes int64

	mu       sync.Mutex
	file     *os.File
	size     int64
	firstSeq uint64 // first seq in the active segment; 0 when empty
	lastSeq  uint64
	closed   bool

	// Chain tail across segment boundaries; survives sealing.
	tailSeq uint64
	tailSum [32]byte
}

// FileSinkConfig holds the parameters for opening a file sink.
type FileSinkConfig struct {
	// Dir is the segment directory. Created if absent. Required.
	Dir string

	// SegmentBytes is the size threshold that triggers sealing.
	// Defaults to 4 MiB.
	SegmentBytes int64
}

// OpenFileSink opens a file sink, resuming an existing active segment
// if one is present.
func OpenFileSink(cfg FileSinkConfig) (*FileSink, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("event: file sink Dir is required")
	}
	segmentBytes := cfg.SegmentBytes
	if segmentBytes <= 0 {
		segmentBytes = 4 << 20
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("event: creating segment directory: %w", err)
	}

	sink := &FileSink{dir: cfg.Dir, segmentBytes: segmentBytes}

	path := filepath.Join(cfg.Dir, activeSegmentName)
	if existing, err := ReadSegment(path); err == nil && len(existing) > 0 {
		sink.firstSeq = existing[0].Seq
		sink.lastSeq = existing[len(existing)-1].Seq
		sink.tailSeq = sink.lastSeq
		sink.tailSum = existing[len(existing)-1].Sum
	} else if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	// An empty active segment right after a seal leaves the chain
	// tail in the newest sealed segment.
	if sink.tailSeq == 0 {
		sealed, err := filepath.Glob(filepath.Join(cfg.Dir, "events-*.cbor.zst"))
		if err == nil && len(sealed) > 0 {
			// The zero-padded names sort by sequence.
			records, err := ReadSegment(sealed[len(sealed)-1])
			if err != nil {
				return nil, err
			}
			if len(records) > 0 {
				sink.tailSeq = records[len(records)-1].Seq
				sink.tailSum = records[len(records)-1].Sum
			}
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("event: opening active segment: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("event: stat active segment: %w", err)
	}
	sink.file = file
	sink.size = info.Size()
	return sink, nil
}

// Append implements Sink. Records are CBOR items written back to
// back; CBOR is self-delimiting, so no framing is needed.
func (s *FileSink) Append(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("event: encoding record for segment: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSinkClosed
	}

	if _, err := s.file.Write(encoded); err != nil {
		return fmt.Errorf("event: writing segment: %w", err)
	}
	s.size += int64(len(encoded))
	if s.firstSeq == 0 {
		s.firstSeq = record.Seq
	}
	s.lastSeq = record.Seq
	s.tailSeq = record.Seq
	s.tailSum = record.Sum

	if s.size >= s.segmentBytes {
		if err := s.sealLocked(); err != nil {
			return err
		}
	}
	return nil
}

// sealLocked compresses the active segment into an immutable archive
// and starts a fresh one. Must be called with s.mu held.
func (s *FileSink) sealLocked() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("event: closing active segment: %w", err)
	}

	activePath := filepath.Join(s.dir, activeSegmentName)
	sealedPath := filepath.Join(s.dir, fmt.Sprintf("events-%012d-%012d.cbor.zst", s.firstSeq, s.lastSeq))

	source, err := os.Open(activePath)
	if err != nil {
		return fmt.Errorf("event: reopening segment for sealing: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(sealedPath)
	if err != nil {
		return fmt.Errorf("event: creating sealed segment: %w", err)
	}
	defer destination.Close()

	encoder, err := zstd.NewWriter(destination)
	if err != nil {
		return fmt.Errorf("event: zstd writer: %w", err)
	}
	if _, err := io.Copy(encoder, source); err != nil {
		encoder.Close()
		return fmt.Errorf("event: compressing segment: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("event: finishing sealed segment: %w", err)
	}
	if err := destination.Sync(); err != nil {
		return fmt.Errorf("event: syncing sealed segment: %w", err)
	}

	file, err := os.OpenFile(activePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("event: starting fresh segment: %w", err)
	}
	s.file = file
	s.size = 0
	s.firstSeq = 0
	s.lastSeq = 0
	return nil
}

// Tail implements Tailer.
func (s *FileSink) Tail(context.Context) (uint64, [32]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tailSeq, s.tailSum, s.tailSeq != 0, nil
}

// Close flushes and closes the active segment. Further appends fail.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("event: syncing active segment: %w", err)
	}
	return s.file.Close()
}

// ReadSegment decodes every record in a segment file, decompressing
// first when the path has the sealed ".zst" suffix. Consumers verify
// the result with [Verify].
func ReadSegment(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".zst") {
		decoder, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("event: zstd reader for %s: %w", path, err)
		}
		defer decoder.Close()
		reader = decoder
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("event: reading segment %s: %w", path, err)
	}

	var records []Record
	for len(data) > 0 {
		var record Record
		rest, err := codec.UnmarshalFirst(data, &record)
		if err != nil {
			return nil, fmt.Errorf("event: decoding segment %s at record %d: %w", path, len(records), err)
		}
		records = append(records, record)
		data = rest
	}
	return records, nil
}
