// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package event is the append-only event log the registries publish
// to. It is the indexing interface: external consumers reconstruct
// ledger state from the event stream without re-reading the substrate,
// so every event carries the identifiers, digests, and timestamp
// needed for that, and never a raw content payload, only locator
// digests.
//
// Events are CBOR payloads wrapped in a [Record] envelope. Records
// form a BLAKE3 hash chain: each record's Sum covers the previous
// record's Sum together with its own sequence number, timestamp, type,
// and payload bytes. A consumer holding the tail sum can detect any
// dropped, reordered, or altered record with [Verify].
//
// A [Log] owns the chain state and fans records out to one or more
// [Sink] implementations:
//
//   - [MemorySink]: in-process buffer, used by tests and embedders
//     that index synchronously.
//   - [SQLiteSink]: durable table, survives restarts; the Log resumes
//     the chain from its tail.
//   - [NATSSink]: publishes records to a NATS subject hierarchy for
//     remote indexers.
//   - [FileSink]: append-only CBOR segment files, sealed and
//     zstd-compressed when they reach a size threshold; the cold
//     archive format.
//
// Sink failures do not affect ledger state. Registries append only
// after their substrate transaction has committed; a failing sink is
// reported to the Log's logger and the remaining sinks still receive
// the record.
package event
