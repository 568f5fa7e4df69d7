// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package substrate defines the storage contract the trustmesh
// registries are written against, plus the two bundled
// implementations.
//
// The registries require very little from storage: a key-value space
// with serialized, all-or-nothing transactions. Every registry
// operation runs inside one Update closure: all validation happens
// against the transaction's view, and an error return discards every
// write the closure made. Concurrent operations on the same entity
// serialize at the store; exactly one wins and the loser observes the
// committed post-state.
//
// [Memory] is the in-process implementation: a map guarded by a
// read-write mutex, with an overlay per Update so that failed
// transactions never touch the base map. It backs tests and
// single-process embeddings.
//
// [OpenSQLite] is the durable implementation: a single-file SQLite
// database accessed through lib/sqlitepool, with IMMEDIATE
// transactions providing the same serialized all-or-nothing
// semantics across process restarts.
//
// Keys are flat strings namespaced by convention ("agent/<addr>",
// "auth/<agent>/<grantee>", ...); values are CBOR documents encoded
// by lib/codec. The substrate itself never interprets either.
package substrate
