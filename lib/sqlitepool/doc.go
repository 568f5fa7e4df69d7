// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides trustmesh's standard SQLite connection
// pool.
//
// The durable substrate and the SQLite event sink both store their
// state in single-file SQLite databases opened through this package.
// It wraps zombiezen.com/go/sqlite with production defaults: WAL
// journal mode, NORMAL synchronous, a busy timeout for write
// contention, and memory-mapped reads.
//
// Unlike an ephemeral cache, a trust ledger's database IS the source
// of truth, so synchronous=FULL is applied on top of WAL: committed
// transactions survive OS crashes and power loss, not just process
// crashes. Ledger write rates are low (every write is a registry
// state transition), so fsync-per-commit cost is irrelevant here.
//
// Callers [Pool.Take] a connection, perform work, and [Pool.Put] it
// back. Connections are not safe for concurrent use; each goroutine
// holds its own connection for the duration of its work. The package
// is intentionally thin: it applies pragmas and exposes the zombiezen
// types directly; callers write SQL and manage transactions with
// sqlitex.ImmediateTransaction.
package sqlitepool
