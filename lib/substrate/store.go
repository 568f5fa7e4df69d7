// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package substrate

import "context"

// ReadTxn is the read-only view a transaction exposes.
type ReadTxn interface {
	// Get returns the value stored under key. The second return is
	// false when the key is absent; an absent key is not an error.
	// The returned slice must not be modified or retained past the
	// transaction.
	Get(key string) ([]byte, bool, error)
}

// Txn is the read-write view an Update closure operates on. Writes
// become visible to subsequent reads within the same transaction and
// to other transactions only after the closure returns nil.
type Txn interface {
	ReadTxn

	// Put stores value under key, overwriting any prior value.
	Put(key string, value []byte) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string) error
}

// Store is the atomic key-value substrate. Transactions are
// serialized: at most one Update executes at a time, and View
// closures observe only committed state.
type Store interface {
	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(ReadTxn) error) error

	// Update runs fn in a read-write transaction. If fn returns an
	// error, every write it made is discarded and the same error is
	// returned; otherwise all writes commit together.
	Update(ctx context.Context, fn func(Txn) error) error

	// Close releases the store's resources. No transactions may be
	// started after Close.
	Close() error
}
