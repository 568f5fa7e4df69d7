// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package substrate

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/trustmesh-foundation/trustmesh/lib/sqlitepool"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID;
`

// SQLiteConfig holds the parameters for opening a durable store.
type SQLiteConfig struct {
	// Path is the filesystem path to the database file. Required.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Logger receives operational messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// OpenSQLite opens (creating if necessary) a durable Store backed by
// a single-file SQLite database. Update transactions run under
// IMMEDIATE mode, which takes the write lock up front and gives the
// same serialized, all-or-nothing behavior as the in-memory store.
func OpenSQLite(cfg SQLiteConfig) (Store, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, kvSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("substrate: %w", err)
	}
	return &sqliteStore{pool: pool}, nil
}

type sqliteStore struct {
	pool *sqlitepool.Pool
}

func (s *sqliteStore) View(ctx context.Context, fn func(ReadTxn) error) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	// A savepoint gives the closure a consistent snapshot across
	// multiple Gets even while another connection commits writes.
	release := sqlitex.Save(conn)
	defer release(&err)

	return fn(sqliteTxn{conn: conn})
}

func (s *sqliteStore) Update(ctx context.Context, fn func(Txn) error) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("substrate: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	return fn(sqliteTxn{conn: conn})
}

func (s *sqliteStore) Close() error {
	return s.pool.Close()
}

// sqliteTxn adapts a borrowed connection to the Txn interface. The
// enclosing transaction (savepoint for View, IMMEDIATE for Update)
// provides atomicity; the adapter only moves bytes.
type sqliteTxn struct {
	conn *sqlite.Conn
}

func (t sqliteTxn) Get(key string) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := sqlitex.Execute(t.conn, "SELECT value FROM kv WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			value = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, value)
			return nil
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("substrate: get %q: %w", key, err)
	}
	return value, found, nil
}

func (t sqliteTxn) Put(key string, value []byte) error {
	err := sqlitex.Execute(t.conn,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		&sqlitex.ExecOptions{Args: []any{key, value}})
	if err != nil {
		return fmt.Errorf("substrate: put %q: %w", key, err)
	}
	return nil
}

func (t sqliteTxn) Delete(key string) error {
	err := sqlitex.Execute(t.conn, "DELETE FROM kv WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
	})
	if err != nil {
		return fmt.Errorf("substrate: delete %q: %w", key, err)
	}
	return nil
}
