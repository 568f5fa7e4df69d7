// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/trustmesh-foundation/trustmesh/lib/sqlitepool"
)

const eventSchema = `
CREATE TABLE IF NOT EXISTS events (
	seq       INTEGER PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	type      TEXT NOT NULL,
	payload   BLOB NOT NULL,
	prev      BLOB NOT NULL,
	sum       BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS events_by_type ON events (type, seq);
`

// SQLiteSink stores records in a SQLite table, one row per record,
// keyed by sequence number. It implements Tailer so a Log can resume
// the chain after a restart.
type SQLiteSink struct {
	pool *sqlitepool.Pool
}

// SQLiteSinkConfig holds the parameters for opening a SQLite sink.
type SQLiteSinkConfig struct {
	// Path is the filesystem path to the database file. Required.
	// The sink may share a file with the substrate; they use
	// disjoint tables.
	Path string

	// PoolSize is the connection pool size. Defaults to 4.
	PoolSize int

	// Logger receives operational messages.
	Logger *slog.Logger
}

// OpenSQLiteSink opens (creating if necessary) a durable event sink.
func OpenSQLiteSink(cfg SQLiteSinkConfig) (*SQLiteSink, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, eventSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("event: %w", err)
	}
	return &SQLiteSink{pool: pool}, nil
}

// Append implements Sink. The INTEGER PRIMARY KEY on seq makes a
// replayed or forked sequence number a constraint error rather than
// silent corruption.
func (s *SQLiteSink) Append(ctx context.Context, record Record) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO events (seq, timestamp, type, payload, prev, sum) VALUES (?, ?, ?, ?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{
			int64(record.Seq),
			record.Timestamp,
			string(record.Type),
			[]byte(record.Payload),
			record.Prev[:],
			record.Sum[:],
		}})
	if err != nil {
		return fmt.Errorf("event: append seq %d: %w", record.Seq, err)
	}
	return nil
}

// Tail implements Tailer.
func (s *SQLiteSink) Tail(ctx context.Context) (uint64, [32]byte, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, [32]byte{}, false, err
	}
	defer s.pool.Put(conn)

	var seq uint64
	var sum [32]byte
	var found bool
	err = sqlitex.Execute(conn,
		"SELECT seq, sum FROM events ORDER BY seq DESC LIMIT 1",
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			seq = uint64(stmt.ColumnInt64(0))
			if stmt.ColumnLen(1) != len(sum) {
				return fmt.Errorf("event: tail sum is %d bytes, want %d", stmt.ColumnLen(1), len(sum))
			}
			stmt.ColumnBytes(1, sum[:])
			return nil
		}})
	if err != nil {
		return 0, [32]byte{}, false, err
	}
	return seq, sum, found, nil
}

// Range calls fn for each stored record with seq >= from, in sequence
// order. fn returning an error stops the scan and propagates.
func (s *SQLiteSink) Range(ctx context.Context, from uint64, fn func(Record) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	return sqlitex.Execute(conn,
		"SELECT seq, timestamp, type, payload, prev, sum FROM events WHERE seq >= ? ORDER BY seq",
		&sqlitex.ExecOptions{
			Args: []any{int64(from)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				record := Record{
					Seq:       uint64(stmt.ColumnInt64(0)),
					Timestamp: stmt.ColumnInt64(1),
					Type:      Type(stmt.ColumnText(2)),
				}
				record.Payload = make([]byte, stmt.ColumnLen(3))
				stmt.ColumnBytes(3, record.Payload)
				if stmt.ColumnLen(4) != len(record.Prev) || stmt.ColumnLen(5) != len(record.Sum) {
					return fmt.Errorf("event: seq %d has malformed chain sums", record.Seq)
				}
				stmt.ColumnBytes(4, record.Prev[:])
				stmt.ColumnBytes(5, record.Sum[:])
				return fn(record)
			},
		})
}

// Close releases the sink's pool.
func (s *SQLiteSink) Close() error {
	return s.pool.Close()
}
