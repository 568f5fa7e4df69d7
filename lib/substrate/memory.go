// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package substrate

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by transactions started after Close.
var ErrClosed = errors.New("substrate: store is closed")

// Memory returns an empty in-memory Store. Writes go to a per-Update
// overlay and are applied to the base map only when the closure
// succeeds, so a failed operation leaves no trace.
func Memory() Store {
	return &memoryStore{base: make(map[string][]byte)}
}

type memoryStore struct {
	mu     sync.RWMutex
	base   map[string][]byte
	closed bool
}

func (s *memoryStore) View(ctx context.Context, fn func(ReadTxn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(readView{base: s.base})
}

func (s *memoryStore) Update(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	txn := &overlayTxn{base: s.base, writes: make(map[string][]byte)}
	if err := fn(txn); err != nil {
		return err
	}

	for key, value := range txn.writes {
		if value == nil {
			delete(s.base, key)
		} else {
			s.base[key] = value
		}
	}
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.base = nil
	return nil
}

// readView serves Get directly from the committed base map.
type readView struct {
	base map[string][]byte
}

func (v readView) Get(key string) ([]byte, bool, error) {
	value, ok := v.base[key]
	return value, ok, nil
}

// overlayTxn buffers writes over the base map. A nil overlay value
// records a deletion. Reads consult the overlay first so a
// transaction observes its own writes.
type overlayTxn struct {
	base   map[string][]byte
	writes map[string][]byte
}

func (t *overlayTxn) Get(key string) ([]byte, bool, error) {
	if value, ok := t.writes[key]; ok {
		if value == nil {
			return nil, false, nil
		}
		return value, true, nil
	}
	value, ok := t.base[key]
	return value, ok, nil
}

func (t *overlayTxn) Put(key string, value []byte) error {
	// Copy so a caller reusing its buffer cannot mutate committed
	// state after the fact.
	stored := make([]byte, len(value))
	copy(stored, value)
	t.writes[key] = stored
	return nil
}

func (t *overlayTxn) Delete(key string) error {
	t.writes[key] = nil
	return nil
}
