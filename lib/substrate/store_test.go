// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package substrate_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/trustmesh-foundation/trustmesh/lib/substrate"
)

// forEachStore runs a subtest against both implementations, since the
// registries must behave identically on either.
func forEachStore(t *testing.T, run func(t *testing.T, store substrate.Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		store := substrate.Memory()
		t.Cleanup(func() { store.Close() })
		run(t, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := substrate.OpenSQLite(substrate.SQLiteConfig{
			Path: filepath.Join(t.TempDir(), "ledger.db"),
		})
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		run(t, store)
	})
}

func get(t *testing.T, store substrate.Store, key string) ([]byte, bool) {
	t.Helper()
	var value []byte
	var ok bool
	err := store.View(context.Background(), func(txn substrate.ReadTxn) error {
		var err error
		value, ok, err = txn.Get(key)
		return err
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	return value, ok
}

func TestPutGetDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store substrate.Store) {
		ctx := context.Background()

		err := store.Update(ctx, func(txn substrate.Txn) error {
			return txn.Put("agent/one", []byte("alpha"))
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}

		value, ok := get(t, store, "agent/one")
		if !ok || string(value) != "alpha" {
			t.Fatalf("Get = (%q, %v), want (alpha, true)", value, ok)
		}

		if _, ok := get(t, store, "agent/absent"); ok {
			t.Fatal("Get of absent key reported present")
		}

		err = store.Update(ctx, func(txn substrate.Txn) error {
			return txn.Delete("agent/one")
		})
		if err != nil {
			t.Fatalf("Update delete: %v", err)
		}
		if _, ok := get(t, store, "agent/one"); ok {
			t.Fatal("key survived Delete")
		}
	})
}

func TestFailedUpdateLeavesNoTrace(t *testing.T) {
	forEachStore(t, func(t *testing.T, store substrate.Store) {
		ctx := context.Background()

		err := store.Update(ctx, func(txn substrate.Txn) error {
			return txn.Put("auth/a/b", []byte("before"))
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}

		boom := errors.New("validation failed after partial writes")
		err = store.Update(ctx, func(txn substrate.Txn) error {
			if err := txn.Put("auth/a/b", []byte("after")); err != nil {
				return err
			}
			if err := txn.Put("rep/new", []byte("record")); err != nil {
				return err
			}
			if err := txn.Delete("auth/a/b"); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Update error = %v, want %v", err, boom)
		}

		value, ok := get(t, store, "auth/a/b")
		if !ok || string(value) != "before" {
			t.Fatalf("auth/a/b = (%q, %v), want pre-transaction value", value, ok)
		}
		if _, ok := get(t, store, "rep/new"); ok {
			t.Fatal("write from failed transaction is visible")
		}
	})
}

func TestTransactionSeesOwnWrites(t *testing.T) {
	forEachStore(t, func(t *testing.T, store substrate.Store) {
		err := store.Update(context.Background(), func(txn substrate.Txn) error {
			if err := txn.Put("k", []byte("v")); err != nil {
				return err
			}
			value, ok, err := txn.Get("k")
			if err != nil {
				return err
			}
			if !ok || string(value) != "v" {
				t.Fatalf("in-transaction Get = (%q, %v), want (v, true)", value, ok)
			}
			if err := txn.Delete("k"); err != nil {
				return err
			}
			if _, ok, err := txn.Get("k"); err != nil || ok {
				t.Fatalf("in-transaction Get after Delete reported present (err=%v)", err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
	})
}

func TestOverwrite(t *testing.T) {
	forEachStore(t, func(t *testing.T, store substrate.Store) {
		ctx := context.Background()
		for _, value := range []string{"first", "second"} {
			err := store.Update(ctx, func(txn substrate.Txn) error {
				return txn.Put("gov/admin", []byte(value))
			})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
		}
		value, ok := get(t, store, "gov/admin")
		if !ok || string(value) != "second" {
			t.Fatalf("Get = (%q, %v), want (second, true)", value, ok)
		}
	})
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := substrate.OpenSQLite(substrate.SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	err = store.Update(ctx, func(txn substrate.Txn) error {
		return txn.Put("rep/record", []byte("durable"))
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := substrate.OpenSQLite(substrate.SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })

	value, ok := get(t, reopened, "rep/record")
	if !ok || string(value) != "durable" {
		t.Fatalf("Get after reopen = (%q, %v), want (durable, true)", value, ok)
	}
}

func TestMemoryClosedStore(t *testing.T) {
	store := substrate.Memory()
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	err := store.Update(context.Background(), func(txn substrate.Txn) error { return nil })
	if !errors.Is(err, substrate.ErrClosed) {
		t.Fatalf("Update on closed store = %v, want ErrClosed", err)
	}
}
