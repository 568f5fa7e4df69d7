// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/trustmesh-foundation/trustmesh/lib/clock"
	"github.com/trustmesh-foundation/trustmesh/lib/config"
	"github.com/trustmesh-foundation/trustmesh/lib/event"
	"github.com/trustmesh-foundation/trustmesh/lib/identity"
	"github.com/trustmesh-foundation/trustmesh/lib/reputation"
	"github.com/trustmesh-foundation/trustmesh/lib/substrate"
	"github.com/trustmesh-foundation/trustmesh/lib/validation"
)

// Ledger is an assembled trustmesh instance.
type Ledger struct {
	Identity   *identity.Registry
	Reputation *reputation.Ledger
	Validation *validation.Registry

	// Events is the shared log; useful for embedding extra sinks in
	// tests. Registries already hold it.
	Events *event.Log

	store    substrate.Store
	sinks    []func() error
	natsConn *nats.Conn
}

// Options adjusts an Open beyond what the config file carries.
type Options struct {
	// Logger receives operational messages from the substrate and
	// sinks. Nil discards them.
	Logger *slog.Logger

	// Clock overrides the time source. Nil means wall clock.
	Clock clock.Clock
}

// Open builds a ledger from cfg. The caller owns the returned
// ledger's lifecycle and must Close it.
func Open(ctx context.Context, cfg *config.Config, opts Options) (l *Ledger, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	admin, err := cfg.AdminAddress()
	if err != nil {
		return nil, err
	}

	ledger := &Ledger{}
	defer func() {
		if err != nil {
			ledger.Close()
		}
	}()

	switch cfg.Substrate.Driver {
	case "memory":
		ledger.store = substrate.Memory()
	case "sqlite":
		ledger.store, err = substrate.OpenSQLite(substrate.SQLiteConfig{
			Path:     cfg.Substrate.Path,
			PoolSize: cfg.Substrate.PoolSize,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
	}

	var sinks []event.Sink
	if cfg.Events.SQLite != nil {
		sink, err := event.OpenSQLiteSink(event.SQLiteSinkConfig{
			Path:   cfg.Events.SQLite.Path,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		ledger.sinks = append(ledger.sinks, sink.Close)
		sinks = append(sinks, sink)
	}
	if cfg.Events.File != nil {
		sink, err := event.OpenFileSink(event.FileSinkConfig{
			Dir:          cfg.Events.File.Dir,
			SegmentBytes: cfg.Events.File.SegmentBytes,
		})
		if err != nil {
			return nil, err
		}
		ledger.sinks = append(ledger.sinks, sink.Close)
		sinks = append(sinks, sink)
	}
	if cfg.Events.NATS != nil {
		conn, err := nats.Connect(cfg.Events.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("ledger: connecting to nats: %w", err)
		}
		ledger.natsConn = conn
		sink, err := event.NewNATSSink(conn, cfg.Events.NATS.SubjectPrefix)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	log := event.NewLog(logger, sinks...)
	if seq, sum, ok, err := chainTail(ctx, sinks); err != nil {
		return nil, err
	} else if ok {
		log.Resume(seq, sum)
	}
	ledger.Events = log

	ledger.Identity = identity.NewRegistry(ledger.store, clk, log)
	ledger.Reputation, err = reputation.NewLedger(ctx, ledger.store, clk, log, ledger.Identity.Consumer(), admin)
	if err != nil {
		return nil, err
	}
	ledger.Validation = validation.NewRegistry(ledger.store, clk, log)
	return ledger, nil
}

// chainTail reports the most advanced tail among the durable sinks.
// Sinks that lagged (a file sink behind the SQLite sink, say) catch a
// gap, which Verify over their stream will flag rather than hide.
func chainTail(ctx context.Context, sinks []event.Sink) (uint64, [32]byte, bool, error) {
	var (
		bestSeq uint64
		bestSum [32]byte
		found   bool
	)
	for _, sink := range sinks {
		tailer, ok := sink.(event.Tailer)
		if !ok {
			continue
		}
		seq, sum, ok, err := tailer.Tail(ctx)
		if err != nil {
			return 0, [32]byte{}, false, err
		}
		if ok && seq > bestSeq {
			bestSeq, bestSum, found = seq, sum, true
		}
	}
	return bestSeq, bestSum, found, nil
}

// Close releases the substrate, the sinks, and the NATS connection.
func (l *Ledger) Close() error {
	var errs []error
	for _, close := range l.sinks {
		if err := close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.sinks = nil
	if l.natsConn != nil {
		l.natsConn.Close()
		l.natsConn = nil
	}
	if l.store != nil {
		if err := l.store.Close(); err != nil {
			errs = append(errs, err)
		}
		l.store = nil
	}
	return errors.Join(errs...)
}
