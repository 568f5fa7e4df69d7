// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"errors"

	"github.com/trustmesh-foundation/trustmesh/lib/event"
	"github.com/trustmesh-foundation/trustmesh/lib/ref"
	"github.com/trustmesh-foundation/trustmesh/lib/substrate"
)

// Grant creates or overwrites the feedback capability for
// (agent, grantee). The caller must be the agent's owner and the
// expiry must be strictly in the future.
//
// Re-granting overwrites the ceiling and expiry but preserves the
// consumed counter. A grantor who wants a fresh counter revokes first
// and grants again; silently zeroing consumption on re-grant would
// let a stale grant double a counterparty's effective quota.
func (r *Registry) Grant(ctx context.Context, caller, agent, grantee ref.Address, ceiling uint64, expiresAt int64) error {
	now := r.clock.Unix()
	if expiresAt <= now {
		return ErrInvalidExpiry
	}

	err := r.store.Update(ctx, func(txn substrate.Txn) error {
		record, err := getAgent(txn, agent)
		if err != nil {
			return err
		}
		if record.Owner != caller {
			return ErrNotOwner
		}

		capability := capabilityRecord{Ceiling: ceiling, ExpiresAt: expiresAt}
		if existing, err := getCapability(txn, agent, grantee); err == nil {
			capability.Consumed = existing.Consumed
		} else if !errors.Is(err, ErrAuthNotFound) {
			return err
		}
		return putCapability(txn, agent, grantee, capability)
	})
	if err != nil {
		return err
	}

	r.log.Append(ctx, event.TypeFeedbackAuthGranted, now, event.FeedbackAuthGranted{
		Agent:     agent,
		Grantee:   grantee,
		Ceiling:   ceiling,
		ExpiresAt: expiresAt,
	})
	return nil
}

// Revoke deletes the feedback capability for (agent, grantee). The
// caller must be the agent's owner; the capability must exist.
func (r *Registry) Revoke(ctx context.Context, caller, agent, grantee ref.Address) error {
	now := r.clock.Unix()
	err := r.store.Update(ctx, func(txn substrate.Txn) error {
		record, err := getAgent(txn, agent)
		if err != nil {
			return err
		}
		if record.Owner != caller {
			return ErrNotOwner
		}
		if _, err := getCapability(txn, agent, grantee); err != nil {
			return err
		}
		return txn.Delete(authKey(agent, grantee))
	})
	if err != nil {
		return err
	}

	r.log.Append(ctx, event.TypeFeedbackAuthRevoked, now, event.FeedbackAuthRevoked{
		Agent:   agent,
		Grantee: grantee,
	})
	return nil
}

// HasValidAuth reports whether grantee currently holds a usable
// capability for agent: it exists, has not expired, and has quota
// remaining. Missing agents and missing capabilities both report
// false; this read never fails on absence.
func (r *Registry) HasValidAuth(ctx context.Context, agent, grantee ref.Address) (bool, error) {
	now := r.clock.Unix()
	valid := false
	err := r.store.View(ctx, func(txn substrate.ReadTxn) error {
		capability, err := getCapability(txn, agent, grantee)
		if errors.Is(err, ErrAuthNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		valid = now < capability.ExpiresAt && capability.Consumed < capability.Ceiling
		return nil
	})
	if err != nil {
		return false, err
	}
	return valid, nil
}

// GetAuth returns the capability for (agent, grantee), including its
// consumed counter. Expired and exhausted capabilities are still
// returned; both outcomes are observable states, not deletions.
func (r *Registry) GetAuth(ctx context.Context, agent, grantee ref.Address) (Capability, error) {
	var capability Capability
	err := r.store.View(ctx, func(txn substrate.ReadTxn) error {
		record, err := getCapability(txn, agent, grantee)
		if err != nil {
			return err
		}
		capability = Capability{
			Ceiling:   record.Ceiling,
			Consumed:  record.Consumed,
			ExpiresAt: record.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return Capability{}, err
	}
	return capability, nil
}

// Consumer returns the narrow verify-and-consume handle that the
// Reputation Ledger holds. It is the only path that moves a consumed
// counter, and it operates inside the caller's transaction so the
// consumption and the caller's own writes commit as one unit.
func (r *Registry) Consumer() Consumer {
	return Consumer{registry: r}
}

// Consumer is the capability-consuming handle. The zero value is
// inert; only [Registry.Consumer] issues a working one, which keeps
// "who may consume quota" an explicit wiring decision rather than an
// ambient permission.
type Consumer struct {
	registry *Registry
}

// VerifyAndConsume checks that grantee holds a live capability for
// agent with quota remaining, increments the consumed counter, and
// returns the post-increment value as the issuance sequence index.
//
// The checks run in a fixed order so concurrent racers fail
// deterministically: existence, then expiry, then quota.
func (c Consumer) VerifyAndConsume(txn substrate.Txn, now int64, agent, grantee ref.Address) (uint64, error) {
	if c.registry == nil {
		return 0, errors.New("identity: consumer was not issued by a registry")
	}
	capability, err := getCapability(txn, agent, grantee)
	if err != nil {
		return 0, err
	}
	if now >= capability.ExpiresAt {
		return 0, ErrAuthExpired
	}
	if capability.Consumed >= capability.Ceiling {
		return 0, ErrQuotaExceeded
	}
	capability.Consumed++
	if err := putCapability(txn, agent, grantee, capability); err != nil {
		return 0, err
	}
	return capability.Consumed, nil
}
