// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"fmt"

	"github.com/trustmesh-foundation/trustmesh/lib/digest"
	"github.com/trustmesh-foundation/trustmesh/lib/event"
	"github.com/trustmesh-foundation/trustmesh/lib/ref"
	"github.com/trustmesh-foundation/trustmesh/lib/substrate"
)

// Create registers a new agent owned by owner and returns its freshly
// allocated address. The metadata URI must be non-empty; the domain is
// optional. The emitted event carries the digest of the metadata URI,
// never the URI itself.
func (r *Registry) Create(ctx context.Context, owner ref.Address, metadataURI, domain string) (ref.Address, error) {
	if owner.IsZero() {
		return ref.Address{}, fmt.Errorf("identity: owner address is required")
	}
	if metadataURI == "" {
		return ref.Address{}, ErrInvalidMetadataURI
	}

	now := r.clock.Unix()
	var agent ref.Address
	err := r.store.Update(ctx, func(txn substrate.Txn) error {
		var err error
		agent, err = allocateAddress(txn, now)
		if err != nil {
			return err
		}
		return putAgent(txn, agent, agentRecord{
			Owner:       owner,
			MetadataURI: metadataURI,
			Domain:      domain,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return ref.Address{}, err
	}

	r.log.Append(ctx, event.TypeAgentRegistered, now, event.AgentRegistered{
		Agent:        agent,
		Owner:        owner,
		MetadataHash: digest.SumString(metadataURI),
	})
	return agent, nil
}

// Update replaces the agent's metadata URI and/or domain. The caller
// must be the stored owner. Nil fields in update are untouched; a
// provided metadata URI must be non-empty.
func (r *Registry) Update(ctx context.Context, caller, agent ref.Address, update AgentUpdate) error {
	if update.MetadataURI != nil && *update.MetadataURI == "" {
		return ErrInvalidMetadataURI
	}

	now := r.clock.Unix()
	uriChanged := false
	err := r.store.Update(ctx, func(txn substrate.Txn) error {
		record, err := getAgent(txn, agent)
		if err != nil {
			return err
		}
		if record.Owner != caller {
			return ErrNotOwner
		}
		if update.MetadataURI != nil {
			uriChanged = *update.MetadataURI != record.MetadataURI
			record.MetadataURI = *update.MetadataURI
		}
		if update.Domain != nil {
			record.Domain = *update.Domain
		}
		return putAgent(txn, agent, record)
	})
	if err != nil {
		return err
	}

	payload := event.AgentUpdated{
		Agent:         agent,
		DomainChanged: update.Domain != nil,
	}
	if uriChanged {
		payload.MetadataHash = digest.SumString(*update.MetadataURI)
	}
	r.log.Append(ctx, event.TypeAgentUpdated, now, payload)
	return nil
}

// TransferOwner hands the agent to newOwner. The caller must be the
// stored owner. The new owner is not validated beyond being an
// address; an unreachable owner is the transferor's mistake, not the
// registry's concern.
func (r *Registry) TransferOwner(ctx context.Context, caller, agent, newOwner ref.Address) error {
	now := r.clock.Unix()
	err := r.store.Update(ctx, func(txn substrate.Txn) error {
		record, err := getAgent(txn, agent)
		if err != nil {
			return err
		}
		if record.Owner != caller {
			return ErrNotOwner
		}
		record.Owner = newOwner
		return putAgent(txn, agent, record)
	})
	if err != nil {
		return err
	}

	r.log.Append(ctx, event.TypeAgentOwnerChanged, now, event.AgentOwnerChanged{
		Agent:         agent,
		PreviousOwner: caller,
		NewOwner:      newOwner,
	})
	return nil
}

// GetInfo returns the agent's owner, metadata locator, and domain.
func (r *Registry) GetInfo(ctx context.Context, agent ref.Address) (AgentInfo, error) {
	var info AgentInfo
	err := r.store.View(ctx, func(txn substrate.ReadTxn) error {
		record, err := getAgent(txn, agent)
		if err != nil {
			return err
		}
		info = AgentInfo{
			Owner:       record.Owner,
			MetadataURI: record.MetadataURI,
			Domain:      record.Domain,
		}
		return nil
	})
	if err != nil {
		return AgentInfo{}, err
	}
	return info, nil
}
