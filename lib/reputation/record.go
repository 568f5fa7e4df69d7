// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package reputation

import (
	"context"
	"fmt"

	"github.com/trustmesh-foundation/trustmesh/lib/codec"
	"github.com/trustmesh-foundation/trustmesh/lib/digest"
	"github.com/trustmesh-foundation/trustmesh/lib/event"
	"github.com/trustmesh-foundation/trustmesh/lib/ref"
	"github.com/trustmesh-foundation/trustmesh/lib/substrate"
)

// Issue mints a reputation record against agent and returns its
// address. One unit of the issuer's feedback capability is consumed
// in the same transaction; capability errors propagate unchanged.
// With gated set, the issuer must additionally hold an issuer
// capability. The emitted event carries the context and evidence
// hashes, never the evidence locator.
func (l *Ledger) Issue(ctx context.Context, issuer, agent ref.Address, score uint64, contextHash digest.Digest, evidenceURI string, evidenceHash digest.Digest, gated bool) (ref.Address, error) {
	if score > maxScore {
		return ref.Address{}, ErrScoreOutOfRange
	}
	if evidenceURI == "" {
		return ref.Address{}, ErrInvalidEvidenceURI
	}

	now := l.clock.Unix()
	var (
		record   ref.Address
		sequence uint64
	)
	err := l.store.Update(ctx, func(txn substrate.Txn) error {
		if gated {
			ok, err := hasIssuer(txn, issuer)
			if err != nil {
				return err
			}
			if !ok {
				return ErrIssuerForbidden
			}
		}

		var err error
		sequence, err = l.consumer.VerifyAndConsume(txn, now, agent, issuer)
		if err != nil {
			return err
		}

		record, err = allocateRecordAddress(txn, now)
		if err != nil {
			return err
		}
		return putRecord(txn, record, recordRecord{
			Agent:        agent,
			Issuer:       issuer,
			Score:        score,
			Sequence:     sequence,
			ContextHash:  contextHash,
			EvidenceURI:  evidenceURI,
			EvidenceHash: evidenceHash,
			IssuedAt:     now,
		})
	})
	if err != nil {
		return ref.Address{}, err
	}

	l.log.Append(ctx, event.TypeReputationIssued, now, event.ReputationIssued{
		Record:       record,
		Agent:        agent,
		Issuer:       issuer,
		Score:        score,
		Sequence:     sequence,
		ContextHash:  contextHash,
		EvidenceHash: evidenceHash,
	})
	return record, nil
}

// Revoke sets the record's revoked latch. Only the issuer may revoke,
// only once, and there is no un-revoke.
func (l *Ledger) Revoke(ctx context.Context, issuer, record ref.Address) error {
	now := l.clock.Unix()
	err := l.store.Update(ctx, func(txn substrate.Txn) error {
		stored, err := getRecord(txn, record)
		if err != nil {
			return err
		}
		if stored.Issuer != issuer {
			return ErrNotIssuer
		}
		if stored.Revoked {
			return ErrAlreadyRevoked
		}
		stored.Revoked = true
		return putRecord(txn, record, stored)
	})
	if err != nil {
		return err
	}

	l.log.Append(ctx, event.TypeReputationRevoked, now, event.ReputationRevoked{
		Record: record,
		Issuer: issuer,
	})
	return nil
}

// AppendResponse attaches a response sub-record to record and returns
// its ordinal. Anyone may respond, and revoked records still accept
// responses; the only gate is the per-record fan-out ceiling.
func (l *Ledger) AppendResponse(ctx context.Context, responder, record ref.Address, responseURI string, responseHash digest.Digest) (uint64, error) {
	now := l.clock.Unix()
	var ordinal uint64
	err := l.store.Update(ctx, func(txn substrate.Txn) error {
		stored, err := getRecord(txn, record)
		if err != nil {
			return err
		}
		if stored.ResponseCount >= maxResponses {
			return ErrTooManyResponses
		}
		ordinal = stored.ResponseCount

		encoded, err := codec.Marshal(responseRecord{
			Responder:    responder,
			ResponseURI:  responseURI,
			ResponseHash: responseHash,
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}
		if err := txn.Put(responseKey(record, ordinal), encoded); err != nil {
			return err
		}

		stored.ResponseCount++
		return putRecord(txn, record, stored)
	})
	if err != nil {
		return 0, err
	}

	l.log.Append(ctx, event.TypeResponseAppended, now, event.ResponseAppended{
		Record:       record,
		Responder:    responder,
		Ordinal:      ordinal,
		ResponseHash: responseHash,
	})
	return ordinal, nil
}

// Get returns the record's full read model.
func (l *Ledger) Get(ctx context.Context, record ref.Address) (RecordInfo, error) {
	var info RecordInfo
	err := l.store.View(ctx, func(txn substrate.ReadTxn) error {
		stored, err := getRecord(txn, record)
		if err != nil {
			return err
		}
		info = RecordInfo{
			Agent:         stored.Agent,
			Issuer:        stored.Issuer,
			Score:         stored.Score,
			Sequence:      stored.Sequence,
			ContextHash:   stored.ContextHash,
			EvidenceURI:   stored.EvidenceURI,
			EvidenceHash:  stored.EvidenceHash,
			IssuedAt:      stored.IssuedAt,
			Revoked:       stored.Revoked,
			ResponseCount: stored.ResponseCount,
		}
		return nil
	})
	if err != nil {
		return RecordInfo{}, err
	}
	return info, nil
}

// GetResponse returns one response sub-record by ordinal.
func (l *Ledger) GetResponse(ctx context.Context, record ref.Address, ordinal uint64) (ResponseInfo, error) {
	var info ResponseInfo
	err := l.store.View(ctx, func(txn substrate.ReadTxn) error {
		raw, ok, err := txn.Get(responseKey(record, ordinal))
		if err != nil {
			return err
		}
		if !ok {
			return ErrResponseNotFound
		}
		var stored responseRecord
		if err := codec.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("reputation: corrupt response %s/%d: %w", record, ordinal, err)
		}
		info = ResponseInfo{
			Responder:    stored.Responder,
			ResponseURI:  stored.ResponseURI,
			ResponseHash: stored.ResponseHash,
			CreatedAt:    stored.CreatedAt,
			Ordinal:      ordinal,
		}
		return nil
	})
	if err != nil {
		return ResponseInfo{}, err
	}
	return info, nil
}
