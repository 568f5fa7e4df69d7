// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/trustmesh-foundation/trustmesh/lib/clock"
	"github.com/trustmesh-foundation/trustmesh/lib/codec"
	"github.com/trustmesh-foundation/trustmesh/lib/digest"
	"github.com/trustmesh-foundation/trustmesh/lib/event"
	"github.com/trustmesh-foundation/trustmesh/lib/ref"
	"github.com/trustmesh-foundation/trustmesh/lib/substrate"
)

// Errors returned by registry operations.
var (
	ErrInvalidTTL         = errors.New("validation: ttl out of range")
	ErrRequestExists      = errors.New("validation: request identifier already exists")
	ErrRequestNotFound    = errors.New("validation: pending request not found")
	ErrRequestExpired     = errors.New("validation: request deadline passed")
	ErrNotValidator       = errors.New("validation: caller is not the designated validator")
	ErrResponseOutOfRange = errors.New("validation: response score exceeds 100")
	ErrValidationNotFound = errors.New("validation: completed validation not found")
)

const (
	// maxTTL caps request validity at 30 days.
	maxTTL = int64(30 * 24 * 60 * 60)

	maxScore = 100
)

// pendingRecord is the stored form of an unresolved request.
type pendingRecord struct {
	Agent     ref.Address   `cbor:"1,keyasint"`
	Validator ref.Address   `cbor:"2,keyasint"`
	Requester ref.Address   `cbor:"3,keyasint"`
	DataHash  digest.Digest `cbor:"4,keyasint"`
	CreatedAt int64         `cbor:"5,keyasint"`
	TTL       int64         `cbor:"6,keyasint"`
}

// completedRecord is the stored form of a resolved request.
type completedRecord struct {
	Agent        ref.Address   `cbor:"1,keyasint"`
	Validator    ref.Address   `cbor:"2,keyasint"`
	DataHash     digest.Digest `cbor:"3,keyasint"`
	Score        uint64        `cbor:"4,keyasint"`
	ResponseURI  string        `cbor:"5,keyasint"`
	ResponseHash digest.Digest `cbor:"6,keyasint"`
	RespondedAt  int64         `cbor:"7,keyasint"`
}

// PendingInfo is the public read model of an unresolved request.
type PendingInfo struct {
	Agent     ref.Address
	Validator ref.Address
	CreatedAt int64
	TTL       int64
}

// Status is the public read model of a resolved request.
type Status struct {
	Agent       ref.Address
	Validator   ref.Address
	Score       uint64
	RespondedAt int64
}

// Registry owns pending and completed validation requests.
type Registry struct {
	store substrate.Store
	clock clock.Clock
	log   *event.Log
}

// NewRegistry creates a registry over the given substrate. No
// bootstrap state is required.
func NewRegistry(store substrate.Store, clk clock.Clock, log *event.Log) *Registry {
	return &Registry{store: store, clock: clk, log: log}
}

func pendingKey(id digest.Digest) string {
	return "val/pending/" + id.String()
}

func completedKey(id digest.Digest) string {
	return "val/done/" + id.String()
}

// requestID derives the identifier for a request: the digest of
// agent, validator, data hash, and the big-endian creation timestamp.
// Identical quadruples collide; that risk is the requester's.
func requestID(agent, validator ref.Address, dataHash digest.Digest, createdAt int64) digest.Digest {
	var material [2*ref.AddressSize + digest.Size + 8]byte
	n := copy(material[:], agent[:])
	n += copy(material[n:], validator[:])
	n += copy(material[n:], dataHash[:])
	binary.BigEndian.PutUint64(material[n:], uint64(createdAt))
	return digest.Sum(material[:])
}

// RequestValidation creates a pending request addressed to validator
// and returns its derived identifier. The TTL must be in (0, 30d].
func (r *Registry) RequestValidation(ctx context.Context, requester, agent, validator ref.Address, dataHash digest.Digest, ttlSeconds int64) (digest.Digest, error) {
	if ttlSeconds <= 0 || ttlSeconds > maxTTL {
		return digest.Digest{}, ErrInvalidTTL
	}

	now := r.clock.Unix()
	id := requestID(agent, validator, dataHash, now)
	err := r.store.Update(ctx, func(txn substrate.Txn) error {
		// An identifier lives in at most one of pending and
		// completed; both block re-use.
		if _, ok, err := txn.Get(pendingKey(id)); err != nil {
			return err
		} else if ok {
			return ErrRequestExists
		}
		if _, ok, err := txn.Get(completedKey(id)); err != nil {
			return err
		} else if ok {
			return ErrRequestExists
		}

		encoded, err := codec.Marshal(pendingRecord{
			Agent:     agent,
			Validator: validator,
			Requester: requester,
			DataHash:  dataHash,
			CreatedAt: now,
			TTL:       ttlSeconds,
		})
		if err != nil {
			return err
		}
		return txn.Put(pendingKey(id), encoded)
	})
	if err != nil {
		return digest.Digest{}, err
	}

	r.log.Append(ctx, event.TypeValidationRequested, now, event.ValidationRequested{
		Request:   id,
		Agent:     agent,
		Validator: validator,
		Requester: requester,
		DataHash:  dataHash,
		ExpiresAt: now + ttlSeconds,
	})
	return id, nil
}

// RespondValidation resolves a pending request. Only the designated
// validator may respond, only before createdAt+ttl, and the score
// must not exceed 100. On success the identifier moves atomically
// from pending to completed.
func (r *Registry) RespondValidation(ctx context.Context, responder ref.Address, id digest.Digest, score uint64, responseURI string, responseHash digest.Digest) error {
	if score > maxScore {
		return ErrResponseOutOfRange
	}

	now := r.clock.Unix()
	var (
		agent     ref.Address
		validator ref.Address
	)
	err := r.store.Update(ctx, func(txn substrate.Txn) error {
		pending, err := getPending(txn, id)
		if err != nil {
			return err
		}
		if pending.Validator != responder {
			return ErrNotValidator
		}
		if now > pending.CreatedAt+pending.TTL {
			return ErrRequestExpired
		}
		agent, validator = pending.Agent, pending.Validator

		encoded, err := codec.Marshal(completedRecord{
			Agent:        pending.Agent,
			Validator:    pending.Validator,
			DataHash:     pending.DataHash,
			Score:        score,
			ResponseURI:  responseURI,
			ResponseHash: responseHash,
			RespondedAt:  now,
		})
		if err != nil {
			return err
		}
		if err := txn.Put(completedKey(id), encoded); err != nil {
			return err
		}
		return txn.Delete(pendingKey(id))
	})
	if err != nil {
		return err
	}

	r.log.Append(ctx, event.TypeValidationResponded, now, event.ValidationResponded{
		Request:      id,
		Agent:        agent,
		Validator:    validator,
		Score:        score,
		ResponseHash: responseHash,
	})
	return nil
}

// GetStatus returns the completed outcome for id. Pending and unknown
// identifiers both fail with ErrValidationNotFound.
func (r *Registry) GetStatus(ctx context.Context, id digest.Digest) (Status, error) {
	var status Status
	err := r.store.View(ctx, func(txn substrate.ReadTxn) error {
		raw, ok, err := txn.Get(completedKey(id))
		if err != nil {
			return err
		}
		if !ok {
			return ErrValidationNotFound
		}
		var stored completedRecord
		if err := codec.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("validation: corrupt completed record %s: %w", id, err)
		}
		status = Status{
			Agent:       stored.Agent,
			Validator:   stored.Validator,
			Score:       stored.Score,
			RespondedAt: stored.RespondedAt,
		}
		return nil
	})
	if err != nil {
		return Status{}, err
	}
	return status, nil
}

// IsPending reports whether id sits in pending storage. Expired but
// unresolved requests still report true.
func (r *Registry) IsPending(ctx context.Context, id digest.Digest) (bool, error) {
	var pending bool
	err := r.store.View(ctx, func(txn substrate.ReadTxn) error {
		_, ok, err := txn.Get(pendingKey(id))
		pending = ok
		return err
	})
	if err != nil {
		return false, err
	}
	return pending, nil
}

// GetPendingInfo returns the pending request's parameters.
func (r *Registry) GetPendingInfo(ctx context.Context, id digest.Digest) (PendingInfo, error) {
	var info PendingInfo
	err := r.store.View(ctx, func(txn substrate.ReadTxn) error {
		pending, err := getPending(txn, id)
		if err != nil {
			return err
		}
		info = PendingInfo{
			Agent:     pending.Agent,
			Validator: pending.Validator,
			CreatedAt: pending.CreatedAt,
			TTL:       pending.TTL,
		}
		return nil
	})
	if err != nil {
		return PendingInfo{}, err
	}
	return info, nil
}

// getPending loads a pending record, mapping absence to
// ErrRequestNotFound.
func getPending(txn substrate.ReadTxn, id digest.Digest) (pendingRecord, error) {
	raw, ok, err := txn.Get(pendingKey(id))
	if err != nil {
		return pendingRecord{}, err
	}
	if !ok {
		return pendingRecord{}, ErrRequestNotFound
	}
	var stored pendingRecord
	if err := codec.Unmarshal(raw, &stored); err != nil {
		return pendingRecord{}, fmt.Errorf("validation: corrupt pending record %s: %w", id, err)
	}
	return stored, nil
}
