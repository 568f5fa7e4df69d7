// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package reputation

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

// Errors returned by ledger operations. Capability failures from the
// identity registry (AuthNotFound, AuthExpired, QuotaExceeded) pass
// through [Ledger.Issue] unchanged.
var (
	ErrRecordNotFound     = errors.New("reputation: record not found")
	ErrScoreOutOfRange    = errors.New("reputation: score exceeds 100")
	ErrInvalidEvidenceURI = errors.New("reputation: evidence URI is empty")
	ErrIssuerForbidden    = errors.New("reputation: issuer lacks issuer capability")
	ErrNotIssuer          = errors.New("reputation: caller is not the record issuer")
	ErrAlreadyRevoked     = errors.New("reputation: record already revoked")
	ErrTooManyResponses   = errors.New("reputation: record response limit reached")
	ErrResponseNotFound   = errors.New("reputation: response not found")
	ErrNotAdmin           = errors.New("reputation: caller is not the governance admin")
	ErrCapabilityExists   = errors.New("reputation: issuer capability already granted")
)

const (
	// maxScore bounds record and response scores.
	maxScore = 100

	// maxResponses bounds the response fan-out per record.
	maxResponses = 100
)

// CapabilityConsumer is the one cross-component call the ledger
// makes: verify that grantee may leave feedback for agent and consume
// one unit of quota, inside the ledger's transaction. Satisfied by
// identity.Registry.Consumer.
type CapabilityConsumer interface {
	VerifyAndConsume(txn substrate.Txn, now int64, agent, grantee ref.Address) (uint64, error)
}

// recordRecord is the stored form of a reputation record. Everything
// above Revoked is written at mint and never rewritten.
type recordRecord struct {
	Agent         ref.Address   `cbor:"1,keyasint"`
	Issuer        ref.Address   `cbor:"2,keyasint"`
	Score         uint64        `cbor:"3,keyasint"`
	Sequence      uint64        `cbor:"4,keyasint"`
	ContextHash   digest.Digest `cbor:"5,keyasint"`
	EvidenceURI   string        `cbor:"6,keyasint"`
	EvidenceHash  digest.Digest `cbor:"7,keyasint"`
	IssuedAt      int64         `cbor:"8,keyasint"`
	Revoked       bool          `cbor:"9,keyasint"`
	ResponseCount uint64        `cbor:"10,keyasint"`
}

// responseRecord is the stored form of a response sub-record. The
// ordinal lives in the key.
type responseRecord struct {
	Responder    ref.Address   `cbor:"1,keyasint"`
	ResponseURI  string        `cbor:"2,keyasint"`
	ResponseHash digest.Digest `cbor:"3,keyasint"`
	CreatedAt    int64         `cbor:"4,keyasint"`
}

// RecordInfo is the public read model of a reputation record.
type RecordInfo struct {
	Agent         ref.Address
	Issuer        ref.Address
	Score         uint64
	Sequence      uint64
	ContextHash   digest.Digest
	EvidenceURI   string
	EvidenceHash  digest.Digest
	IssuedAt      int64
	Revoked       bool
	ResponseCount uint64
}

// ResponseInfo is the public read model of a response sub-record.
type ResponseInfo struct {
	Responder    ref.Address
	ResponseURI  string
	ResponseHash digest.Digest
	CreatedAt    int64
	Ordinal      uint64
}

// Ledger owns reputation records, their responses, the
// issuer-capability set, and the governance admin.
type Ledger struct {
	store    substrate.Store
	clock    clock.Clock
	log      *event.Log
	consumer CapabilityConsumer
}

// NewLedger creates a ledger over the given substrate. The first call
// against a fresh substrate writes admin as the governance admin; on
// an already-bootstrapped substrate the stored admin wins and the
// argument is ignored.
func NewLedger(ctx context.Context, store substrate.Store, clk clock.Clock, log *event.Log, consumer CapabilityConsumer, admin ref.Address) (*Ledger, error) {
	if consumer == nil {
		return nil, errors.New("reputation: capability consumer is required")
	}
	if admin.IsZero() {
		return nil, errors.New("reputation: initial admin address is required")
	}
	err := store.Update(ctx, func(txn substrate.Txn) error {
		_, ok, err := txn.Get(adminKey)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		encoded, err := codec.Marshal(admin)
		if err != nil {
			return err
		}
		return txn.Put(adminKey, encoded)
	})
	if err != nil {
		return nil, err
	}
	return &Ledger{store: store, clock: clk, log: log, consumer: consumer}, nil
}

const adminKey = "gov/admin"

func recordKey(record ref.Address) string {
	return "rep/" + record.String()
}

func responseKey(record ref.Address, ordinal uint64) string {
	return fmt.Sprintf("resp/%s/%d", record, ordinal)
}

func issuerKey(issuer ref.Address) string {
	return "gov/issuer/" + issuer.String()
}

const sequenceKey = "sys/seq"

// allocateRecordAddress draws from the same allocation sequence the
// identity registry uses, so record and agent addresses share one
// collision-free namespace.
func allocateRecordAddress(txn substrate.Txn, now int64) (ref.Address, error) {
	var seq uint64
	raw, ok, err := txn.Get(sequenceKey)
	if err != nil {
		return ref.Address{}, err
	}
	if ok {
		if err := codec.Unmarshal(raw, &seq); err != nil {
			return ref.Address{}, fmt.Errorf("reputation: corrupt allocation sequence: %w", err)
		}
	}
	seq++

	encoded, err := codec.Marshal(seq)
	if err != nil {
		return ref.Address{}, err
	}
	if err := txn.Put(sequenceKey, encoded); err != nil {
		return ref.Address{}, err
	}

	var material [8 + 8 + len("trustmesh/address")]byte
	binary.BigEndian.PutUint64(material[0:8], seq)
	binary.BigEndian.PutUint64(material[8:16], uint64(now))
	copy(material[16:], "trustmesh/address")

	sum := digest.Sum(material[:])
	addr, err := ref.AddressFromBytes(sum[:ref.AddressSize])
	if err != nil {
		return ref.Address{}, err
	}
	return addr, nil
}

// getRecord loads a record, mapping absence to ErrRecordNotFound.
func getRecord(txn substrate.ReadTxn, record ref.Address) (recordRecord, error) {
	raw, ok, err := txn.Get(recordKey(record))
	if err != nil {
		return recordRecord{}, err
	}
	if !ok {
		return recordRecord{}, ErrRecordNotFound
	}
	var stored recordRecord
	if err := codec.Unmarshal(raw, &stored); err != nil {
		return recordRecord{}, fmt.Errorf("reputation: corrupt record %s: %w", record, err)
	}
	return stored, nil
}

// putRecord stores a record.
func putRecord(txn substrate.Txn, record ref.Address, stored recordRecord) error {
	encoded, err := codec.Marshal(stored)
	if err != nil {
		return err
	}
	return txn.Put(recordKey(record), encoded)
}

// getAdmin loads the governance admin. Bootstrap guarantees presence;
// absence means the substrate was not opened through NewLedger.
func getAdmin(txn substrate.ReadTxn) (ref.Address, error) {
	raw, ok, err := txn.Get(adminKey)
	if err != nil {
		return ref.Address{}, err
	}
	if !ok {
		return ref.Address{}, errors.New("reputation: governance admin missing, substrate not bootstrapped")
	}
	var admin ref.Address
	if err := codec.Unmarshal(raw, &admin); err != nil {
		return ref.Address{}, fmt.Errorf("reputation: corrupt governance admin: %w", err)
	}
	return admin, nil
}

// hasIssuer reports presence in the issuer-capability set.
func hasIssuer(txn substrate.ReadTxn, issuer ref.Address) (bool, error) {
	_, ok, err := txn.Get(issuerKey(issuer))
	return ok, err
}
