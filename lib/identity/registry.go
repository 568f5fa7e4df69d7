// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
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

// Errors returned by registry operations. Every error is a permanent
// rejection of that call; nothing is retried internally.
var (
	ErrNotFound           = errors.New("identity: agent not found")
	ErrNotOwner           = errors.New("identity: caller is not the agent owner")
	ErrInvalidMetadataURI = errors.New("identity: metadata URI is empty")
	ErrInvalidExpiry      = errors.New("identity: expiry is not in the future")
	ErrAuthNotFound       = errors.New("identity: feedback capability not found")
	ErrAuthExpired        = errors.New("identity: feedback capability has expired")
	ErrQuotaExceeded      = errors.New("identity: feedback capability quota exhausted")
)

// agentRecord is the stored form of an agent.
type agentRecord struct {
	Owner       ref.Address `cbor:"1,keyasint"`
	MetadataURI string      `cbor:"2,keyasint"`
	Domain      string      `cbor:"3,keyasint,omitempty"`
	CreatedAt   int64       `cbor:"4,keyasint"`
}

// capabilityRecord is the stored form of a feedback capability.
type capabilityRecord struct {
	Ceiling   uint64 `cbor:"1,keyasint"`
	Consumed  uint64 `cbor:"2,keyasint"`
	ExpiresAt int64  `cbor:"3,keyasint"`
}

// AgentInfo is the public read model of an agent.
type AgentInfo struct {
	Owner       ref.Address
	MetadataURI string
	Domain      string
}

// Capability is the public read model of a feedback capability.
type Capability struct {
	Ceiling   uint64
	Consumed  uint64
	ExpiresAt int64
}

// AgentUpdate carries the optional fields of [Registry.Update]. Nil
// fields are left untouched.
type AgentUpdate struct {
	MetadataURI *string
	Domain      *string
}

// Registry owns agent records and feedback capabilities.
type Registry struct {
	store substrate.Store
	clock clock.Clock
	log   *event.Log
}

// NewRegistry creates a registry over the given substrate. The
// registry requires no bootstrap state.
func NewRegistry(store substrate.Store, clk clock.Clock, log *event.Log) *Registry {
	return &Registry{store: store, clock: clk, log: log}
}

// Key layout. Addresses appear in their hex text form so keys stay
// printable in substrate dumps.
func agentKey(agent ref.Address) string {
	return "agent/" + agent.String()
}

func authKey(agent, grantee ref.Address) string {
	return "auth/" + agent.String() + "/" + grantee.String()
}

const sequenceKey = "sys/seq"

// allocateAddress reserves the next allocation sequence number and
// derives a fresh address from it. Derivation hashes the sequence
// number, the clock reading, and a fixed tag, then truncates to
// address width; the sequence number alone already guarantees
// uniqueness within one ledger.
func allocateAddress(txn substrate.Txn, now int64) (ref.Address, error) {
	var seq uint64
	raw, ok, err := txn.Get(sequenceKey)
	if err != nil {
		return ref.Address{}, err
	}
	if ok {
		if err := codec.Unmarshal(raw, &seq); err != nil {
			return ref.Address{}, fmt.Errorf("identity: corrupt allocation sequence: %w", err)
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

// getAgent loads an agent record, mapping absence to ErrNotFound.
func getAgent(txn substrate.ReadTxn, agent ref.Address) (agentRecord, error) {
	raw, ok, err := txn.Get(agentKey(agent))
	if err != nil {
		return agentRecord{}, err
	}
	if !ok {
		return agentRecord{}, ErrNotFound
	}
	var record agentRecord
	if err := codec.Unmarshal(raw, &record); err != nil {
		return agentRecord{}, fmt.Errorf("identity: corrupt agent %s: %w", agent, err)
	}
	return record, nil
}

// putAgent stores an agent record.
func putAgent(txn substrate.Txn, agent ref.Address, record agentRecord) error {
	encoded, err := codec.Marshal(record)
	if err != nil {
		return err
	}
	return txn.Put(agentKey(agent), encoded)
}

// getCapability loads a capability, mapping absence to ErrAuthNotFound.
func getCapability(txn substrate.ReadTxn, agent, grantee ref.Address) (capabilityRecord, error) {
	raw, ok, err := txn.Get(authKey(agent, grantee))
	if err != nil {
		return capabilityRecord{}, err
	}
	if !ok {
		return capabilityRecord{}, ErrAuthNotFound
	}
	var record capabilityRecord
	if err := codec.Unmarshal(raw, &record); err != nil {
		return capabilityRecord{}, fmt.Errorf("identity: corrupt capability %s/%s: %w", agent, grantee, err)
	}
	return record, nil
}

// putCapability stores a capability record.
func putCapability(txn substrate.Txn, agent, grantee ref.Address, record capabilityRecord) error {
	encoded, err := codec.Marshal(record)
	if err != nil {
		return err
	}
	return txn.Put(authKey(agent, grantee), encoded)
}
