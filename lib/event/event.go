// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"github.com/trustmesh-foundation/trustmesh/lib/codec"
	"github.com/trustmesh-foundation/trustmesh/lib/digest"
	"github.com/trustmesh-foundation/trustmesh/lib/ref"
)

// Type names an event kind. The value doubles as the NATS subject
// suffix, so segments are dot-separated.
type Type string

// Event types emitted by the registries.
const (
	TypeAgentRegistered       Type = "agent.registered"
	TypeAgentUpdated          Type = "agent.updated"
	TypeAgentOwnerChanged     Type = "agent.owner_changed"
	TypeFeedbackAuthGranted   Type = "auth.granted"
	TypeFeedbackAuthRevoked   Type = "auth.revoked"
	TypeReputationIssued      Type = "reputation.issued"
	TypeReputationRevoked     Type = "reputation.revoked"
	TypeResponseAppended      Type = "reputation.response_appended"
	TypeGovernanceTransferred Type = "governance.transferred"
	TypeValidationRequested   Type = "validation.requested"
	TypeValidationResponded   Type = "validation.responded"
)

// Record is the chained envelope around one event payload. Seq,
// Prev, and Sum are assigned by the Log; producers supply only the
// type, timestamp, and payload.
type Record struct {
	// Seq is the record's position in the log, starting at 1.
	Seq uint64 `cbor:"1,keyasint"`

	// Timestamp is the ledger clock reading, Unix seconds.
	Timestamp int64 `cbor:"2,keyasint"`

	// Type identifies the payload struct.
	Type Type `cbor:"3,keyasint"`

	// Payload is the CBOR-encoded event payload.
	Payload codec.RawMessage `cbor:"4,keyasint"`

	// Prev is the Sum of the preceding record; zero for the first.
	Prev [32]byte `cbor:"5,keyasint"`

	// Sum is the BLAKE3 chain sum covering Prev, Seq, Timestamp,
	// Type, and Payload. See chainSum.
	Sum [32]byte `cbor:"6,keyasint"`
}

// AgentRegistered is emitted by agent creation. MetadataHash is the
// digest of the metadata URI string, never the URI itself.
type AgentRegistered struct {
	Agent        ref.Address   `cbor:"1,keyasint"`
	Owner        ref.Address   `cbor:"2,keyasint"`
	MetadataHash digest.Digest `cbor:"3,keyasint"`
}

// AgentUpdated is emitted by metadata or domain updates. MetadataHash
// is set only when the metadata URI changed; DomainChanged reports a
// domain change without leaking the value.
type AgentUpdated struct {
	Agent         ref.Address   `cbor:"1,keyasint"`
	MetadataHash  digest.Digest `cbor:"2,keyasint,omitempty"`
	DomainChanged bool          `cbor:"3,keyasint,omitempty"`
}

// AgentOwnerChanged is emitted by ownership transfer.
type AgentOwnerChanged struct {
	Agent         ref.Address `cbor:"1,keyasint"`
	PreviousOwner ref.Address `cbor:"2,keyasint"`
	NewOwner      ref.Address `cbor:"3,keyasint"`
}

// FeedbackAuthGranted is emitted when a capability is created or
// overwritten.
type FeedbackAuthGranted struct {
	Agent     ref.Address `cbor:"1,keyasint"`
	Grantee   ref.Address `cbor:"2,keyasint"`
	Ceiling   uint64      `cbor:"3,keyasint"`
	ExpiresAt int64       `cbor:"4,keyasint"`
}

// FeedbackAuthRevoked is emitted when a capability is deleted.
type FeedbackAuthRevoked struct {
	Agent   ref.Address `cbor:"1,keyasint"`
	Grantee ref.Address `cbor:"2,keyasint"`
}

// ReputationIssued is emitted when a reputation record is minted.
type ReputationIssued struct {
	Record       ref.Address   `cbor:"1,keyasint"`
	Agent        ref.Address   `cbor:"2,keyasint"`
	Issuer       ref.Address   `cbor:"3,keyasint"`
	Score        uint64        `cbor:"4,keyasint"`
	Sequence     uint64        `cbor:"5,keyasint"`
	ContextHash  digest.Digest `cbor:"6,keyasint,omitempty"`
	EvidenceHash digest.Digest `cbor:"7,keyasint,omitempty"`
}

// ReputationRevoked is emitted when an issuer revokes its record.
type ReputationRevoked struct {
	Record ref.Address `cbor:"1,keyasint"`
	Issuer ref.Address `cbor:"2,keyasint"`
}

// ResponseAppended is emitted when a response sub-record is attached.
type ResponseAppended struct {
	Record       ref.Address   `cbor:"1,keyasint"`
	Responder    ref.Address   `cbor:"2,keyasint"`
	Ordinal      uint64        `cbor:"3,keyasint"`
	ResponseHash digest.Digest `cbor:"4,keyasint,omitempty"`
}

// GovernanceTransferred is emitted when the admin changes.
type GovernanceTransferred struct {
	PreviousAdmin ref.Address `cbor:"1,keyasint"`
	NewAdmin      ref.Address `cbor:"2,keyasint"`
}

// ValidationRequested is emitted when a pending validation is created.
// ExpiresAt is createdAt + ttl, precomputed so indexers need no TTL
// arithmetic.
type ValidationRequested struct {
	Request   digest.Digest `cbor:"1,keyasint"`
	Agent     ref.Address   `cbor:"2,keyasint"`
	Validator ref.Address   `cbor:"3,keyasint"`
	Requester ref.Address   `cbor:"4,keyasint"`
	DataHash  digest.Digest `cbor:"5,keyasint"`
	ExpiresAt int64         `cbor:"6,keyasint"`
}

// ValidationResponded is emitted when the designated validator
// resolves a pending validation.
type ValidationResponded struct {
	Request      digest.Digest `cbor:"1,keyasint"`
	Agent        ref.Address   `cbor:"2,keyasint"`
	Validator    ref.Address   `cbor:"3,keyasint"`
	Score        uint64        `cbor:"4,keyasint"`
	ResponseHash digest.Digest `cbor:"5,keyasint,omitempty"`
}
