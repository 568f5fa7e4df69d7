// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package reputation implements the Reputation Ledger: soulbound
// records that authorized counterparties mint against an agent, plus
// the response sub-records and governance state around them.
//
// A record's core is fixed at mint: subject agent, issuer, score,
// context hash, evidence locator and hash, issuance timestamp, and
// the sequence index obtained by consuming one unit of the issuer's
// feedback capability. Only two fields ever move afterwards: the
// revoked latch (false to true, once, by the issuer) and the response
// counter. Records have no transfer operation at all; custody is not
// a concept this package models.
//
// Issuance consumes capability quota through the narrow
// [CapabilityConsumer] interface injected at construction. The
// consumption runs inside the ledger's own substrate transaction, so
// a minted record and its quota debit commit or fail together.
//
// Responses are stored as independent sub-records keyed by ordinal
// rather than appended into the parent, which keeps the cost of
// attaching feedback flat no matter how much a record accumulates.
// Both the response fan-out and the issuer-capability set are capped;
// the ceilings are resource limits, not tunables.
package reputation
