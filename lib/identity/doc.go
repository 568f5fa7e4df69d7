// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity implements the Identity & Capability Registry: the
// anchor record for every agent, and the consumable feedback
// capabilities an agent's owner hands to counterparties.
//
// An agent record is created once and never deleted. Its owner field
// changes only through [Registry.TransferOwner]; its metadata locator
// and domain change only through [Registry.Update]. The registry
// allocates agent addresses itself; callers never construct them.
//
// A feedback capability is keyed by (agent, grantee) and carries a
// quota ceiling, an expiry, and a consumed counter. The counter moves
// in exactly one place: the verify-and-consume step that the
// Reputation Ledger runs while minting a record. That step is
// deliberately not a public method. [Registry.Consumer] returns a
// narrow handle that operates inside the caller's substrate
// transaction, so consuming quota and minting the record commit or
// fail as one unit, and no other component can reach the counter.
//
// Every operation either fully commits or leaves state untouched; the
// typed errors below are the complete failure surface.
package identity
