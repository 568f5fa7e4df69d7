// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package validation implements the Validation Registry: a two-phase
// handshake between a requester and a designated validator, keyed by
// an identifier derived from the request itself.
//
// Each identifier moves through exactly one transition, pending to
// completed, performed only by the designated validator before the
// TTL deadline. There is no other transition: an unresolved request
// stays in pending storage past its deadline, permanently
// unresolvable but still observable through [Registry.IsPending].
// Expired entries are never purged; storage growth is the
// deployment's concern.
//
// The registry is independent of the identity and reputation
// packages. Agents and validators are opaque addresses passed by the
// caller; nothing here checks that they exist.
package validation
