// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref defines the opaque fixed-width identifiers used across
// the trustmesh registries.
//
// An [Address] names an account-like entity: an agent, an owner, a
// grantee, an issuer, a validator, or a reputation record. Addresses
// are allocated by the substrate when an entity is created; callers
// never construct them from parts. The only way to obtain an Address
// outside the allocation path is to parse one that the system
// previously handed out.
//
// The text form is 40 lowercase hex characters. Address implements
// encoding.TextMarshaler and encoding.TextUnmarshaler so it can appear
// directly in JSON configuration and log output; the CBOR wire form is
// the raw 20 bytes.
package ref
