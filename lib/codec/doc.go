// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides trustmesh's standard CBOR encoding.
//
// All substrate values and event payloads are CBOR with Core
// Deterministic Encoding: the same logical record always encodes to
// identical bytes. Determinism is load-bearing twice over: the event
// log's hash chain covers encoded payload bytes, and validation
// request identifiers are derived from encoded fields. The
// encoder configuration lives here, in exactly one place.
//
// Wire structs use integer field keys (cbor:"N,keyasint") to keep
// stored records compact and to decouple field names from the wire.
package codec
