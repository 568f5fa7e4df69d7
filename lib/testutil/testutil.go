// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for trustmesh
// packages.
//
// [Address] builds a recognizable fixed address from a single byte,
// for tests that need caller addresses without going through the
// registry's allocator. [UniqueURI] generates distinct locator
// strings so two fixtures in one test never share evidence or
// metadata by accident.
//
// This package has no trustmesh dependencies beyond lib/ref.
package testutil

import (
	"fmt"
	"sync/atomic"

	"github.com/trustmesh-foundation/trustmesh/lib/ref"
)

// Address returns the address with every byte set to b. Addresses
// built this way are visually identifiable in failure output. b must
// not be zero; the zero address is reserved as "absent".
func Address(b byte) ref.Address {
	if b == 0 {
		panic("testutil: Address(0) is the zero address")
	}
	var addr ref.Address
	for i := range addr {
		addr[i] = b
	}
	return addr
}

var uriCounter atomic.Uint64

// UniqueURI returns a locator string that no prior call returned,
// with the given scheme-and-label prefix.
//
//	uri := testutil.UniqueURI("ipfs://evidence")
func UniqueURI(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uriCounter.Add(1))
}
