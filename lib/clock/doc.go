// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for
// testability.
//
// Production code accepts a Clock parameter instead of calling
// time.Now directly. In production, Real() provides standard library
// behavior. In tests, Fake() provides a clock that moves only when
// Advance or Set is called, making every temporal invariant in the
// registries (capability expiry, validation TTL, issuance timestamps)
// exactly reproducible.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type Registry struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	r := identity.NewRegistry(store, clock.Real(), log)
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	r := identity.NewRegistry(store, c, log)
//	c.Advance(24 * time.Hour) // cross the expiry deterministically
package clock
