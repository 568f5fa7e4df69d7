// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time source for testability. Production code
// injects Real(); tests inject Fake() with deterministic time control.
//
// Trustmesh operates at seconds resolution: capability expiry,
// validation TTLs, and event timestamps all compare Unix seconds.
// Every function that needs the current time accepts a Clock (or is a
// method on a struct with a Clock field) instead of calling time.Now
// directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Unix returns the current time as Unix seconds. Equivalent to
	// Now().Unix(); provided because it is the form every registry
	// comparison uses.
	Unix() int64
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Unix() int64 { return time.Now().Unix() }
