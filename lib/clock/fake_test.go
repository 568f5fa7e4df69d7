// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeClockStandsStill(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}
	if got := c.Unix(); got != start.Unix() {
		t.Fatalf("Unix() = %d, want %d", got, start.Unix())
	}
	// A second read observes the same instant.
	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() moved without Advance: %v", got)
	}
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)

	c.Advance(time.Hour)
	want := start.Add(time.Hour)
	if got := c.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockSet(t *testing.T) {
	c := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	earlier := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c.Set(earlier)
	if got := c.Now(); !got.Equal(earlier) {
		t.Fatalf("Now() after Set = %v, want %v", got, earlier)
	}
}

func TestRealClockTracksWallTime(t *testing.T) {
	c := Real()
	before := time.Now().Unix()
	got := c.Unix()
	after := time.Now().Unix()
	if got < before || got > after {
		t.Fatalf("Real().Unix() = %d outside [%d, %d]", got, before, after)
	}
}
