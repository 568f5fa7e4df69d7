// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"testing"

	"golang.org/x/crypto/sha3"
)

func TestSumMatchesSHA3(t *testing.T) {
	content := []byte("agent metadata document")
	got := Sum(content)
	want := sha3.Sum256(content)
	if got != Digest(want) {
		t.Fatalf("Sum mismatch: got %s, want %x", got, want)
	}
	if got != SumString(string(content)) {
		t.Fatal("SumString disagrees with Sum")
	}
}

func TestParseRoundTrip(t *testing.T) {
	d := Sum([]byte("evidence"))
	parsed, err := Parse(d.String())
	if err != nil {
		t.Fatalf("Parse(%q): %v", d.String(), err)
	}
	if parsed != d {
		t.Fatalf("round trip mismatch: got %s, want %s", parsed, d)
	}
}

func TestParseRejects(t *testing.T) {
	for _, text := range []string{"", "abcd", "zz"} {
		if _, err := Parse(text); err == nil {
			t.Fatalf("Parse(%q) succeeded, want error", text)
		}
	}
}

func TestIsZero(t *testing.T) {
	var zero Digest
	if !zero.IsZero() {
		t.Fatal("zero value should report IsZero")
	}
	if Sum(nil).IsZero() {
		t.Fatal("SHA3 of empty input is not the zero digest")
	}
}
