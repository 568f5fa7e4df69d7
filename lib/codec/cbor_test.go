// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type wireRecord struct {
	Owner    [20]byte `cbor:"1,keyasint"`
	Score    uint64   `cbor:"2,keyasint"`
	Evidence string   `cbor:"3,keyasint,omitempty"`
	Revoked  bool     `cbor:"4,keyasint,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	record := wireRecord{Score: 87, Evidence: "ipfs://bafy.../evidence.json"}
	record.Owner[0] = 0x42

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("non-deterministic encoding:\n%x\n%x", first, second)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	// A future writer adds field 9; today's reader must not choke.
	type futureRecord struct {
		Owner [20]byte `cbor:"1,keyasint"`
		Score uint64   `cbor:"2,keyasint"`
		Extra string   `cbor:"9,keyasint"`
	}
	data, err := Marshal(futureRecord{Score: 3, Extra: "later"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var record wireRecord
	if err := Unmarshal(data, &record); err != nil {
		t.Fatalf("Unmarshal with unknown field: %v", err)
	}
	if record.Score != 3 {
		t.Fatalf("Score = %d, want 3", record.Score)
	}
}

func TestUnmarshalAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"kind": "agent"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type %T, want map[string]any", decoded)
	}
	if m["kind"] != "agent" {
		t.Fatalf(`m["kind"] = %v, want "agent"`, m["kind"])
	}
}
