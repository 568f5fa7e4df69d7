// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes and represents the 32-byte SHA3-256 digests
// used throughout trustmesh. Raw content (metadata URIs, evidence,
// validation payloads) never appears in events or stored records;
// only its locator and digest do. This keeps the event stream small
// and makes every externally observable value tamper-evident.
package digest

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Size is the width of a Digest in bytes.
const Size = 32

// Digest is a 32-byte SHA3-256 output. The zero value means "no
// digest" and is legal wherever a hash field is optional.
type Digest [Size]byte

// Sum computes the SHA3-256 digest of data.
func Sum(data []byte) Digest {
	return Digest(sha3.Sum256(data))
}

// SumString computes the SHA3-256 digest of a string without an
// intermediate copy beyond the unavoidable []byte conversion.
func SumString(s string) Digest {
	return Sum([]byte(s))
}

// Parse parses the 64-character lowercase hex form of a digest.
func Parse(text string) (Digest, error) {
	var d Digest
	if len(text) != Size*2 {
		return d, fmt.Errorf("invalid digest %q: got %d hex characters, want %d", text, len(text), Size*2)
	}
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return d, fmt.Errorf("invalid digest %q: %w", text, err)
	}
	copy(d[:], decoded)
	return d, nil
}

// String returns the 64-character lowercase hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether this is the "no digest" zero value.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
