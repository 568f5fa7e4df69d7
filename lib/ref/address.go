// Copyright 2026 The Trustmesh Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/hex"
	"fmt"
)

// AddressSize is the width of an Address in bytes.
const AddressSize = 20

// Address is an opaque fixed-width entity identifier. The zero value
// is not a valid address and is used as the "no address" marker.
type Address [AddressSize]byte

// ParseAddress parses the 40-character lowercase hex text form of an
// address. It rejects input of the wrong length and the all-zero
// address, which the system never allocates.
func ParseAddress(text string) (Address, error) {
	var addr Address
	if len(text) != AddressSize*2 {
		return addr, fmt.Errorf("invalid address %q: got %d hex characters, want %d", text, len(text), AddressSize*2)
	}
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", text, err)
	}
	copy(addr[:], decoded)
	if addr.IsZero() {
		return Address{}, fmt.Errorf("invalid address %q: zero address", text)
	}
	return addr, nil
}

// AddressFromBytes constructs an Address from raw bytes. The input
// must be exactly AddressSize bytes. Used by the substrate allocation
// path and by decoders; ordinary callers parse the text form instead.
func AddressFromBytes(raw []byte) (Address, error) {
	var addr Address
	if len(raw) != AddressSize {
		return addr, fmt.Errorf("invalid address: got %d bytes, want %d", len(raw), AddressSize)
	}
	copy(addr[:], raw)
	return addr, nil
}

// String returns the 40-character lowercase hex form.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero reports whether this is the unallocated zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
