package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Identity is a 20-byte Ethereum-style account identity. It is used for every
// caller comparison in the engine: the administrator, the registry fee
// recipient, and title owners. Identities compare by value.
type Identity [20]byte

// NewIdentityFromBytes creates an identity from a raw 20-byte slice.
func NewIdentityFromBytes(b []byte) (Identity, error) {
	if len(b) != 20 {
		return Identity{}, errors.New("invalid identity length: must be 20 bytes")
	}

	var id Identity
	copy(id[:], b)
	return id, nil
}

// NewIdentityFromHex creates an identity from a 40-character hex string,
// with or without a 0x prefix.
func NewIdentityFromHex(s string) (Identity, error) {
	clean := strings.TrimPrefix(s, "0x")
	if len(clean) != 40 {
		return Identity{}, errors.New("invalid identity length: hex string must be 40 characters")
	}

	b, err := hex.DecodeString(clean)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewIdentityFromBytes(b)
}

// String returns the 0x-prefixed hex representation of the identity.
func (id Identity) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// Bytes returns the raw 20-byte identity.
func (id Identity) Bytes() []byte {
	return id[:]
}

// Equal compares two identities for equality.
func (id Identity) Equal(other Identity) bool {
	return id == other
}

// IsZero reports whether the identity is the zero value.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// TitleIDLength is the fixed length of a title code.
const TitleIDLength = 12

// TitleID is the opaque identifier of a land parcel: a 12-character
// alphanumeric code issued off-band and validated at the engine boundary.
type TitleID string

// NewTitleID validates a raw code and returns it as a TitleID.
func NewTitleID(code string) (TitleID, error) {
	if len(code) != TitleIDLength {
		return "", fmt.Errorf("invalid title code length: must be %d characters", TitleIDLength)
	}
	for _, c := range code {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return "", fmt.Errorf("invalid title code character %q: must be alphanumeric", c)
		}
	}
	return TitleID(code), nil
}

// String returns the title code as a string.
func (id TitleID) String() string {
	return string(id)
}

// Validate checks that the title code has a valid shape.
func (id TitleID) Validate() error {
	_, err := NewTitleID(string(id))
	return err
}
