package interfaces

import (
	"context"
	"math/big"
)

// SignatureVerifier recovers the identity that produced a signature over a
// 32-byte digest. Implementations must be pure: the same inputs always yield
// the same result, and malformed input fails with ErrInvalidSignature rather
// than silently resolving to a wrong identity.
//
// The production implementation performs secp256k1 public key recovery with
// EIP-191 personal-sign semantics; tests substitute a deterministic fake.
type SignatureVerifier interface {
	// RecoverSigner returns the identity that signed digest.
	RecoverSigner(digest [32]byte, signature []byte) (Identity, error)
}

// FundsForwarder moves value to the registry party. Forward is all-or-nothing:
// if it returns an error no value moved, and the engine retains no state
// change from the enclosing operation.
type FundsForwarder interface {
	// Forward atomically moves amount wei from one identity to another.
	Forward(ctx context.Context, from, to Identity, amount *big.Int) error
}

// TitleRegistry is the engine's public operation surface, consumed by the
// HTTP layer and the operator CLI.
type TitleRegistry interface {
	// AddTitle creates a title record. Administrator only.
	AddTitle(caller Identity, id TitleID, size uint64, location, image string) (uint64, error)

	// ProcessSignature verifies a signature against the canonical message for
	// (ownerClaim, registry identity, titleID) and returns the recovered
	// signer. Pure; no state change.
	ProcessSignature(ownerClaim Identity, signature []byte, titleID TitleID) (Identity, error)

	// RegisterTitle drives a title from ToBeRegistered to Registered,
	// forwarding the full payment to the registry identity.
	RegisterTitle(ctx context.Context, index uint64, signature []byte, titleID TitleID, caller Identity, payment *big.Int) error

	// FetchTitle returns a snapshot of the record at index.
	FetchTitle(index uint64) (Title, error)

	// Events returns a snapshot of the ordered event log.
	Events() []TitleEvent
}
