package sigverify

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/argon2"
)

// argon2id parameters for dev key derivation.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// DeriveDevKey derives a deterministic secp256k1 private key from a
// passphrase and salt using argon2id. Intended for development and test
// identities only; production owners and administrators hold wallet keys.
func DeriveDevKey(passphrase, salt string) (*ecdsa.PrivateKey, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("empty passphrase")
	}

	seed := argon2.IDKey([]byte(passphrase), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)

	// A 32-byte argon2 output can fall outside the curve order. Rehash until
	// it lands on a valid scalar; in practice the first iteration succeeds.
	for i := 0; i < 8; i++ {
		key, err := crypto.ToECDSA(seed)
		if err == nil {
			return key, nil
		}
		seed = crypto.Keccak256(seed)
	}

	return nil, fmt.Errorf("could not derive a valid key from passphrase")
}
