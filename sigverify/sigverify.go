package sigverify

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/landreg/title-registry-backend/interfaces"
)

// SignatureLength is the length of an r‖s‖v recovery signature.
const SignatureLength = 65

// personalMessagePrefix is the EIP-191 prefix applied by eth_sign to a
// 32-byte payload.
const personalMessagePrefix = "\x19Ethereum Signed Message:\n32"

// CanonicalMessage builds the digest a title owner signs to authorize a
// transition: keccak256 of the packed concatenation
// (owner 20 bytes ‖ registry 20 bytes ‖ title code UTF-8 bytes).
func CanonicalMessage(owner, registry interfaces.Identity, titleID interfaces.TitleID) [32]byte {
	return crypto.Keccak256Hash(owner.Bytes(), registry.Bytes(), []byte(titleID))
}

// PersonalDigest wraps a 32-byte digest with the EIP-191 personal-sign prefix.
// Wallet signers (web3.eth.sign, personal_sign) sign this, not the raw digest.
func PersonalDigest(digest [32]byte) [32]byte {
	return crypto.Keccak256Hash([]byte(personalMessagePrefix), digest[:])
}

// EthereumVerifier recovers signers via secp256k1 public key recovery with
// eth_sign semantics. It is pure and safe for concurrent use.
type EthereumVerifier struct{}

// NewEthereumVerifier returns the production signature verifier.
func NewEthereumVerifier() *EthereumVerifier {
	return &EthereumVerifier{}
}

// RecoverSigner returns the identity that produced signature over digest.
// The signature must be 65 bytes r‖s‖v with v in {0, 1, 27, 28}; wallet
// recovery ids 27/28 are normalized before recovery. Malformed input fails
// with ErrInvalidSignature.
func (v *EthereumVerifier) RecoverSigner(digest [32]byte, signature []byte) (interfaces.Identity, error) {
	if len(signature) != SignatureLength {
		return interfaces.Identity{}, fmt.Errorf("%w: length %d, want %d", interfaces.ErrInvalidSignature, len(signature), SignatureLength)
	}

	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return interfaces.Identity{}, fmt.Errorf("%w: recovery id %d out of range", interfaces.ErrInvalidSignature, signature[64])
	}

	prefixed := PersonalDigest(digest)
	pubkey, err := crypto.SigToPub(prefixed[:], sig)
	if err != nil {
		return interfaces.Identity{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidSignature, err)
	}

	addr := crypto.PubkeyToAddress(*pubkey)
	return interfaces.Identity(addr), nil
}

// Sign produces a wallet-style signature over digest: EIP-191 personal-sign
// with the recovery id offset to 27/28, matching what web3.eth.sign returns.
// Used by the operator CLI and tests; production owners sign in their wallet.
func Sign(digest [32]byte, key *ecdsa.PrivateKey) ([]byte, error) {
	prefixed := PersonalDigest(digest)
	sig, err := crypto.Sign(prefixed[:], key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// IdentityOf returns the identity controlled by a private key.
func IdentityOf(key *ecdsa.PrivateKey) interfaces.Identity {
	return interfaces.Identity(crypto.PubkeyToAddress(key.PublicKey))
}
