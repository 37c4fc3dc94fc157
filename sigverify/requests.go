package sigverify

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/landreg/title-registry-backend/interfaces"
)

// Signed HTTP requests carry the caller identity in a header of the form
// "<0x address>:<0x signature>", where the signature is a personal-sign over
// keccak256 of the request body. The server recovers the signer and requires
// it to match the claimed address, so the header cannot vouch for a body it
// was not produced for.

// SignRequestBody produces the signed-request header value for body.
func SignRequestBody(body []byte, key *ecdsa.PrivateKey) (string, error) {
	digest := crypto.Keccak256Hash(body)
	sig, err := Sign(digest, key)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s:0x%s", IdentityOf(key).String(), hex.EncodeToString(sig)), nil
}

// RecoverRequestSigner parses a signed-request header, verifies the signature
// against body, and returns the caller identity. The claimed address and the
// recovered signer must agree.
func RecoverRequestSigner(header string, body []byte) (interfaces.Identity, error) {
	addrPart, sigPart, found := strings.Cut(header, ":")
	if !found {
		return interfaces.Identity{}, fmt.Errorf("%w: malformed signature header", interfaces.ErrInvalidSignature)
	}

	claimed, err := interfaces.NewIdentityFromHex(addrPart)
	if err != nil {
		return interfaces.Identity{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidSignature, err)
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(sigPart, "0x"))
	if err != nil {
		return interfaces.Identity{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidSignature, err)
	}

	verifier := NewEthereumVerifier()
	signer, err := verifier.RecoverSigner(crypto.Keccak256Hash(body), sig)
	if err != nil {
		return interfaces.Identity{}, err
	}

	if !signer.Equal(claimed) {
		return interfaces.Identity{}, fmt.Errorf("%w: header claims %s but body was signed by %s", interfaces.ErrUnauthorized, claimed, signer)
	}

	return signer, nil
}
