// Package sigverify implements the registry's canonical message scheme and
// signature recovery.
//
// A registration is authorized off-band: the title owner signs
// keccak256(owner ‖ registry ‖ title code) with eth_sign semantics (EIP-191
// personal-sign over the 32-byte digest). Verification is purely a reversal of
// signing, so the digest construction here must match the signer byte for
// byte; any deviation in byte order or encoding breaks all signatures.
package sigverify
