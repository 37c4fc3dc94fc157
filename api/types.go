// Package api defines the wire types shared by the registry HTTP server and
// its clients.
package api

import (
	"github.com/landreg/title-registry-backend/interfaces"
)

// SignatureHeader carries the caller's request authentication:
// "<0x-hex address>:<0x-hex signature>", an EIP-191 personal signature over
// keccak256 of the request body. The recovered address is the caller identity.
const SignatureHeader = "X-Registry-Signature"

// AddTitleRequest creates a new title record. Administrator only.
type AddTitleRequest struct {
	// ID is the 12-character alphanumeric title code.
	ID string `json:"id"`

	// Size is the parcel size in square meters.
	Size uint64 `json:"size"`

	// Location is a free-form parcel location description.
	Location string `json:"location"`

	// Image is a URI referencing the parcel image, typically an archive
	// content ID.
	Image string `json:"image"`
}

// AddTitleResponse returns the index assigned to the new title.
type AddTitleResponse struct {
	Index uint64 `json:"index"`
}

// RegisterTitleRequest completes registration of a title.
type RegisterTitleRequest struct {
	// TitleID must match the record's title code.
	TitleID string `json:"title_id"`

	// Signature is the owner's hex-encoded 65-byte personal signature over
	// the canonical title message.
	Signature string `json:"signature"`

	// Payment is the escrowed amount in wei, as a decimal string.
	Payment string `json:"payment"`
}

// ProcessSignatureRequest recovers the signer of a canonical title message.
type ProcessSignatureRequest struct {
	// Owner is the hex address the message was built for.
	Owner string `json:"owner"`

	// TitleID is the title code bound into the message.
	TitleID string `json:"title_id"`

	// Signature is the hex-encoded 65-byte personal signature.
	Signature string `json:"signature"`
}

// ProcessSignatureResponse returns the recovered signer address.
type ProcessSignatureResponse struct {
	Signer string `json:"signer"`
}

// EventsResponse is a snapshot of the ordered event log.
type EventsResponse struct {
	Events []interfaces.TitleEvent `json:"events"`
}

// UploadDocumentResponse returns the content ID of an archived document.
type UploadDocumentResponse struct {
	ContentID string `json:"content_id"`
}

// TitleRegistryClient is the client-side view of the registry HTTP API.
type TitleRegistryClient interface {
	AddTitle(req *AddTitleRequest) (*AddTitleResponse, error)
	FetchTitle(index uint64) (*interfaces.Title, error)
	RegisterTitle(index uint64, req *RegisterTitleRequest) error
	ProcessSignature(req *ProcessSignatureRequest) (*ProcessSignatureResponse, error)
	Events() (*EventsResponse, error)
	UploadDocument(contentType interfaces.ContentType, data []byte) (*UploadDocumentResponse, error)
	FetchDocument(contentType interfaces.ContentType, id interfaces.ContentID) ([]byte, error)
}
