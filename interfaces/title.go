package interfaces

import "math/big"

// TitleState is the lifecycle state of a title record. It is a closed
// enumeration: operations validate their required source state against an
// explicit transition table and reject everything else.
type TitleState int

const (
	// ToBeRegistered is the initial state of every created title.
	ToBeRegistered TitleState = iota
	// Registered means the registration fee was paid and the owner's
	// signature verified.
	Registered
	// ToBeTransfered marks a title whose owner initiated a transfer.
	// Declared by the state machine but not yet driven by any operation.
	ToBeTransfered
	// Transfered marks a completed ownership transfer.
	// Declared by the state machine but not yet driven by any operation.
	Transfered
)

// String returns the state name.
func (s TitleState) String() string {
	switch s {
	case ToBeRegistered:
		return "ToBeRegistered"
	case Registered:
		return "Registered"
	case ToBeTransfered:
		return "ToBeTransfered"
	case Transfered:
		return "Transfered"
	default:
		return "unknown"
	}
}

// CanTransitionTo reports whether the state machine admits a transition from
// s to next. Transitions are monotone: nothing moves a title backwards.
func (s TitleState) CanTransitionTo(next TitleState) bool {
	switch s {
	case ToBeRegistered:
		return next == Registered
	case Registered:
		return next == ToBeTransfered
	case ToBeTransfered:
		return next == Transfered
	default:
		return false
	}
}

// Title is one land parcel's registration record. Records are created by the
// administrator, held in an append-only store, and mutated in place only by
// the transition engine.
type Title struct {
	// ID is the parcel's title code, immutable after creation.
	ID TitleID `json:"id"`

	// CurrOwner is the identity entitled to authorize the next transition.
	// Set to the creator at creation; changes only through a committed
	// transition.
	CurrOwner Identity `json:"curr_owner"`

	// Nonce starts at 0 and is incremented on every committed transition.
	Nonce uint64 `json:"nonce"`

	// Size is the parcel size in square feet, immutable after creation.
	Size uint64 `json:"size"`

	// Location is a free-form location description, immutable after creation.
	Location string `json:"location"`

	// Image is a reference to the parcel image, conventionally a document
	// archive content URI. Immutable after creation.
	Image string `json:"image"`

	// State is the record's position in the registration state machine.
	State TitleState `json:"state"`
}

// RegistryConfig is the process-wide registry configuration, fixed at
// construction and immutable for the registry's lifetime.
type RegistryConfig struct {
	// RegistryIdentity receives registration fees and is bound into every
	// canonical message to prevent cross-registry signature reuse.
	RegistryIdentity Identity

	// Administrator is the only identity permitted to create titles.
	Administrator Identity

	// RegistrationFee is the minimum payment, in wei, accepted by
	// RegisterTitle.
	RegistrationFee *big.Int

	// TransferFee is the fee, in wei, reserved for the transfer flow.
	// Declared but not yet consumed by any operation.
	TransferFee *big.Int
}
