package interfaces

// EventKind names a committed transition.
type EventKind string

const (
	// EventToBeRegistered is emitted when a title is created.
	EventToBeRegistered EventKind = "ToBeRegistered"
	// EventRegistered is emitted when a title completes registration.
	EventRegistered EventKind = "Registered"
)

// TitleEvent is the structured notification emitted for each committed
// mutation, in commit order. Events are the sole change-notification channel
// offered to observers; polling records directly is also valid but events
// give ordering.
type TitleEvent struct {
	// Kind names the committed transition.
	Kind EventKind `json:"kind"`

	// Index is the title's store index.
	Index uint64 `json:"index"`

	// ID is the title code.
	ID TitleID `json:"id"`

	// Sequence is the event's position in the registry's event log,
	// 0-based and gapless.
	Sequence uint64 `json:"sequence"`
}
