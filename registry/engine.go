package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/landreg/title-registry-backend/interfaces"
	"github.com/landreg/title-registry-backend/sigverify"
)

// ErrInvalidConfig is returned when a registry is constructed with missing or
// inconsistent configuration.
var ErrInvalidConfig = errors.New("invalid registry configuration")

// Registry is the fee-escrow transition engine. It composes the title store,
// signature verifier, and funds forwarder, and is the only component that
// mutates title state. Mutating operations are serialized; reads and
// signature processing run concurrently.
type Registry struct {
	cfg       interfaces.RegistryConfig
	store     *TitleStore
	verifier  interfaces.SignatureVerifier
	forwarder interfaces.FundsForwarder
	log       *slog.Logger

	// mu serializes AddTitle and RegisterTitle so no interleaving of two
	// mutations is observable and the event log matches commit order.
	mu     sync.Mutex
	events []interfaces.TitleEvent
	feed   event.Feed
	scope  event.SubscriptionScope
}

// New creates a transition engine with the given configuration and
// collaborators. The configuration is copied and immutable thereafter.
func New(cfg interfaces.RegistryConfig, verifier interfaces.SignatureVerifier, forwarder interfaces.FundsForwarder, log *slog.Logger) (*Registry, error) {
	if cfg.RegistryIdentity.IsZero() {
		return nil, fmt.Errorf("%w: registry identity not set", ErrInvalidConfig)
	}
	if cfg.Administrator.IsZero() {
		return nil, fmt.Errorf("%w: administrator identity not set", ErrInvalidConfig)
	}
	if cfg.RegistrationFee == nil || cfg.RegistrationFee.Sign() < 0 {
		return nil, fmt.Errorf("%w: registration fee not set", ErrInvalidConfig)
	}
	if cfg.TransferFee == nil || cfg.TransferFee.Sign() < 0 {
		return nil, fmt.Errorf("%w: transfer fee not set", ErrInvalidConfig)
	}
	if verifier == nil || forwarder == nil {
		return nil, fmt.Errorf("%w: verifier and forwarder are required", ErrInvalidConfig)
	}

	frozen := cfg
	frozen.RegistrationFee = new(big.Int).Set(cfg.RegistrationFee)
	frozen.TransferFee = new(big.Int).Set(cfg.TransferFee)

	return &Registry{
		cfg:       frozen,
		store:     NewTitleStore(),
		verifier:  verifier,
		forwarder: forwarder,
		log:       log,
	}, nil
}

// Config returns a copy of the registry configuration.
func (r *Registry) Config() interfaces.RegistryConfig {
	cfg := r.cfg
	cfg.RegistrationFee = new(big.Int).Set(r.cfg.RegistrationFee)
	cfg.TransferFee = new(big.Int).Set(r.cfg.TransferFee)
	return cfg
}

// AddTitle creates a title record and returns its index. Only the configured
// administrator may create titles; any other caller fails with ErrForbidden
// and no record is created. Emits a ToBeRegistered event on success.
func (r *Registry) AddTitle(caller interfaces.Identity, id interfaces.TitleID, size uint64, location, image string) (uint64, error) {
	if err := id.Validate(); err != nil {
		return 0, err
	}
	if !caller.Equal(r.cfg.Administrator) {
		return 0, fmt.Errorf("%w: only the administrator may add titles", interfaces.ErrForbidden)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.store.Create(id, size, location, image, caller)
	r.emit(interfaces.EventToBeRegistered, index, id)

	r.log.Info("Title added",
		slog.Uint64("index", index),
		slog.String("id", id.String()),
		slog.String("owner", caller.String()))

	return index, nil
}

// ProcessSignature verifies a signature against the canonical message for
// (ownerClaim, registry identity, titleID) and returns the recovered signer.
// Read-only: callers use it to confirm a signature before submitting it for
// registration.
func (r *Registry) ProcessSignature(ownerClaim interfaces.Identity, signature []byte, titleID interfaces.TitleID) (interfaces.Identity, error) {
	digest := sigverify.CanonicalMessage(ownerClaim, r.cfg.RegistryIdentity, titleID)
	return r.verifier.RecoverSigner(digest, signature)
}

// RegisterTitle drives the record at index from ToBeRegistered to Registered.
//
// Preconditions, checked in order with the first failure winning:
// the record exists; it is in ToBeRegistered; the signature over the
// canonical message was produced by the record's current owner (the signer
// and the transaction caller may differ, both are checked); the caller is the
// current owner; the payment meets the registration fee.
//
// On success the full payment - excess included - is forwarded to the
// registry identity, the state becomes Registered, the nonce is incremented,
// and one Registered event is emitted. If forwarding fails the whole call
// fails and no state change is retained.
func (r *Registry) RegisterTitle(ctx context.Context, index uint64, signature []byte, titleID interfaces.TitleID, caller interfaces.Identity, payment *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.store.Get(index)
	if err != nil {
		return err
	}

	if rec.State != interfaces.ToBeRegistered {
		return fmt.Errorf("%w: title is %s, want %s", interfaces.ErrInvalidState, rec.State, interfaces.ToBeRegistered)
	}

	digest := sigverify.CanonicalMessage(rec.CurrOwner, r.cfg.RegistryIdentity, titleID)
	signer, err := r.verifier.RecoverSigner(digest, signature)
	if err != nil {
		return err
	}
	if !signer.Equal(rec.CurrOwner) {
		return fmt.Errorf("%w: signed by %s, want owner %s", interfaces.ErrUnauthorized, signer, rec.CurrOwner)
	}

	if !caller.Equal(rec.CurrOwner) {
		return fmt.Errorf("%w: caller %s is not the title owner", interfaces.ErrForbidden, caller)
	}

	if payment == nil || payment.Cmp(r.cfg.RegistrationFee) < 0 {
		return fmt.Errorf("%w: registration fee is %s wei", interfaces.ErrInsufficientFee, r.cfg.RegistrationFee)
	}

	// The one external call. Nothing has been mutated yet, so a forwarding
	// failure aborts the operation with the record untouched.
	if err := r.forwarder.Forward(ctx, caller, r.cfg.RegistryIdentity, payment); err != nil {
		return fmt.Errorf("fee forwarding failed: %w", err)
	}

	if err := r.store.update(index, func(t *interfaces.Title) {
		t.State = interfaces.Registered
		t.Nonce++
	}); err != nil {
		return err
	}

	r.emit(interfaces.EventRegistered, index, rec.ID)

	r.log.Info("Title registered",
		slog.Uint64("index", index),
		slog.String("id", rec.ID.String()),
		slog.String("owner", rec.CurrOwner.String()),
		slog.String("payment", payment.String()))

	return nil
}

// FetchTitle returns a snapshot of the record at index.
func (r *Registry) FetchTitle(index uint64) (interfaces.Title, error) {
	return r.store.Get(index)
}

// TitleCount returns the number of records created so far.
func (r *Registry) TitleCount() uint64 {
	return r.store.Len()
}

// Events returns a snapshot of the ordered event log.
func (r *Registry) Events() []interfaces.TitleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]interfaces.TitleEvent, len(r.events))
	copy(out, r.events)
	return out
}

// SubscribeEvents subscribes ch to future title events. The subscription ends
// when Unsubscribe is called or the engine is closed.
func (r *Registry) SubscribeEvents(ch chan<- interfaces.TitleEvent) event.Subscription {
	return r.scope.Track(r.feed.Subscribe(ch))
}

// Close tears down all event subscriptions.
func (r *Registry) Close() {
	r.scope.Close()
}

// emit appends to the event log and notifies subscribers. Callers hold r.mu,
// which makes the log's sequence numbers gapless and commit-ordered.
func (r *Registry) emit(kind interfaces.EventKind, index uint64, id interfaces.TitleID) {
	ev := interfaces.TitleEvent{
		Kind:     kind,
		Index:    index,
		ID:       id,
		Sequence: uint64(len(r.events)),
	}
	r.events = append(r.events, ev)
	r.feed.Send(ev)
}
