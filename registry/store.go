package registry

import (
	"sync"

	"github.com/landreg/title-registry-backend/interfaces"
)

// TitleStore is an indexed, append-only collection of title records. Indices
// are 0-based, sequential, assigned at creation, and never reused. The store
// never removes or reorders entries; record contents are mutated only through
// the transition engine.
type TitleStore struct {
	mu     sync.RWMutex
	titles []interfaces.Title
}

// NewTitleStore creates an empty title store.
func NewTitleStore() *TitleStore {
	return &TitleStore{}
}

// Create appends a new record with state ToBeRegistered, nonce 0, and the
// creator as current owner, and returns the assigned index.
func (s *TitleStore) Create(id interfaces.TitleID, size uint64, location, image string, creator interfaces.Identity) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.titles = append(s.titles, interfaces.Title{
		ID:        id,
		CurrOwner: creator,
		Nonce:     0,
		Size:      size,
		Location:  location,
		Image:     image,
		State:     interfaces.ToBeRegistered,
	})
	return uint64(len(s.titles) - 1)
}

// Get returns a snapshot of the record at index, or ErrTitleNotFound if the
// index has never been assigned.
func (s *TitleStore) Get(index uint64) (interfaces.Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index >= uint64(len(s.titles)) {
		return interfaces.Title{}, interfaces.ErrTitleNotFound
	}
	return s.titles[index], nil
}

// Len returns the number of records in the store.
func (s *TitleStore) Len() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.titles))
}

// update applies fn to the record at index under the store lock. The engine
// uses this to commit a validated transition in one critical section.
func (s *TitleStore) update(index uint64, fn func(*interfaces.Title)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index >= uint64(len(s.titles)) {
		return interfaces.ErrTitleNotFound
	}
	fn(&s.titles[index])
	return nil
}
