package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/title-registry-backend/interfaces"
)

func storeIdentity(t *testing.T, hex string) interfaces.Identity {
	t.Helper()
	id, err := interfaces.NewIdentityFromHex(hex)
	require.NoError(t, err)
	return id
}

func TestTitleStoreCreateAndGet(t *testing.T) {
	store := NewTitleStore()
	owner := storeIdentity(t, "0x1111111111111111111111111111111111111111")

	index := store.Create("a1b2c3d4e5f6", 2400, "location string", "image url", owner)
	assert.Equal(t, uint64(0), index)

	title, err := store.Get(index)
	require.NoError(t, err)
	assert.Equal(t, interfaces.TitleID("a1b2c3d4e5f6"), title.ID)
	assert.True(t, title.CurrOwner.Equal(owner))
	assert.Equal(t, uint64(0), title.Nonce)
	assert.Equal(t, interfaces.ToBeRegistered, title.State)
}

func TestTitleStoreGetUnassigned(t *testing.T) {
	store := NewTitleStore()
	_, err := store.Get(0)
	assert.ErrorIs(t, err, interfaces.ErrTitleNotFound)

	owner := storeIdentity(t, "0x1111111111111111111111111111111111111111")
	store.Create("a1b2c3d4e5f6", 2400, "loc", "img", owner)
	_, err = store.Get(1)
	assert.ErrorIs(t, err, interfaces.ErrTitleNotFound)
}

func TestTitleStoreGetReturnsSnapshot(t *testing.T) {
	store := NewTitleStore()
	owner := storeIdentity(t, "0x1111111111111111111111111111111111111111")
	index := store.Create("a1b2c3d4e5f6", 2400, "loc", "img", owner)

	title, err := store.Get(index)
	require.NoError(t, err)
	title.State = interfaces.Registered

	// Mutating the snapshot does not touch the stored record.
	stored, err := store.Get(index)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ToBeRegistered, stored.State)
}

func TestTitleStoreConcurrentCreates(t *testing.T) {
	store := NewTitleStore()
	owner := storeIdentity(t, "0x1111111111111111111111111111111111111111")

	const n = 64
	var wg sync.WaitGroup
	indices := make(chan uint64, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			indices <- store.Create("a1b2c3d4e5f6", 2400, "loc", "img", owner)
		}()
	}
	wg.Wait()
	close(indices)

	seen := make(map[uint64]bool)
	for idx := range indices {
		assert.False(t, seen[idx], "index %d assigned twice", idx)
		seen[idx] = true
	}
	assert.Equal(t, uint64(n), store.Len())
}
