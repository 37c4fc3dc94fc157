package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/title-registry-backend/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileBackendRoundTrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	deed := []byte("scanned deed for parcel a1b2c3d4e5f6")

	id, err := backend.Store(ctx, deed, interfaces.DeedType)
	require.NoError(t, err)
	assert.True(t, id.Equal(interfaces.ComputeContentID(deed)))

	fetched, err := backend.Fetch(ctx, id, interfaces.DeedType)
	require.NoError(t, err)
	assert.Equal(t, deed, fetched)
}

func TestFileBackendNamespacesAreSeparate(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("parcel image bytes")

	id, err := backend.Store(ctx, data, interfaces.ImageType)
	require.NoError(t, err)

	// Same ID under the deed namespace must not resolve.
	_, err = backend.Fetch(ctx, id, interfaces.DeedType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestFileBackendFetchMissing(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	id := interfaces.ComputeContentID([]byte("never stored"))
	_, err = backend.Fetch(context.Background(), id, interfaces.ImageType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestFileBackendAvailable(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)
	assert.True(t, backend.Available(context.Background()))
}

// unavailableBackend simulates a backend whose service is down.
type unavailableBackend struct{}

func (unavailableBackend) Fetch(context.Context, interfaces.ContentID, interfaces.ContentType) ([]byte, error) {
	return nil, interfaces.ErrBackendUnavailable
}

func (unavailableBackend) Store(context.Context, []byte, interfaces.ContentType) (interfaces.ContentID, error) {
	return interfaces.ContentID{}, interfaces.ErrBackendUnavailable
}

func (unavailableBackend) Available(context.Context) bool { return false }
func (unavailableBackend) Name() string                   { return "unavailable" }
func (unavailableBackend) LocationURI() string            { return "test://unavailable" }

func TestMultiBackendFallbackFetch(t *testing.T) {
	ctx := context.Background()
	primary, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)
	secondary, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	// Content present only on the secondary backend.
	data := []byte("deed held by one replica only")
	id, err := secondary.Store(ctx, data, interfaces.DeedType)
	require.NoError(t, err)

	multi := NewMultiBackend([]interfaces.StorageBackend{unavailableBackend{}, primary, secondary}, testLogger())

	fetched, err := multi.Fetch(ctx, id, interfaces.DeedType)
	require.NoError(t, err)
	assert.Equal(t, data, fetched)
}

func TestMultiBackendStoreReplicates(t *testing.T) {
	ctx := context.Background()
	primary, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)
	secondary, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	multi := NewMultiBackend([]interfaces.StorageBackend{primary, secondary}, testLogger())

	data := []byte("replicated parcel image")
	id, err := multi.Store(ctx, data, interfaces.ImageType)
	require.NoError(t, err)

	for _, backend := range []interfaces.StorageBackend{primary, secondary} {
		got, err := backend.Fetch(ctx, id, interfaces.ImageType)
		require.NoError(t, err, backend.Name())
		assert.Equal(t, data, got)
	}
}

func TestMultiBackendStoreSurvivesPartialFailure(t *testing.T) {
	ctx := context.Background()
	working, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	multi := NewMultiBackend([]interfaces.StorageBackend{unavailableBackend{}, working}, testLogger())

	data := []byte("single surviving replica")
	id, err := multi.Store(ctx, data, interfaces.DeedType)
	require.NoError(t, err)

	got, err := working.Fetch(ctx, id, interfaces.DeedType)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMultiBackendMissReportsNotFound(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	multi := NewMultiBackend([]interfaces.StorageBackend{backend}, testLogger())

	id := interfaces.ComputeContentID([]byte("missing everywhere"))
	_, err = multi.Fetch(ctx, id, interfaces.ImageType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestArchiveFactorySchemes(t *testing.T) {
	factory := NewArchiveFactory(testLogger())

	backend, err := factory.StorageBackendFor(interfaces.StorageBackendLocation("file://" + t.TempDir()))
	require.NoError(t, err)
	assert.Contains(t, backend.Name(), "file")

	_, err = factory.StorageBackendFor("ftp://example.com/archive")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)

	_, err = factory.StorageBackendFor("vault://vault.local:8200/secret")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestArchiveFactoryMultiBackendSkipsInvalid(t *testing.T) {
	factory := NewArchiveFactory(testLogger())

	multi, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{
		"bogus://nowhere",
		interfaces.StorageBackendLocation("file://" + t.TempDir()),
	})
	require.NoError(t, err)
	assert.True(t, multi.Available(context.Background()))

	_, err = factory.CreateMultiBackend([]interfaces.StorageBackendLocation{"bogus://nowhere"})
	assert.Error(t, err)
}
