package registry

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/landreg/title-registry-backend/escrow"
	"github.com/landreg/title-registry-backend/interfaces"
	"github.com/landreg/title-registry-backend/sigverify"
)

// Fixture values from the registry's reference scenario.
const (
	testTitleID  = interfaces.TitleID("a1b2c3d4e5f6")
	testSize     = uint64(2400)
	testLocation = "location string"
	testImage    = "image url"
)

// oneEther is the reference registration fee (1e18 wei).
var oneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// testEnv wires a registry with the real verifier and the in-memory ledger,
// with the administrator's key available for signing.
type testEnv struct {
	registry  *Registry
	ledger    *escrow.Ledger
	admin     interfaces.Identity
	adminKey  *ecdsa.PrivateKey
	registryI interfaces.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	adminKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	admin := sigverify.IdentityOf(adminKey)

	registryIdent, err := interfaces.NewIdentityFromHex("0x4feB40203704600e036Ac27da7975c9c857f13Dc")
	require.NoError(t, err)

	ledger := escrow.NewLedger()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg, err := New(interfaces.RegistryConfig{
		RegistryIdentity: registryIdent,
		Administrator:    admin,
		RegistrationFee:  oneEther,
		TransferFee:      oneEther,
	}, sigverify.NewEthereumVerifier(), ledger, log)
	require.NoError(t, err)
	t.Cleanup(reg.Close)

	return &testEnv{
		registry:  reg,
		ledger:    ledger,
		admin:     admin,
		adminKey:  adminKey,
		registryI: registryIdent,
	}
}

// ownerSignature produces the wallet-style signature the title owner submits
// for registration.
func (e *testEnv) ownerSignature(t *testing.T, key *ecdsa.PrivateKey, id interfaces.TitleID) []byte {
	t.Helper()
	digest := sigverify.CanonicalMessage(sigverify.IdentityOf(key), e.registryI, id)
	sig, err := sigverify.Sign(digest, key)
	require.NoError(t, err)
	return sig
}

func TestAddTitle(t *testing.T) {
	env := newTestEnv(t)

	index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), index)

	title, err := env.registry.FetchTitle(0)
	require.NoError(t, err)
	assert.Equal(t, testTitleID, title.ID)
	assert.True(t, title.CurrOwner.Equal(env.admin))
	assert.Equal(t, uint64(0), title.Nonce)
	assert.Equal(t, testSize, title.Size)
	assert.Equal(t, testLocation, title.Location)
	assert.Equal(t, testImage, title.Image)
	assert.Equal(t, interfaces.ToBeRegistered, title.State)
}

func TestAddTitleSequentialIndices(t *testing.T) {
	env := newTestEnv(t)

	for want := uint64(0); want < 5; want++ {
		index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
		require.NoError(t, err)
		assert.Equal(t, want, index)
	}
	assert.Equal(t, uint64(5), env.registry.TitleCount())
}

func TestAddTitleNonAdministratorForbidden(t *testing.T) {
	env := newTestEnv(t)

	aliceKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = env.registry.AddTitle(sigverify.IdentityOf(aliceKey), testTitleID, testSize, testLocation, testImage)
	assert.ErrorIs(t, err, interfaces.ErrForbidden)

	// No record was created.
	assert.Equal(t, uint64(0), env.registry.TitleCount())
	assert.Empty(t, env.registry.Events())
}

func TestAddTitleInvalidCode(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.registry.AddTitle(env.admin, "short", testSize, testLocation, testImage)
	assert.Error(t, err)

	_, err = env.registry.AddTitle(env.admin, "a1b2c3d4e5f!", testSize, testLocation, testImage)
	assert.Error(t, err)

	assert.Equal(t, uint64(0), env.registry.TitleCount())
}

func TestProcessSignatureRecoversOwner(t *testing.T) {
	env := newTestEnv(t)

	sig := env.ownerSignature(t, env.adminKey, testTitleID)

	signer, err := env.registry.ProcessSignature(env.admin, sig, testTitleID)
	require.NoError(t, err)
	assert.True(t, signer.Equal(env.admin))
}

func TestProcessSignatureMalformed(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.registry.ProcessSignature(env.admin, []byte{0x01, 0x02}, testTitleID)
	assert.ErrorIs(t, err, interfaces.ErrInvalidSignature)
}

func TestRegisterTitle(t *testing.T) {
	env := newTestEnv(t)

	index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)

	require.NoError(t, env.ledger.Deposit(env.admin, new(big.Int).Mul(oneEther, big.NewInt(2))))
	sig := env.ownerSignature(t, env.adminKey, testTitleID)

	err = env.registry.RegisterTitle(context.Background(), index, sig, testTitleID, env.admin, oneEther)
	require.NoError(t, err)

	title, err := env.registry.FetchTitle(index)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Registered, title.State)
	assert.Equal(t, uint64(1), title.Nonce)

	// The registry received exactly the fee.
	assert.Equal(t, oneEther, env.ledger.BalanceOf(env.registryI))
	assert.Equal(t, oneEther, env.ledger.BalanceOf(env.admin))

	events := env.registry.Events()
	require.Len(t, events, 2)
	assert.Equal(t, interfaces.EventToBeRegistered, events[0].Kind)
	assert.Equal(t, interfaces.EventRegistered, events[1].Kind)
	assert.Equal(t, testTitleID, events[1].ID)
	assert.Equal(t, index, events[1].Index)
}

func TestRegisterTitleExcessPaymentForwardedInFull(t *testing.T) {
	env := newTestEnv(t)

	index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)

	payment := new(big.Int).Mul(oneEther, big.NewInt(3))
	require.NoError(t, env.ledger.Deposit(env.admin, payment))
	sig := env.ownerSignature(t, env.adminKey, testTitleID)

	err = env.registry.RegisterTitle(context.Background(), index, sig, testTitleID, env.admin, payment)
	require.NoError(t, err)

	// Excess above the fee is forwarded, not refunded.
	assert.Equal(t, payment, env.ledger.BalanceOf(env.registryI))
	assert.Equal(t, big.NewInt(0), env.ledger.BalanceOf(env.admin))
}

func TestRegisterTitleInsufficientFee(t *testing.T) {
	env := newTestEnv(t)

	index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)

	require.NoError(t, env.ledger.Deposit(env.admin, oneEther))
	sig := env.ownerSignature(t, env.adminKey, testTitleID)

	err = env.registry.RegisterTitle(context.Background(), index, sig, testTitleID, env.admin, big.NewInt(0))
	assert.ErrorIs(t, err, interfaces.ErrInsufficientFee)

	// State unchanged, no funds moved, no event emitted.
	title, err := env.registry.FetchTitle(index)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ToBeRegistered, title.State)
	assert.Equal(t, uint64(0), title.Nonce)
	assert.Equal(t, big.NewInt(0), env.ledger.BalanceOf(env.registryI))
	assert.Len(t, env.registry.Events(), 1)
}

func TestRegisterTitleNonOwnerCallerForbidden(t *testing.T) {
	env := newTestEnv(t)

	index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)

	aliceKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	alice := sigverify.IdentityOf(aliceKey)
	require.NoError(t, env.ledger.Deposit(alice, oneEther))

	// Valid owner signature, but the caller is not the owner.
	sig := env.ownerSignature(t, env.adminKey, testTitleID)
	err = env.registry.RegisterTitle(context.Background(), index, sig, testTitleID, alice, oneEther)
	assert.ErrorIs(t, err, interfaces.ErrForbidden)

	title, err := env.registry.FetchTitle(index)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ToBeRegistered, title.State)
}

func TestRegisterTitleWrongSignerUnauthorized(t *testing.T) {
	env := newTestEnv(t)

	index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)

	aliceKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	// Alice signs the canonical message for the owner's record; recovery
	// yields alice, not the owner.
	digest := sigverify.CanonicalMessage(env.admin, env.registryI, testTitleID)
	sig, err := sigverify.Sign(digest, aliceKey)
	require.NoError(t, err)

	err = env.registry.RegisterTitle(context.Background(), index, sig, testTitleID, env.admin, oneEther)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
}

func TestRegisterTitleNotFound(t *testing.T) {
	env := newTestEnv(t)

	sig := env.ownerSignature(t, env.adminKey, testTitleID)
	err := env.registry.RegisterTitle(context.Background(), 7, sig, testTitleID, env.admin, oneEther)
	assert.ErrorIs(t, err, interfaces.ErrTitleNotFound)
}

func TestRegisterTitleInvalidStateWinsOverSignatureAndFee(t *testing.T) {
	env := newTestEnv(t)

	index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)

	require.NoError(t, env.ledger.Deposit(env.admin, new(big.Int).Mul(oneEther, big.NewInt(2))))
	sig := env.ownerSignature(t, env.adminKey, testTitleID)
	require.NoError(t, env.registry.RegisterTitle(context.Background(), index, sig, testTitleID, env.admin, oneEther))

	// Second registration fails on state before signature or fee are looked
	// at: garbage signature and zero payment still surface ErrInvalidState.
	err = env.registry.RegisterTitle(context.Background(), index, []byte("junk"), testTitleID, env.admin, big.NewInt(0))
	assert.ErrorIs(t, err, interfaces.ErrInvalidState)
}

func TestRegisterTitleForwardingFailureRetainsState(t *testing.T) {
	adminKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	admin := sigverify.IdentityOf(adminKey)

	registryIdent, err := interfaces.NewIdentityFromHex("0x4feB40203704600e036Ac27da7975c9c857f13Dc")
	require.NoError(t, err)

	forwarder := new(MockForwarder)
	forwarder.On("Forward", admin, registryIdent, mock.Anything).Return(errors.New("rpc unreachable"))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg, err := New(interfaces.RegistryConfig{
		RegistryIdentity: registryIdent,
		Administrator:    admin,
		RegistrationFee:  oneEther,
		TransferFee:      oneEther,
	}, sigverify.NewEthereumVerifier(), forwarder, log)
	require.NoError(t, err)
	defer reg.Close()

	index, err := reg.AddTitle(admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)

	digest := sigverify.CanonicalMessage(admin, registryIdent, testTitleID)
	sig, err := sigverify.Sign(digest, adminKey)
	require.NoError(t, err)

	err = reg.RegisterTitle(context.Background(), index, sig, testTitleID, admin, oneEther)
	require.Error(t, err)

	// The operation aborted whole: still ToBeRegistered, no Registered event.
	title, err := reg.FetchTitle(index)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ToBeRegistered, title.State)
	assert.Equal(t, uint64(0), title.Nonce)
	assert.Len(t, reg.Events(), 1)
	forwarder.AssertExpectations(t)
}

func TestPreconditionOrderSignatureBeforeCaller(t *testing.T) {
	// A fake verifier pins the recovered identity so the test can observe
	// that signature authorship is checked before caller identity.
	env := newTestEnv(t)

	index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)

	aliceKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	alice := sigverify.IdentityOf(aliceKey)

	// Signature by alice, caller alice: the signature check (step 3) fires
	// before the caller check (step 4).
	digest := sigverify.CanonicalMessage(env.admin, env.registryI, testTitleID)
	sig, err := sigverify.Sign(digest, aliceKey)
	require.NoError(t, err)

	err = env.registry.RegisterTitle(context.Background(), index, sig, testTitleID, alice, oneEther)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
}

func TestSubscribeEvents(t *testing.T) {
	env := newTestEnv(t)

	ch := make(chan interfaces.TitleEvent, 4)
	sub := env.registry.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)

	ev := <-ch
	assert.Equal(t, interfaces.EventToBeRegistered, ev.Kind)
	assert.Equal(t, index, ev.Index)
	assert.Equal(t, uint64(0), ev.Sequence)

	require.NoError(t, env.ledger.Deposit(env.admin, oneEther))
	sig := env.ownerSignature(t, env.adminKey, testTitleID)
	require.NoError(t, env.registry.RegisterTitle(context.Background(), index, sig, testTitleID, env.admin, oneEther))

	ev = <-ch
	assert.Equal(t, interfaces.EventRegistered, ev.Kind)
	assert.Equal(t, uint64(1), ev.Sequence)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := sigverify.NewEthereumVerifier()
	ledger := escrow.NewLedger()

	admin, err := interfaces.NewIdentityFromHex("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	registryIdent, err := interfaces.NewIdentityFromHex("0x2222222222222222222222222222222222222222")
	require.NoError(t, err)

	valid := interfaces.RegistryConfig{
		RegistryIdentity: registryIdent,
		Administrator:    admin,
		RegistrationFee:  oneEther,
		TransferFee:      oneEther,
	}

	tests := []struct {
		name   string
		mutate func(*interfaces.RegistryConfig)
	}{
		{"zero registry identity", func(c *interfaces.RegistryConfig) { c.RegistryIdentity = interfaces.Identity{} }},
		{"zero administrator", func(c *interfaces.RegistryConfig) { c.Administrator = interfaces.Identity{} }},
		{"nil registration fee", func(c *interfaces.RegistryConfig) { c.RegistrationFee = nil }},
		{"negative registration fee", func(c *interfaces.RegistryConfig) { c.RegistrationFee = big.NewInt(-1) }},
		{"nil transfer fee", func(c *interfaces.RegistryConfig) { c.TransferFee = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := New(cfg, verifier, ledger, log)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfigImmutable(t *testing.T) {
	env := newTestEnv(t)

	cfg := env.registry.Config()
	cfg.RegistrationFee.SetInt64(0)

	// The engine's own fee is unaffected by mutating the returned copy.
	index, err := env.registry.AddTitle(env.admin, testTitleID, testSize, testLocation, testImage)
	require.NoError(t, err)

	sig := env.ownerSignature(t, env.adminKey, testTitleID)
	err = env.registry.RegisterTitle(context.Background(), index, sig, testTitleID, env.admin, big.NewInt(0))
	assert.ErrorIs(t, err, interfaces.ErrInsufficientFee)
}
