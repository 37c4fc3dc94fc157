package escrow

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/title-registry-backend/interfaces"
)

func testIdentity(t *testing.T, hex string) interfaces.Identity {
	t.Helper()
	id, err := interfaces.NewIdentityFromHex(hex)
	require.NoError(t, err)
	return id
}

func TestLedgerForward(t *testing.T) {
	alice := testIdentity(t, "0x1111111111111111111111111111111111111111")
	registry := testIdentity(t, "0x2222222222222222222222222222222222222222")

	ledger := NewLedger()
	require.NoError(t, ledger.Deposit(alice, big.NewInt(1_000)))

	err := ledger.Forward(context.Background(), alice, registry, big.NewInt(400))
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(600), ledger.BalanceOf(alice))
	assert.Equal(t, big.NewInt(400), ledger.BalanceOf(registry))
}

func TestLedgerForwardInsufficientBalance(t *testing.T) {
	alice := testIdentity(t, "0x1111111111111111111111111111111111111111")
	registry := testIdentity(t, "0x2222222222222222222222222222222222222222")

	ledger := NewLedger()
	require.NoError(t, ledger.Deposit(alice, big.NewInt(100)))

	err := ledger.Forward(context.Background(), alice, registry, big.NewInt(400))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// All-or-nothing: no balance moved.
	assert.Equal(t, big.NewInt(100), ledger.BalanceOf(alice))
	assert.Equal(t, big.NewInt(0), ledger.BalanceOf(registry))
}

func TestLedgerForwardUnknownAccount(t *testing.T) {
	alice := testIdentity(t, "0x1111111111111111111111111111111111111111")
	registry := testIdentity(t, "0x2222222222222222222222222222222222222222")

	ledger := NewLedger()
	err := ledger.Forward(context.Background(), alice, registry, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestLedgerInvalidAmounts(t *testing.T) {
	alice := testIdentity(t, "0x1111111111111111111111111111111111111111")
	registry := testIdentity(t, "0x2222222222222222222222222222222222222222")

	ledger := NewLedger()
	assert.ErrorIs(t, ledger.Deposit(alice, nil), ErrInvalidAmount)
	assert.ErrorIs(t, ledger.Deposit(alice, big.NewInt(-1)), ErrInvalidAmount)
	assert.ErrorIs(t, ledger.Forward(context.Background(), alice, registry, nil), ErrInvalidAmount)
}

func TestLedgerBalanceSnapshotIsolated(t *testing.T) {
	alice := testIdentity(t, "0x1111111111111111111111111111111111111111")

	ledger := NewLedger()
	require.NoError(t, ledger.Deposit(alice, big.NewInt(500)))

	bal := ledger.BalanceOf(alice)
	bal.SetInt64(0)

	assert.Equal(t, big.NewInt(500), ledger.BalanceOf(alice))
}
