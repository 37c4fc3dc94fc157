package escrow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/landreg/title-registry-backend/interfaces"
)

var (
	// ErrInsufficientBalance is returned when an account cannot cover a
	// transfer.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned for nil or negative transfer amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Ledger is an in-memory wei ledger implementing FundsForwarder. Transfers
// are atomic under the ledger lock: either both balances move or neither
// does. Suitable for development and tests; production deployments use
// EthForwarder.
type Ledger struct {
	mu       sync.Mutex
	balances map[interfaces.Identity]*big.Int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[interfaces.Identity]*big.Int)}
}

// Deposit credits an account. Used to fund caller accounts in development.
func (l *Ledger) Deposit(account interfaces.Identity, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.credit(account, amount)
	return nil
}

// BalanceOf returns the account's balance. Accounts never seen have a zero
// balance.
func (l *Ledger) BalanceOf(account interfaces.Identity) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bal, ok := l.balances[account]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Forward atomically moves amount wei from one account to another. If the
// source cannot cover the amount no balance changes.
func (l *Ledger) Forward(ctx context.Context, from, to interfaces.Identity, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[from]
	if !ok || bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: account %s holds %s wei, needs %s", ErrInsufficientBalance, from, l.balanceLocked(from), amount)
	}

	bal.Sub(bal, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(account interfaces.Identity, amount *big.Int) {
	if bal, ok := l.balances[account]; ok {
		bal.Add(bal, amount)
		return
	}
	l.balances[account] = new(big.Int).Set(amount)
}

func (l *Ledger) balanceLocked(account interfaces.Identity) *big.Int {
	if bal, ok := l.balances[account]; ok {
		return bal
	}
	return new(big.Int)
}
