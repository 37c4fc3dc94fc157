package escrow

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/landreg/title-registry-backend/interfaces"
)

// ErrWrongSpender is returned when a forward is requested from an identity
// the forwarder does not hold the key for.
var ErrWrongSpender = errors.New("forwarder does not control the source account")

// nativeTransferGas is the intrinsic gas of a plain value transfer.
const nativeTransferGas = 21000

// EthForwarder implements FundsForwarder by submitting a signed native-value
// transaction through an Ethereum JSON-RPC endpoint and waiting for it to be
// mined. The call is all-or-nothing from the engine's point of view: an error
// means no value moved.
type EthForwarder struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	chainID *big.Int
	spender interfaces.Identity
}

// NewEthForwarder creates a forwarder spending from the account controlled by
// key. The chain ID is fetched from the endpoint once at construction.
func NewEthForwarder(ctx context.Context, client *ethclient.Client, key *ecdsa.PrivateKey) (*EthForwarder, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain ID: %w", err)
	}

	return &EthForwarder{
		client:  client,
		key:     key,
		chainID: chainID,
		spender: interfaces.Identity(crypto.PubkeyToAddress(key.PublicKey)),
	}, nil
}

// Spender returns the identity the forwarder spends from.
func (f *EthForwarder) Spender() interfaces.Identity {
	return f.spender
}

// Forward sends amount wei from the forwarder's account to the recipient and
// blocks until the transaction is mined. The engine passes the caller
// identity as from; it must match the account the forwarder holds the key
// for.
func (f *EthForwarder) Forward(ctx context.Context, from, to interfaces.Identity, amount *big.Int) error {
	if !from.Equal(f.spender) {
		return fmt.Errorf("%w: have %s, asked to spend from %s", ErrWrongSpender, f.spender, from)
	}

	fromAddr := common.Address(from)
	nonce, err := f.client.PendingNonceAt(ctx, fromAddr)
	if err != nil {
		return fmt.Errorf("failed to fetch account nonce: %w", err)
	}

	gasPrice, err := f.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch gas price: %w", err)
	}

	toAddr := common.Address(to)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &toAddr,
		Value:    new(big.Int).Set(amount),
		Gas:      nativeTransferGas,
		GasPrice: gasPrice,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(f.chainID), f.key)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := f.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, f.client, signedTx)
	if err != nil {
		return fmt.Errorf("failed waiting for transaction %s: %w", signedTx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", signedTx.Hash())
	}

	return nil
}
