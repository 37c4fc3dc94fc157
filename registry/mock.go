package registry

import (
	"context"
	"math/big"

	"github.com/stretchr/testify/mock"

	"github.com/landreg/title-registry-backend/interfaces"
)

// MockVerifier mocks the SignatureVerifier interface.
type MockVerifier struct {
	mock.Mock
}

// RecoverSigner mocks the RecoverSigner method.
func (m *MockVerifier) RecoverSigner(digest [32]byte, signature []byte) (interfaces.Identity, error) {
	args := m.Called(digest, signature)
	return args.Get(0).(interfaces.Identity), args.Error(1)
}

// MockForwarder mocks the FundsForwarder interface.
type MockForwarder struct {
	mock.Mock
}

// Forward mocks the Forward method.
func (m *MockForwarder) Forward(ctx context.Context, from, to interfaces.Identity, amount *big.Int) error {
	args := m.Called(from, to, amount)
	return args.Error(0)
}
