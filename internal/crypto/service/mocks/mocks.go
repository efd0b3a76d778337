// Package mocks provides testify mocks of the crypto service interfaces.
package mocks

import (
	"testing"

	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
)

// MockCipher is a mock implementation of service.Cipher.
type MockCipher struct {
	mock.Mock
}

// NewMockCipher creates a MockCipher whose expectations are asserted on cleanup.
func NewMockCipher(t *testing.T) *MockCipher {
	m := &MockCipher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Seal mocks the Seal method of Cipher.
func (m *MockCipher) Seal(key, plaintext, aad []byte) (*cryptoDomain.Envelope, error) {
	args := m.Called(key, plaintext, aad)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.Envelope), args.Error(1)
}

// Open mocks the Open method of Cipher.
func (m *MockCipher) Open(key []byte, envelope *cryptoDomain.Envelope, aad []byte) ([]byte, error) {
	args := m.Called(key, envelope, aad)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockPasswordGenerator is a mock implementation of service.PasswordGenerator.
type MockPasswordGenerator struct {
	mock.Mock
}

// NewMockPasswordGenerator creates a MockPasswordGenerator whose expectations are
// asserted on cleanup.
func NewMockPasswordGenerator(t *testing.T) *MockPasswordGenerator {
	m := &MockPasswordGenerator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Generate mocks the Generate method of PasswordGenerator.
func (m *MockPasswordGenerator) Generate(opts cryptoDomain.PasswordOptions) (string, error) {
	args := m.Called(opts)
	return args.String(0), args.Error(1)
}
