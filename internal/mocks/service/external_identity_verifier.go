// Package service provides testify mocks and recording fakes for the domain service interfaces.
package service

import (
	"context"

	"school/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockExternalIdentityVerifier is a testify mock of service.ExternalIdentityVerifier.
type MockExternalIdentityVerifier struct {
	mock.Mock

	// ProviderName is returned by Provider; empty means "mock".
	ProviderName string
}

var _ service.ExternalIdentityVerifier = (*MockExternalIdentityVerifier)(nil)

// NewMockExternalIdentityVerifier creates the mock and asserts its expectations when the test ends.
func NewMockExternalIdentityVerifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockExternalIdentityVerifier {
	m := &MockExternalIdentityVerifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// VerifyExternalToken provides a mock function with given fields: ctx, idToken
func (m *MockExternalIdentityVerifier) VerifyExternalToken(ctx context.Context, idToken string) (*service.ExternalIdentity, error) {
	args := m.Called(ctx, idToken)

	var identity *service.ExternalIdentity
	if v := args.Get(0); v != nil {
		identity = v.(*service.ExternalIdentity)
	}

	return identity, args.Error(1)
}

// Provider returns ProviderName, or "mock" when it is empty.
func (m *MockExternalIdentityVerifier) Provider() string {
	if m.ProviderName == "" {
		return "mock"
	}

	return m.ProviderName
}
