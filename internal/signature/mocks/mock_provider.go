package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kvgportal/internal/signature"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateRequest(ctx context.Context, req signature.SignRequest) (*signature.SignResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signature.SignResponse), args.Error(1)
}
