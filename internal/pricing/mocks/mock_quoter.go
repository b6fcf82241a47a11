package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kvgportal/internal/pricing"
)

type MockQuoter struct {
	mock.Mock
}

func (m *MockQuoter) Quote(ctx context.Context, req pricing.QuoteRequest) ([]pricing.Premium, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pricing.Premium), args.Error(1)
}
