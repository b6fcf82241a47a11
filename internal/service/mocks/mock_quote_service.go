package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kvgportal/internal/service"
)

type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) Compare(ctx context.Context, in service.QuoteInput) (*service.Comparison, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Comparison), args.Error(1)
}
