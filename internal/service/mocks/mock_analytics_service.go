package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"kvgportal/internal/model"
	"kvgportal/internal/service"
)

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Track(ctx context.Context, ev service.Event) (*model.PageView, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PageView), args.Error(1)
}

func (m *MockAnalyticsService) Summary(ctx context.Context, from, to time.Time) (*model.AnalyticsSummary, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalyticsSummary), args.Error(1)
}
