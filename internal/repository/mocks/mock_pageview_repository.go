package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"kvgportal/internal/model"
)

type MockPageViewRepository struct {
	mock.Mock
}

func (m *MockPageViewRepository) Insert(ctx context.Context, pv *model.PageView) error {
	args := m.Called(ctx, pv)
	return args.Error(0)
}

func (m *MockPageViewRepository) Summary(ctx context.Context, from, to time.Time, topPaths int) (*model.AnalyticsSummary, error) {
	args := m.Called(ctx, from, to, topPaths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalyticsSummary), args.Error(1)
}
