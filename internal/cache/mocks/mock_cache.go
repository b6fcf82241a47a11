package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"kvgportal/internal/pricing"
)

// MockCache stands in for *cache.Cache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetQuote(ctx context.Context, req pricing.QuoteRequest) ([]pricing.Premium, time.Time, bool, error) {
	args := m.Called(ctx, req)
	var premiums []pricing.Premium
	if v := args.Get(0); v != nil {
		premiums = v.([]pricing.Premium)
	}
	return premiums, args.Get(1).(time.Time), args.Bool(2), args.Error(3)
}

func (m *MockCache) SetQuote(ctx context.Context, req pricing.QuoteRequest, premiums []pricing.Premium, ttl time.Duration) error {
	args := m.Called(ctx, req, premiums, ttl)
	return args.Error(0)
}

func (m *MockCache) TouchSession(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, sessionID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) EndSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
