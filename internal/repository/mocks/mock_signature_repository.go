package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kvgportal/internal/model"
)

type MockSignatureRepository struct {
	mock.Mock
}

func (m *MockSignatureRepository) Create(ctx context.Context, r *model.SignatureRequest) (*model.SignatureRequest, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureRequest), args.Error(1)
}

func (m *MockSignatureRepository) FindByProviderID(ctx context.Context, providerID string) (*model.SignatureRequest, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureRequest), args.Error(1)
}

func (m *MockSignatureRepository) LatestByApplicant(ctx context.Context, applicantID string) (*model.SignatureRequest, error) {
	args := m.Called(ctx, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureRequest), args.Error(1)
}

func (m *MockSignatureRepository) UpdateStatus(ctx context.Context, id string, status model.SignatureStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
