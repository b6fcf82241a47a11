package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kvgportal/internal/model"
)

type MockSignatureService struct {
	mock.Mock
}

func (m *MockSignatureService) Start(ctx context.Context, applicantID string) (*model.SignatureRequest, error) {
	args := m.Called(ctx, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureRequest), args.Error(1)
}

func (m *MockSignatureService) HandleCallback(ctx context.Context, body []byte, signatureHeader string) error {
	args := m.Called(ctx, body, signatureHeader)
	return args.Error(0)
}

func (m *MockSignatureService) Status(ctx context.Context, applicantID string) (*model.SignatureRequest, error) {
	args := m.Called(ctx, applicantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureRequest), args.Error(1)
}
