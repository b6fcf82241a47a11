package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kvgportal/internal/model"
	"kvgportal/internal/service"
)

type MockApplicantService struct {
	mock.Mock
}

func (m *MockApplicantService) Create(ctx context.Context, in service.ApplicantInput) (*model.Applicant, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Applicant), args.Error(1)
}

func (m *MockApplicantService) Get(ctx context.Context, id string) (*model.Applicant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Applicant), args.Error(1)
}

func (m *MockApplicantService) Update(ctx context.Context, id string, in service.ApplicantInput) (*model.Applicant, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Applicant), args.Error(1)
}

func (m *MockApplicantService) List(ctx context.Context, q service.ApplicantListQuery) (*service.ApplicantListResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApplicantListResult), args.Error(1)
}

func (m *MockApplicantService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
