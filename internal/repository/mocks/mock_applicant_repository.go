package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kvgportal/internal/model"
	"kvgportal/internal/repository"
)

type MockApplicantRepository struct {
	mock.Mock
}

func (m *MockApplicantRepository) Create(ctx context.Context, a *model.Applicant) (*model.Applicant, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Applicant), args.Error(1)
}

func (m *MockApplicantRepository) FindByID(ctx context.Context, id string) (*model.Applicant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Applicant), args.Error(1)
}

func (m *MockApplicantRepository) Update(ctx context.Context, a *model.Applicant) (*model.Applicant, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Applicant), args.Error(1)
}

func (m *MockApplicantRepository) TransitionStatus(ctx context.Context, id string, from, to model.ApplicantStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockApplicantRepository) List(ctx context.Context, f repository.ApplicantFilter) (*repository.PageResult[model.Applicant], error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Applicant]), args.Error(1)
}

func (m *MockApplicantRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
