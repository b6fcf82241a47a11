package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kvgportal/internal/model"
	repoMocks "kvgportal/internal/repository/mocks"
	"kvgportal/internal/signature"
	sigMocks "kvgportal/internal/signature/mocks"
	"kvgportal/internal/storage"
	storeMocks "kvgportal/internal/storage/mocks"
)

const webhookSecret = "whsec-test"

type signatureFixture struct {
	applicants *repoMocks.MockApplicantRepository
	requests   *repoMocks.MockSignatureRepository
	docs       *repoMocks.MockDocumentRepository
	store      *storeMocks.MockStorage
	provider   *sigMocks.MockProvider
	svc        SignatureService
}

func newSignatureFixture() *signatureFixture {
	f := &signatureFixture{
		applicants: new(repoMocks.MockApplicantRepository),
		requests:   new(repoMocks.MockSignatureRepository),
		docs:       new(repoMocks.MockDocumentRepository),
		store:      new(storeMocks.MockStorage),
		provider:   new(sigMocks.MockProvider),
	}
	docSvc := NewDocumentService(f.store, f.docs, f.applicants, nil, quietLogger())
	f.svc = NewSignatureService(f.applicants, f.requests, docSvc, f.store, f.provider,
		webhookSecret, "https://portal.example.ch/api/signature/callback", quietLogger())
	return f
}

func (f *signatureFixture) assertExpectations(t *testing.T) {
	f.applicants.AssertExpectations(t)
	f.requests.AssertExpectations(t)
	f.docs.AssertExpectations(t)
	f.store.AssertExpectations(t)
	f.provider.AssertExpectations(t)
}

func TestSignatureService_Start(t *testing.T) {
	ctx := context.Background()
	applicant := &model.Applicant{
		ID: "app-1", FirstName: "Anna", LastName: "Muster", Email: "anna@example.ch",
		Status: model.StatusDocumentsUploaded,
	}
	combined := &model.Document{ID: "doc-c", Filename: "c.pdf", StoragePath: "applicants/app-1/c.pdf", Kind: model.KindCombined}

	f := newSignatureFixture()
	f.applicants.On("FindByID", ctx, "app-1").Return(applicant, nil)
	f.docs.On("FindByKind", ctx, "app-1", model.KindCombined).Return(combined, nil)
	f.store.On("Get", ctx, "applicants/app-1/c.pdf").Return(io.NopCloser(strings.NewReader("%PDF-1.7")), storage.ObjectInfo{}, nil)
	f.provider.On("CreateRequest", ctx, mock.MatchedBy(func(r signature.SignRequest) bool {
		return r.Reference == "app-1" &&
			string(r.Document) == "%PDF-1.7" &&
			r.Signer.Email == "anna@example.ch" &&
			strings.HasSuffix(r.CallbackURL, "/signature/callback")
	})).Return(&signature.SignResponse{RequestID: "prov-9", SigningURL: "https://sign.example/9", Status: "pending"}, nil)
	f.requests.On("Create", ctx, mock.MatchedBy(func(r *model.SignatureRequest) bool {
		return r.ProviderID == "prov-9" && r.DocumentID == "doc-c" && r.Status == model.SignaturePending
	})).Return(&model.SignatureRequest{ID: "sr-1", ProviderID: "prov-9", SigningURL: "https://sign.example/9", Status: model.SignaturePending}, nil)
	f.applicants.On("TransitionStatus", ctx, "app-1", model.StatusDocumentsUploaded, model.StatusSignaturePending).Return(nil)

	req, err := f.svc.Start(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "https://sign.example/9", req.SigningURL)
	f.assertExpectations(t)
}

func TestSignatureService_Start_ReturnsOpenRequest(t *testing.T) {
	ctx := context.Background()
	f := newSignatureFixture()
	open := &model.SignatureRequest{ID: "sr-1", Status: model.SignaturePending}

	f.applicants.On("FindByID", ctx, "app-1").Return(&model.Applicant{ID: "app-1", Status: model.StatusSignaturePending}, nil)
	f.requests.On("LatestByApplicant", ctx, "app-1").Return(open, nil)

	req, err := f.svc.Start(ctx, "app-1")
	require.NoError(t, err)
	assert.Same(t, open, req)
	f.provider.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything)
}

func TestSignatureService_Start_AfterDecline(t *testing.T) {
	ctx := context.Background()
	f := newSignatureFixture()
	combined := &model.Document{ID: "doc-c", Filename: "c.pdf", StoragePath: "applicants/app-1/c.pdf", Kind: model.KindCombined}

	f.applicants.On("FindByID", ctx, "app-1").Return(&model.Applicant{ID: "app-1", Email: "anna@example.ch", Status: model.StatusDeclined}, nil)
	f.docs.On("FindByKind", ctx, "app-1", model.KindCombined).Return(combined, nil)
	f.store.On("Get", ctx, "applicants/app-1/c.pdf").Return(io.NopCloser(strings.NewReader("%PDF-1.7")), storage.ObjectInfo{}, nil)
	f.provider.On("CreateRequest", ctx, mock.Anything).Return(&signature.SignResponse{RequestID: "prov-10", SigningURL: "https://sign.example/10"}, nil)
	f.requests.On("Create", ctx, mock.MatchedBy(func(r *model.SignatureRequest) bool {
		return r.ProviderID == "prov-10"
	})).Return(&model.SignatureRequest{ID: "sr-2", ProviderID: "prov-10", Status: model.SignaturePending}, nil)
	f.applicants.On("TransitionStatus", ctx, "app-1", model.StatusDeclined, model.StatusSignaturePending).Return(nil)

	req, err := f.svc.Start(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "prov-10", req.ProviderID)
	f.assertExpectations(t)
}

func TestSignatureService_Start_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("draft applicant", func(t *testing.T) {
		f := newSignatureFixture()
		f.applicants.On("FindByID", ctx, "app-1").Return(&model.Applicant{ID: "app-1", Status: model.StatusDraft}, nil)
		_, err := f.svc.Start(ctx, "app-1")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("signed applicant", func(t *testing.T) {
		f := newSignatureFixture()
		f.applicants.On("FindByID", ctx, "app-1").Return(&model.Applicant{ID: "app-1", Status: model.StatusSigned}, nil)
		_, err := f.svc.Start(ctx, "app-1")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		f.provider.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything)
	})

	t.Run("unknown applicant", func(t *testing.T) {
		f := newSignatureFixture()
		f.applicants.On("FindByID", ctx, "app-1").Return(nil, sql.ErrNoRows)
		_, err := f.svc.Start(ctx, "app-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("identity pages missing", func(t *testing.T) {
		f := newSignatureFixture()
		f.applicants.On("FindByID", ctx, "app-1").Return(&model.Applicant{ID: "app-1", Status: model.StatusDocumentsUploaded}, nil)
		f.docs.On("FindByKind", ctx, "app-1", model.KindCombined).Return(nil, sql.ErrNoRows)
		f.docs.On("FindByKind", ctx, "app-1", model.KindIDFront).Return(nil, sql.ErrNoRows)
		_, err := f.svc.Start(ctx, "app-1")
		assert.ErrorIs(t, err, ErrDocumentsMissing)
	})

	t.Run("provider failure leaves status untouched", func(t *testing.T) {
		f := newSignatureFixture()
		f.applicants.On("FindByID", ctx, "app-1").Return(&model.Applicant{ID: "app-1", Status: model.StatusDeclined}, nil)
		f.docs.On("FindByKind", ctx, "app-1", model.KindCombined).Return(&model.Document{ID: "c", StoragePath: "k"}, nil)
		f.store.On("Get", ctx, "k").Return(io.NopCloser(strings.NewReader("%PDF")), storage.ObjectInfo{}, nil)
		f.provider.On("CreateRequest", ctx, mock.Anything).Return(nil, signature.ErrUpstream)

		_, err := f.svc.Start(ctx, "app-1")
		assert.ErrorIs(t, err, signature.ErrUpstream)
		f.applicants.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSignatureService_HandleCallback(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		body       string
		header     func(body string) string
		setupMocks func(f *signatureFixture)
		wantErr    error
	}{
		{
			name: "signed moves applicant to signed",
			body: `{"request_id":"prov-9","status":"signed"}`,
			setupMocks: func(f *signatureFixture) {
				f.requests.On("FindByProviderID", ctx, "prov-9").Return(&model.SignatureRequest{ID: "sr-1", ApplicantID: "app-1", ProviderID: "prov-9", Status: model.SignaturePending}, nil)
				f.requests.On("UpdateStatus", ctx, "sr-1", model.SignatureSigned).Return(nil)
				f.applicants.On("TransitionStatus", ctx, "app-1", model.StatusSignaturePending, model.StatusSigned).Return(nil)
			},
		},
		{
			name: "expired moves applicant to declined",
			body: `{"request_id":"prov-9","status":"EXPIRED"}`,
			setupMocks: func(f *signatureFixture) {
				f.requests.On("FindByProviderID", ctx, "prov-9").Return(&model.SignatureRequest{ID: "sr-1", ApplicantID: "app-1", Status: model.SignaturePending}, nil)
				f.requests.On("UpdateStatus", ctx, "sr-1", model.SignatureExpired).Return(nil)
				f.applicants.On("TransitionStatus", ctx, "app-1", model.StatusSignaturePending, model.StatusDeclined).Return(nil)
			},
		},
		{
			name: "duplicate delivery is a no-op",
			body: `{"request_id":"prov-9","status":"signed"}`,
			setupMocks: func(f *signatureFixture) {
				f.requests.On("FindByProviderID", ctx, "prov-9").Return(&model.SignatureRequest{ID: "sr-1", Status: model.SignatureSigned}, nil)
			},
		},
		{
			name: "final request cannot change",
			body: `{"request_id":"prov-9","status":"declined"}`,
			setupMocks: func(f *signatureFixture) {
				f.requests.On("FindByProviderID", ctx, "prov-9").Return(&model.SignatureRequest{ID: "sr-1", Status: model.SignatureSigned}, nil)
			},
			wantErr: ErrInvalidTransition,
		},
		{
			name: "applicant no longer pending",
			body: `{"request_id":"prov-9","status":"signed"}`,
			setupMocks: func(f *signatureFixture) {
				f.requests.On("FindByProviderID", ctx, "prov-9").Return(&model.SignatureRequest{ID: "sr-1", ApplicantID: "app-1", Status: model.SignaturePending}, nil)
				f.requests.On("UpdateStatus", ctx, "sr-1", model.SignatureSigned).Return(nil)
				f.applicants.On("TransitionStatus", ctx, "app-1", model.StatusSignaturePending, model.StatusSigned).Return(sql.ErrNoRows)
			},
		},
		{
			name:       "bad signature",
			body:       `{"request_id":"prov-9","status":"signed"}`,
			header:     func(string) string { return signature.Sign("other-secret", []byte(`{}`)) },
			setupMocks: func(*signatureFixture) {},
			wantErr:    ErrInvalidSignature,
		},
		{
			name:       "unknown status",
			body:       `{"request_id":"prov-9","status":"viewed"}`,
			setupMocks: func(*signatureFixture) {},
			wantErr:    ErrInvalidInput,
		},
		{
			name:       "malformed body",
			body:       `not json`,
			setupMocks: func(*signatureFixture) {},
			wantErr:    ErrInvalidInput,
		},
		{
			name: "unknown request",
			body: `{"request_id":"nope","status":"signed"}`,
			setupMocks: func(f *signatureFixture) {
				f.requests.On("FindByProviderID", ctx, "nope").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSignatureFixture()
			tt.setupMocks(f)

			header := signature.Sign(webhookSecret, []byte(tt.body))
			if tt.header != nil {
				header = tt.header(tt.body)
			}

			err := f.svc.HandleCallback(ctx, []byte(tt.body), header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			f.assertExpectations(t)
		})
	}
}

func TestSignatureService_Status(t *testing.T) {
	ctx := context.Background()
	f := newSignatureFixture()
	f.requests.On("LatestByApplicant", ctx, "app-1").Return(&model.SignatureRequest{ID: "sr-1"}, nil)
	f.requests.On("LatestByApplicant", ctx, "app-2").Return(nil, sql.ErrNoRows)

	req, err := f.svc.Status(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "sr-1", req.ID)

	_, err = f.svc.Status(ctx, "app-2")
	assert.ErrorIs(t, err, ErrNotFound)
}
