package model

import "time"

// SignatureStatus mirrors the provider's request states.
type SignatureStatus string

const (
	SignaturePending  SignatureStatus = "pending"
	SignatureSigned   SignatureStatus = "signed"
	SignatureDeclined SignatureStatus = "declined"
	SignatureExpired  SignatureStatus = "expired"
)

// Final reports whether no further provider updates are expected.
func (s SignatureStatus) Final() bool {
	return s == SignatureSigned || s == SignatureDeclined || s == SignatureExpired
}

// SignatureRequest is one QES signing round for an applicant.
type SignatureRequest struct {
	ID          string          `json:"id"`
	ApplicantID string          `json:"applicant_id"`
	DocumentID  string          `json:"document_id"`
	ProviderID  string          `json:"provider_id"`
	SigningURL  string          `json:"signing_url"`
	Status      SignatureStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
