package model

import "time"

// ApplicantStatus tracks how far an applicant got through onboarding.
type ApplicantStatus string

const (
	StatusDraft             ApplicantStatus = "draft"
	StatusDocumentsUploaded ApplicantStatus = "documents_uploaded"
	StatusSignaturePending  ApplicantStatus = "signature_pending"
	StatusSigned            ApplicantStatus = "signed"
	StatusDeclined          ApplicantStatus = "declined"
)

var transitions = map[ApplicantStatus][]ApplicantStatus{
	StatusDraft:             {StatusDocumentsUploaded},
	StatusDocumentsUploaded: {StatusSignaturePending},
	// Expired requests also end in declined.
	StatusSignaturePending: {StatusSigned, StatusDeclined},
	// A declined applicant may start a fresh signing request.
	StatusDeclined: {StatusSignaturePending},
}

// Valid reports whether s is a known status.
func (s ApplicantStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusDocumentsUploaded, StatusSignaturePending, StatusSigned, StatusDeclined:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is allowed.
func (s ApplicantStatus) CanTransition(next ApplicantStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether personal data may still change.
func (s ApplicantStatus) Editable() bool {
	return s == StatusDraft || s == StatusDocumentsUploaded
}

// Applicant is the user record collected by the comparison and onboarding forms.
type Applicant struct {
	ID              string          `json:"id"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone,omitempty"`
	BirthDate       time.Time       `json:"birth_date"`
	PLZ             string          `json:"plz"`
	Canton          string          `json:"canton"`
	Franchise       int             `json:"franchise"`
	Accident        bool            `json:"accident"`
	Model           string          `json:"model"`
	CurrentInsurer  string          `json:"current_insurer,omitempty"`
	SelectedInsurer string          `json:"selected_insurer,omitempty"`
	SelectedPremium float64         `json:"selected_premium,omitempty"`
	Status          ApplicantStatus `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// FullName joins first and last name.
func (a *Applicant) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	if a.FirstName == "" {
		return a.LastName
	}
	return a.FirstName + " " + a.LastName
}
