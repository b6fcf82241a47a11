package model

import "time"

// DocumentKind identifies what an uploaded file represents.
type DocumentKind string

const (
	KindIDFront       DocumentKind = "id_front"
	KindIDBack        DocumentKind = "id_back"
	KindInsuranceCard DocumentKind = "insurance_card"
	KindOther         DocumentKind = "other"
	// KindCombined is produced by the server from the front and back of the ID.
	KindCombined DocumentKind = "combined"
)

// Uploadable reports whether clients may submit documents of this kind.
func (k DocumentKind) Uploadable() bool {
	switch k {
	case KindIDFront, KindIDBack, KindInsuranceCard, KindOther:
		return true
	}
	return false
}

// Document represents a stored file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID               string       `json:"id"`
	ApplicantID      string       `json:"applicant_id"`
	Kind             DocumentKind `json:"kind"`
	Filename         string       `json:"filename"`
	OriginalFilename string       `json:"original_filename"`
	StoragePath      string       `json:"storage_path"`
	Size             int64        `json:"size"`
	ContentType      string       `json:"content_type"`
	CreatedAt        time.Time    `json:"created_at"`
}
