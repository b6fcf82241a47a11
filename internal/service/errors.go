package service

import "errors"

// Sentinel errors returned by services. Handlers translate them with errors.Is.
var (
	ErrIDRequired         = errors.New("id is required")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrNotEditable        = errors.New("applicant can no longer be changed")
	ErrDocumentsMissing   = errors.New("front and back of the identity document are required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSignature   = errors.New("invalid callback signature")
)
