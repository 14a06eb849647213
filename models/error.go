package models

import "errors"

// ErrorMessageResponse is the body written for every failed request
type ErrorMessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageResponse is the body written for requests that only need to
// acknowledge success
type MessageResponse struct {
	Message string `json:"message"`
}

var (
	// ErrNotFound is returned when a user, incident, hospital, bed or patient is absent
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned for duplicate usernames, bed requests and the like
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidState is returned for illegal state transitions and invalid enum values
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation is returned when a required field is missing or malformed
	ErrValidation = errors.New("validation error")
)
