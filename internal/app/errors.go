package app

import "errors"

var (
	// ErrUnauthorized marks a remote authorization failure; the session
	// discards the credential when it sees this.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrFieldsRequired and ErrPasswordMismatch are form-level validation
	// failures reported inline without mutating state.
	ErrFieldsRequired   = errors.New("all fields are required")
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrNotAuthenticated rejects remote-only commands in local mode.
	ErrNotAuthenticated = errors.New("not authenticated")
)
