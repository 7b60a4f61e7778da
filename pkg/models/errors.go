package models

import "errors"

// Common errors for identity and telemetry operations.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Telemetry errors
	ErrConnectionNotFound = errors.New("connection not found")
)
