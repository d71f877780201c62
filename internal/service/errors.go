package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Store and domain errors are wrapped with %w so callers can still match them
// 3. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrInvalidCredentials indicates an unknown e-mail or a wrong password.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInactiveUser indicates the account exists but has been deactivated.
	// API layer should map this to HTTP 403 Forbidden.
	ErrInactiveUser = errors.New("user account is inactive")

	// ErrNothingToUpdate indicates a partial update that changes no field.
	// API layer should map this to HTTP 400 Bad Request.
	ErrNothingToUpdate = errors.New("no fields to update")
)
