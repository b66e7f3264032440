package model

import "errors"

// Common errors used across the application
var (
	// Roster errors
	ErrCharacterNotFound = errors.New("character not found")
	ErrNameTaken         = errors.New("character name already taken")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// Authorization errors
	ErrPermission       = errors.New("permission denied")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Authentication errors
	ErrBadToken            = errors.New("invalid password")
	ErrMissingCredentials  = errors.New("either a name or GM password is required")
	ErrConflictCredentials = errors.New("only one of name or GM password may be provided")

	// Storage errors
	ErrConflict = errors.New("transaction conflict")
)
