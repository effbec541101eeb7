package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")

	// Fragment generation errors
	ErrUnknownAxiom      = errors.New("unknown axiom")
	ErrInvalidDifficulty = errors.New("difficulty tier must be at least 1")
	ErrGenerationFailed  = errors.New("generation failed")
	ErrMalformedResponse = errors.New("malformed AI response")

	// Round errors
	ErrRoundInProgress = errors.New("a fragment is already awaiting classification")
	ErrProfileNotReady = errors.New("profile has not been loaded")
)
