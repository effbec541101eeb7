package auth

import (
	"errors"
	"strings"
)

// Provider-style error codes for user-facing rendering
const (
	CodeInvalidCredentials = "auth/invalid-credentials"
	CodeInvalidSession     = "auth/invalid-session"
	CodeInvalidToken       = "auth/invalid-sign-in-token"
	CodeEmailExists        = "auth/email-already-in-use"
	CodeUnknown            = "auth/unknown-error"
)

// Code maps an auth error to its provider-style code
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrInvalidSession):
		return CodeInvalidSession
	case errors.Is(err, ErrInvalidToken):
		return CodeInvalidToken
	case errors.Is(err, ErrEmailExists):
		return CodeEmailExists
	default:
		return CodeUnknown
	}
}

// HumanizeCode turns a provider-style error code into a readable message:
// the "auth/" prefix is stripped and hyphens become spaces
func HumanizeCode(code string) string {
	msg := strings.TrimPrefix(code, "auth/")
	return strings.ReplaceAll(msg, "-", " ")
}
