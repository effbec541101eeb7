package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/athenaeum/moirai/internal/model"
	"github.com/athenaeum/moirai/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidSignInToken  = "INVALID_SIGN_IN_TOKEN"
	CodeEmailExists         = "EMAIL_EXISTS"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeProfileNotFound     = "PROFILE_NOT_FOUND"
	CodeUnknownAxiom        = "UNKNOWN_AXIOM"
	CodeInvalidDifficulty   = "INVALID_DIFFICULTY"
	CodeGenerationFailed    = "GENERATION_FAILED"
	CodeMalformedAIResponse = "MALFORMED_AI_RESPONSE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrProfileNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeProfileNotFound, "Profile not found"}}
	case errors.Is(err, model.ErrUnknownAxiom):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownAxiom, "secretTag must be Fate, Choice or Chance"}}
	case errors.Is(err, model.ErrInvalidDifficulty):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDifficulty, "difficultyTier must be at least 1"}}
	case errors.Is(err, model.ErrGenerationFailed):
		// The upstream model failed; the request itself was valid.
		// The wrapped message names the upstream cause.
		return &httpError{http.StatusBadGateway, APIError{CodeGenerationFailed, err.Error()}}
	case errors.Is(err, model.ErrMalformedResponse):
		return &httpError{http.StatusBadGateway, APIError{CodeMalformedAIResponse, "Fragment generation returned an unusable response"}}

	// Map auth errors; messages are derived from the provider-style codes
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, auth.HumanizeCode(auth.Code(err))}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, auth.HumanizeCode(auth.Code(err))}}
	case errors.Is(err, auth.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidSignInToken, auth.HumanizeCode(auth.Code(err))}}
	case errors.Is(err, auth.ErrEmailExists):
		return &httpError{http.StatusConflict, APIError{CodeEmailExists, auth.HumanizeCode(auth.Code(err))}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
