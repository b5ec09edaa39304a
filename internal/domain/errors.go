package domain

import (
	"fmt"
	"strings"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code          string    `json:"code"`
	Message       string    `json:"message"`
	Details       string    `json:"details,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeNormalization  = "NORMALIZATION_ERROR"
	ErrCodeUnknownEnum    = "UNKNOWN_ENUM_VALUE"
	ErrCodeDatabase       = "DATABASE_ERROR"
	ErrCodeCollaborator   = "COLLABORATOR_ERROR"
	ErrCodeAuthentication = "AUTHENTICATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
)

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, correlationID string) *APIError {
	return &APIError{
		Code:          code,
		Message:       message,
		Details:       details,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NormalizationError is returned when free-text clinical input cannot be
// mapped to a canonical value. Normalization fails closed: an unrecognized
// answer is never silently defaulted.
type NormalizationError struct {
	Field    string   `json:"field"`
	Value    string   `json:"value"`
	Accepted []string `json:"accepted"`
}

// Error implements the error interface
func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize field '%s' value %q (accepted: %s)",
		e.Field, e.Value, strings.Join(e.Accepted, ", "))
}

// NewNormalizationError creates a new NormalizationError
func NewNormalizationError(field, value string, accepted []string) *NormalizationError {
	return &NormalizationError{
		Field:    field,
		Value:    value,
		Accepted: accepted,
	}
}

// UnknownEnumError is returned when a categorical feature value is not in
// the model's label vocabulary.
type UnknownEnumError struct {
	Feature string   `json:"feature"`
	Value   string   `json:"value"`
	Valid   []string `json:"valid"`
}

// Error implements the error interface
func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("unknown value %q for feature '%s' (valid: %s)",
		e.Value, e.Feature, strings.Join(e.Valid, ", "))
}

// NewUnknownEnumError creates a new UnknownEnumError
func NewUnknownEnumError(feature, value string, valid []string) *UnknownEnumError {
	return &UnknownEnumError{
		Feature: feature,
		Value:   value,
		Valid:   valid,
	}
}

// CollaboratorError wraps failures from external collaborators such as the
// statistical classifier service or the SMS gateway.
type CollaboratorError struct {
	Service string `json:"service"`
	Op      string `json:"op"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator %s: %s: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewCollaboratorError creates a new CollaboratorError
func NewCollaboratorError(service, op string, err error) *CollaboratorError {
	return &CollaboratorError{Service: service, Op: op, Err: err}
}
