package errors

import (
	"errors"
	"fmt"
)

// Error types for the maintenance tools
type ErrorType string

const (
	ErrorTypeConnection       ErrorType = "CONNECTION_ERROR"
	ErrorTypeStoreUnavailable ErrorType = "STORE_UNAVAILABLE"
	ErrorTypePartialPurge     ErrorType = "PARTIAL_PURGE"
	ErrorTypeAssetFormat      ErrorType = "ASSET_FORMAT_ERROR"
	ErrorTypeWrite            ErrorType = "WRITE_ERROR"
	ErrorTypeRefused          ErrorType = "REFUSED"
	ErrorTypeValidation       ErrorType = "VALIDATION_ERROR"
	ErrorTypeConfiguration    ErrorType = "CONFIGURATION_ERROR"
)

// Process exit codes
const (
	ExitSuccess = 0
	ExitRefused = 1
	ExitFailure = 2
)

// Common errors
var (
	ErrProjectNotResolved = errors.New("project identity could not be resolved")
	ErrUnknownBackend     = errors.New("unknown store backend")
	ErrInvalidBatchSize   = errors.New("batch size must be a positive integer")
	ErrNeverEmpty         = errors.New("store never reported the collection as empty")
	ErrNotArray           = errors.New("top-level JSON is not an array")
	ErrRefused            = errors.New("refusing to delete without --yes")
)

// AppError represents a custom application error with context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	ExitCode  int                    `json:"-"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, exitCode int) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		ExitCode: exitCode,
		Details:  make(map[string]interface{}),
	}
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common error constructors

// NewConnectionError is returned when no session with the store can be established.
func NewConnectionError(message string) *AppError {
	return NewAppError(ErrorTypeConnection, message, ExitFailure)
}

// NewStoreUnavailableError is returned when the store cannot be read during enumeration.
func NewStoreUnavailableError(message string) *AppError {
	return NewAppError(ErrorTypeStoreUnavailable, message, ExitFailure)
}

// NewAssetFormatError names an asset file that exists but cannot be used.
func NewAssetFormatError(path string) *AppError {
	return NewAppError(ErrorTypeAssetFormat, fmt.Sprintf("failed to parse %s", path), ExitFailure).
		WithDetail("path", path)
}

// NewWriteError reports a failed merge-write for one record.
func NewWriteError(collection, documentID string) *AppError {
	return NewAppError(ErrorTypeWrite, fmt.Sprintf("failed to write %s/%s", collection, documentID), ExitFailure).
		WithDetail("collection", collection).
		WithDetail("document_id", documentID)
}

// NewRefusedError is returned by the safety gate when confirmation is missing.
func NewRefusedError() *AppError {
	return NewAppError(ErrorTypeRefused, "refusing to delete without --yes; re-run with --dry-run to inspect", ExitRefused).
		WithCause(ErrRefused)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, ExitFailure)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, message, ExitFailure)
}

// PartialPurgeError reports a collection purge that stopped before the
// collection was empty. Deleted is the number of documents already removed.
type PartialPurgeError struct {
	Collection string
	Deleted    int
	Batches    int
	Cause      error
}

func (e *PartialPurgeError) Error() string {
	return fmt.Sprintf("partial purge of %q: %d documents removed before failure: %v", e.Collection, e.Deleted, e.Cause)
}

func (e *PartialPurgeError) Unwrap() error {
	return e.Cause
}

// NewPartialPurgeError creates a PartialPurgeError
func NewPartialPurgeError(collection string, deleted, batches int, cause error) *PartialPurgeError {
	return &PartialPurgeError{
		Collection: collection,
		Deleted:    deleted,
		Batches:    batches,
		Cause:      cause,
	}
}

// Helper functions for common error scenarios

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsConnection checks if an error is a connection error
func IsConnection(err error) bool {
	return isType(err, ErrorTypeConnection) || errors.Is(err, ErrProjectNotResolved)
}

// IsStoreUnavailable checks if an error is a store-unavailable error
func IsStoreUnavailable(err error) bool {
	return isType(err, ErrorTypeStoreUnavailable)
}

// IsAssetFormat checks if an error is an asset format error
func IsAssetFormat(err error) bool {
	return isType(err, ErrorTypeAssetFormat) || errors.Is(err, ErrNotArray)
}

// IsWrite checks if an error is a write error
func IsWrite(err error) bool {
	return isType(err, ErrorTypeWrite)
}

// IsRefused checks if an error is a safety gate refusal
func IsRefused(err error) bool {
	return isType(err, ErrorTypeRefused) || errors.Is(err, ErrRefused)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// AsPartialPurge extracts a PartialPurgeError from the chain.
func AsPartialPurge(err error) (*PartialPurgeError, bool) {
	var ppe *PartialPurgeError
	if errors.As(err, &ppe) {
		return ppe, true
	}
	return nil, false
}

// ExitCodeFor maps an error to the process exit status.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.ExitCode != 0 {
		return appErr.ExitCode
	}
	return ExitFailure
}
