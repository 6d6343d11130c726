// Package errors defines error types used throughout tokengate.
//
// The GateError type captures the structural failures of the badge registry and
// the compatibility policy engine. Unsupported verdicts are never errors; only
// bad credentials, allocation failures, duplicate creation, unparsable mint
// state and backend failures are reported through this package.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for tokengate.
const (
	ErrCodeUnauthorized                   = "UNAUTHORIZED"
	ErrCodeAlreadyInitialized             = "ALREADY_INITIALIZED"
	ErrCodeAllocationFailed               = "ALLOCATION_FAILED"
	ErrCodeMalformedMintState             = "MALFORMED_MINT_STATE"
	ErrCodeNoExtraAccountsForTransferHook = "NO_EXTRA_ACCOUNTS_FOR_TRANSFER_HOOK"
	ErrCodeStorageUnavailable             = "STORAGE_UNAVAILABLE"
	ErrCodeMintNotFound                   = "MINT_NOT_FOUND"
	ErrCodeInvalidConfig                  = "INVALID_CONFIG"
	ErrCodeCustom                         = "CUSTOM"
)

// GateError represents an error in tokengate.
type GateError struct {
	// Code is a unique error code for this error type.
	Code string

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Details contains additional error context.
	Details map[string]any
}

// Error implements the error interface.
func (e *GateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *GateError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target.
func (e *GateError) Is(target error) bool {
	t, ok := target.(*GateError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause adds a cause to the error.
func (e *GateError) WithCause(cause error) *GateError {
	e.Cause = cause
	return e
}

// WithDetails adds details to the error.
func (e *GateError) WithDetails(details map[string]any) *GateError {
	e.Details = details
	return e
}

// NewError creates a new GateError.
func NewError(code, message string) *GateError {
	return &GateError{
		Code:    code,
		Message: message,
	}
}

// Sentinel errors, matched by code through errors.Is.
var (
	// ErrUnauthorized is returned when the badge authority credential check fails.
	ErrUnauthorized = NewError(ErrCodeUnauthorized, "token badge authority mismatch")

	// ErrAlreadyInitialized is returned when a badge already exists for a pair.
	ErrAlreadyInitialized = NewError(ErrCodeAlreadyInitialized, "token badge already initialized")

	// ErrAllocationFailed is returned when a badge record cannot be allocated.
	ErrAllocationFailed = NewError(ErrCodeAllocationFailed, "token badge allocation failed")

	// ErrMalformedMintState is returned when mint data cannot be parsed.
	ErrMalformedMintState = NewError(ErrCodeMalformedMintState, "malformed mint state")

	// ErrNoExtraAccountsForTransferHook is reserved for the transfer path of
	// badged mints that carry a transfer hook.
	ErrNoExtraAccountsForTransferHook = NewError(ErrCodeNoExtraAccountsForTransferHook, "no extra accounts provided for transfer hook")

	// ErrStorageUnavailable is returned when the storage backend fails.
	ErrStorageUnavailable = NewError(ErrCodeStorageUnavailable, "storage unavailable")

	// ErrMintNotFound is returned when a mint account does not exist.
	ErrMintNotFound = NewError(ErrCodeMintNotFound, "mint account not found")

	// ErrInvalidConfig is returned for unusable configuration.
	ErrInvalidConfig = NewError(ErrCodeInvalidConfig, "invalid configuration")
)

// Unauthorized creates an authority mismatch error for the given reason.
func Unauthorized(reason string) *GateError {
	return NewError(ErrCodeUnauthorized, fmt.Sprintf("token badge authority mismatch: %s", reason))
}

// AlreadyInitialized creates a duplicate badge error for address.
func AlreadyInitialized(address string) *GateError {
	return NewError(ErrCodeAlreadyInitialized, "token badge already initialized").
		WithDetails(map[string]any{"address": address})
}

// AllocationFailed creates an allocation error wrapping cause.
func AllocationFailed(reason string, cause error) *GateError {
	return NewError(ErrCodeAllocationFailed, fmt.Sprintf("token badge allocation failed: %s", reason)).WithCause(cause)
}

// MalformedMintState creates a mint parsing error wrapping cause.
func MalformedMintState(reason string, cause error) *GateError {
	return NewError(ErrCodeMalformedMintState, fmt.Sprintf("malformed mint state: %s", reason)).WithCause(cause)
}

// StorageUnavailable creates a backend failure error wrapping cause.
func StorageUnavailable(op string, cause error) *GateError {
	return NewError(ErrCodeStorageUnavailable, fmt.Sprintf("storage unavailable during %s", op)).WithCause(cause)
}

// MintNotFound creates a missing mint error for address.
func MintNotFound(address string) *GateError {
	return NewError(ErrCodeMintNotFound, fmt.Sprintf("mint account not found: %s", address))
}

// InvalidConfig creates a configuration error.
func InvalidConfig(reason string) *GateError {
	return NewError(ErrCodeInvalidConfig, fmt.Sprintf("invalid configuration: %s", reason))
}

// Custom creates a custom error with the given message.
func Custom(message string) *GateError {
	return NewError(ErrCodeCustom, message)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// CodeOf returns the code of the first GateError in err's chain, or "".
func CodeOf(err error) string {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}
