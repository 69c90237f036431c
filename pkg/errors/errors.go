// Package errors provides structured error handling for walletsession.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied or request rejected by the wallet
)

// SessionError is the structured error type for walletsession.
type SessionError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *SessionError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for SessionError.
func (e *SessionError) Is(target error) bool {
	var t *SessionError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrInvalidInput = &SessionError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	// ErrPermission is returned when a file the CLI owns cannot be accessed.
	ErrPermission = &SessionError{
		Code:     "PERMISSION_DENIED",
		Message:  "permission denied",
		ExitCode: ExitPermission,
	}

	// Keystore errors.
	ErrKeystoreNotFound = &SessionError{
		Code:     "KEYSTORE_NOT_FOUND",
		Message:  "embedded wallet keystore not found",
		ExitCode: ExitNotFound,
	}

	ErrKeystoreExists = &SessionError{
		Code:     "KEYSTORE_EXISTS",
		Message:  "embedded wallet keystore already exists",
		ExitCode: ExitInput,
	}

	ErrInvalidMnemonic = &SessionError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &SessionError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong password or corrupted file",
		ExitCode: ExitAuth,
	}

	// Wallet backend errors.
	ErrInvalidAddress = &SessionError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrInvalidSignature = &SessionError{
		Code:     "INVALID_SIGNATURE",
		Message:  "invalid signature",
		ExitCode: ExitInput,
	}

	ErrNetworkError = &SessionError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrRequestRejected = &SessionError{
		Code:     "REQUEST_REJECTED",
		Message:  "request rejected by wallet",
		ExitCode: ExitPermission,
	}

	ErrNotConnected = &SessionError{
		Code:     "NOT_CONNECTED",
		Message:  "no wallet connected",
		ExitCode: ExitNotFound,
	}

	ErrUnsupportedMethod = &SessionError{
		Code:     "UNSUPPORTED_METHOD",
		Message:  "provider method not supported",
		ExitCode: ExitInput,
	}

	// Config errors.
	ErrConfigInvalid = &SessionError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	// Session errors.
	ErrSessionUnavailable = &SessionError{
		Code:     "SESSION_UNAVAILABLE",
		Message:  "session caching is not available",
		ExitCode: ExitGeneral,
	}
)

// New creates a new SessionError with the given code and message.
func New(code, message string) *SessionError {
	return &SessionError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var se *SessionError
	if errors.As(err, &se) {
		return &SessionError{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &SessionError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var se *SessionError
	if errors.As(err, &se) {
		return &SessionError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SessionError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var se *SessionError
	if errors.As(err, &se) {
		return &SessionError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &SessionError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var se *SessionError
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
