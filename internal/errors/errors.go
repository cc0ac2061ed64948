package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeConfig indicates missing or invalid service configuration.
	// Raised before any network call is made.
	ErrCodeConfig ErrorCode = "config"
	// ErrCodeTokenExchange indicates the authorization-code exchange with the
	// identity provider failed.
	ErrCodeTokenExchange ErrorCode = "token_exchange"
	// ErrCodeClaimsFetch indicates the userinfo request failed.
	ErrCodeClaimsFetch ErrorCode = "claims_fetch"
	// ErrCodeClaimsDecode indicates a malformed token payload. Callers on the
	// claims path degrade this to an expired claim set rather than aborting.
	ErrCodeClaimsDecode ErrorCode = "claims_decode"
	// ErrCodeMapping indicates a required identity field was missing after
	// claim mapping.
	ErrCodeMapping ErrorCode = "mapping"
	// ErrCodeAuthzTransport indicates the directory lookup itself failed.
	// Never conflated with a denial.
	ErrCodeAuthzTransport ErrorCode = "authz_transport"
	// ErrCodeAuthzDenied indicates the email was not present in the allow-list.
	ErrCodeAuthzDenied ErrorCode = "authz_denied"
	// ErrCodeProvisioning indicates a post-login hook failed. Non-fatal; the
	// login still succeeds.
	ErrCodeProvisioning ErrorCode = "provisioning"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Endpoint is the remote endpoint involved (optional, for transport errors)
	Endpoint string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Config creates a new Config error.
func Config(message string) *AppError {
	return &AppError{Code: ErrCodeConfig, Message: message}
}

// TokenExchange creates a TokenExchange error carrying the endpoint it failed against.
func TokenExchange(endpoint string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeTokenExchange,
		Message:  "failed to get token from OIDC " + endpoint,
		Endpoint: endpoint,
		Cause:    cause,
	}
}

// ClaimsFetch creates a ClaimsFetch error carrying the endpoint it failed against.
func ClaimsFetch(endpoint string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeClaimsFetch,
		Message:  "failed to fetch userinfo from OIDC " + endpoint,
		Endpoint: endpoint,
		Cause:    cause,
	}
}

// ClaimsDecode creates a ClaimsDecode error.
func ClaimsDecode(cause error) *AppError {
	return &AppError{Code: ErrCodeClaimsDecode, Message: "failed to decode token claims", Cause: cause}
}

// Mapping creates a Mapping error for a missing identity field.
func Mapping(message string) *AppError {
	return &AppError{Code: ErrCodeMapping, Message: message}
}

// Mappingf creates a Mapping error with formatted message.
func Mappingf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeMapping, Message: fmt.Sprintf(format, args...)}
}

// AuthzTransport creates an AuthzTransport error.
func AuthzTransport(cause error) *AppError {
	return &AppError{Code: ErrCodeAuthzTransport, Message: "directory lookup failed", Cause: cause}
}

// AuthzDenied creates an AuthzDenied error for an email absent from the allow-list.
func AuthzDenied(email string) *AppError {
	return &AppError{Code: ErrCodeAuthzDenied, Message: fmt.Sprintf("email %q is not authorized", email)}
}

// Provisioning creates a non-fatal Provisioning error for the named hook.
func Provisioning(hook string, cause error) *AppError {
	return &AppError{Code: ErrCodeProvisioning, Message: "provisioning hook " + hook + " failed", Cause: cause}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsConfig checks if an error is a Config error.
func IsConfig(err error) bool { return isCode(err, ErrCodeConfig) }

// IsTokenExchange checks if an error is a TokenExchange error.
func IsTokenExchange(err error) bool { return isCode(err, ErrCodeTokenExchange) }

// IsClaimsFetch checks if an error is a ClaimsFetch error.
func IsClaimsFetch(err error) bool { return isCode(err, ErrCodeClaimsFetch) }

// IsMapping checks if an error is a Mapping error.
func IsMapping(err error) bool { return isCode(err, ErrCodeMapping) }

// IsAuthzTransport checks if an error is an AuthzTransport error.
func IsAuthzTransport(err error) bool { return isCode(err, ErrCodeAuthzTransport) }

// IsAuthzDenied checks if an error is an AuthzDenied error.
func IsAuthzDenied(err error) bool { return isCode(err, ErrCodeAuthzDenied) }

// IsProvisioning checks if an error is a Provisioning error.
func IsProvisioning(err error) bool { return isCode(err, ErrCodeProvisioning) }

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool { return isCode(err, ErrCodeInternal) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetEndpoint returns the Endpoint from an error, or empty string if not set.
func GetEndpoint(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Endpoint
	}
	return ""
}
