// Package errors defines the application's wire-stable error shape.
package errors

import (
	"fmt"
	"net/http"
)

// Code is a stable, lowercase wire error code — unlike the teacher's
// numeric ErrorCode, these are part of the public API contract and must
// never be renumbered.
type Code string

const (
	CodeAuthInvalid         Code = "auth_invalid"
	CodeTenantDisabled      Code = "tenant_disabled"
	CodeRateLimited         Code = "rate_limited"
	CodeNotFound            Code = "not_found"
	CodePermissionDenied    Code = "permission_denied"
	CodeNoPermission        Code = "no_permission"
	CodeValidationError     Code = "validation_error"
	CodeConfigMismatch      Code = "config_mismatch"
	CodeTimeout             Code = "timeout"
	CodeUpstreamUnavailable Code = "upstream_unavailable"
	CodeConflict            Code = "conflict"
	CodeQuotaExceeded       Code = "quota_exceeded"
	CodeInternal            Code = "internal"
)

var httpCodes = map[Code]int{
	CodeAuthInvalid:         http.StatusUnauthorized,
	CodeTenantDisabled:      http.StatusForbidden,
	CodeRateLimited:         http.StatusTooManyRequests,
	CodeNotFound:            http.StatusNotFound,
	CodePermissionDenied:    http.StatusForbidden,
	CodeNoPermission:        http.StatusForbidden,
	CodeValidationError:     http.StatusUnprocessableEntity,
	CodeConfigMismatch:      http.StatusConflict,
	CodeTimeout:             http.StatusServiceUnavailable,
	CodeUpstreamUnavailable: http.StatusServiceUnavailable,
	CodeConflict:            http.StatusConflict,
	CodeQuotaExceeded:       http.StatusForbidden,
	CodeInternal:            http.StatusInternalServerError,
}

// AppError is the application error structure, matching the teacher's
// AppError{Code, Message, Details, HTTPCode} shape.
type AppError struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Details  any    `json:"details,omitempty"`
	HTTPCode int    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("error %s: %s", e.Code, e.Message)
}

// WithDetails attaches structured detail to the error and returns it.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

func newError(code Code, message string) *AppError {
	httpCode, ok := httpCodes[code]
	if !ok {
		httpCode = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, HTTPCode: httpCode}
}

func NewAuthInvalidError(message string) *AppError          { return newError(CodeAuthInvalid, message) }
func NewTenantDisabledError(message string) *AppError       { return newError(CodeTenantDisabled, message) }
func NewRateLimitedError(message string) *AppError          { return newError(CodeRateLimited, message) }
func NewNotFoundError(message string) *AppError             { return newError(CodeNotFound, message) }
func NewPermissionDeniedError(message string) *AppError     { return newError(CodePermissionDenied, message) }
func NewNoPermissionError(message string) *AppError         { return newError(CodeNoPermission, message) }
func NewValidationError(message string) *AppError           { return newError(CodeValidationError, message) }
func NewConfigMismatchError(message string) *AppError       { return newError(CodeConfigMismatch, message) }
func NewTimeoutError(message string) *AppError               { return newError(CodeTimeout, message) }
func NewUpstreamUnavailableError(message string) *AppError  { return newError(CodeUpstreamUnavailable, message) }
func NewConflictError(message string) *AppError              { return newError(CodeConflict, message) }
func NewQuotaExceededError(message string) *AppError         { return newError(CodeQuotaExceeded, message) }

func NewInternalServerError(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return newError(CodeInternal, message)
}

// IsAppError reports whether err is an *AppError and returns it typed.
func IsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}
