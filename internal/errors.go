package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingFields    ErrorCode = "MISSING_REQUIRED_FIELDS"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidMethod    ErrorCode = "INVALID_METHOD"
	ErrCodeInstitutionReq   ErrorCode = "INSTITUTION_REQUIRED"

	ErrCodeCertificateNotFound  ErrorCode = "CERTIFICATE_NOT_FOUND"
	ErrCodeVerificationNotFound ErrorCode = "VERIFICATION_NOT_FOUND"
	ErrCodeInstitutionNotFound  ErrorCode = "INSTITUTION_NOT_FOUND"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeFileNotFound         ErrorCode = "FILE_NOT_FOUND"

	ErrCodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive        ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken        ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInstitutionMismatch ErrorCode = "INSTITUTION_MISMATCH"
	ErrCodeRoleRestricted      ErrorCode = "ROLE_RESTRICTED"

	ErrCodeAlreadyResolved     ErrorCode = "VERIFICATION_ALREADY_RESOLVED"
	ErrCodeTokenAlreadyUsed    ErrorCode = "RESET_TOKEN_INVALID_OR_EXPIRED"
	ErrCodeStorageFailure      ErrorCode = "STORAGE_FAILURE"
	ErrCodeNotificationFailure ErrorCode = "NOTIFICATION_FAILURE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FieldErrors struct {
	Errors []FieldError `json:"errors"`
}

func (fe FieldErrors) Join() string {
	messages := make([]string, len(fe.Errors))
	for i, err := range fe.Errors {
		messages[i] = err.Message
	}
	return strings.Join(messages, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewStorageError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeStorageFailure,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrCertificateNotFound  = NewNotFoundError("certificate not found", ErrCodeCertificateNotFound)
	ErrVerificationNotFound = NewNotFoundError("verification not found", ErrCodeVerificationNotFound)
	ErrInstitutionNotFound  = NewNotFoundError("institution not found", ErrCodeInstitutionNotFound)
	ErrUserNotFound         = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrFileNotFound         = NewNotFoundError("file not found on server", ErrCodeFileNotFound)

	ErrInvalidCredentials  = NewUnauthorizedError("invalid username or password", ErrCodeInvalidCredentials)
	ErrUserInactive        = NewForbiddenError("account is inactive, contact the administrator", ErrCodeUserInactive)
	ErrInvalidToken        = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired        = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
	ErrInstitutionMismatch = NewForbiddenError("verification belongs to another institution", ErrCodeInstitutionMismatch)
	ErrRoleRestricted      = NewForbiddenError("role does not permit this action", ErrCodeRoleRestricted)

	ErrAlreadyResolved       = NewConflictError("verification is already in a terminal status", ErrCodeAlreadyResolved)
	ErrResetTokenUnavailable = NewConflictError("reset token is invalid, expired or already used", ErrCodeTokenAlreadyUsed)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
