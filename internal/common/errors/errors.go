package errors

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode identifies the kind of an application error.
type ErrorCode string

const (
	// Generic codes
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"

	// User codes
	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	ErrCodeEmailTaken       ErrorCode = "EMAIL_TAKEN"
	ErrCodeMissingDocuments ErrorCode = "MISSING_DOCUMENTS"

	// Infrastructure codes
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeSessionError  ErrorCode = "SESSION_ERROR"
	ErrCodeStorageError  ErrorCode = "STORAGE_ERROR"
)

// AppError is the typed error carried across service and transport layers.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Stack     []string               `json:"stack,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the original cause for errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound || e.Code == ErrCodeUserNotFound
}

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation || e.Code == ErrCodeBadRequest || e.Code == ErrCodeMissingDocuments
}

func (e *AppError) IsUnauthorized() bool {
	return e.Code == ErrCodeUnauthorized || e.Code == ErrCodeForbidden
}

func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeDatabaseError ||
		e.Code == ErrCodeSessionError ||
		e.Code == ErrCodeStorageError
}

// WithDetail attaches a key/value pair to the error payload.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRequestID tags the error with the originating request.
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// New creates an application error with a captured stack.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

// Wrap attaches an underlying cause to a new application error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

// Constructors for the errors the services raise.

// NewValidationError reports invalid creation input. details maps each
// rejected field to the reason it was rejected.
func NewValidationError(details map[string]interface{}) *AppError {
	err := New(ErrCodeValidation, "Validation failed")
	err.Details = details
	return err
}

// NewUserNotFoundError reports an unknown user id.
func NewUserNotFoundError(userID string) *AppError {
	return New(ErrCodeUserNotFound, fmt.Sprintf("User not found: %s", userID)).
		WithDetail("user_id", userID)
}

// NewEmailTakenError reports a unique-email conflict.
func NewEmailTakenError(email string) *AppError {
	return New(ErrCodeEmailTaken, fmt.Sprintf("Email already registered: %s", email)).
		WithDetail("email", email)
}

// NewAuthenticationError reports a failed login or absent session identity.
func NewAuthenticationError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

// NewForbiddenError reports an authenticated but not permitted request.
func NewForbiddenError(reason string) *AppError {
	return New(ErrCodeForbidden, fmt.Sprintf("Forbidden: %s", reason)).
		WithDetail("reason", reason)
}

// NewIneligibleError reports a premium upgrade requested without the
// required documents. missing lists the absent document names.
func NewIneligibleError(missing []string) *AppError {
	return New(ErrCodeMissingDocuments, "User has not uploaded all required documents").
		WithDetail("missing", missing)
}

// NewConflictError reports a state transition the current role does not allow.
func NewConflictError(resource, reason string) *AppError {
	return New(ErrCodeConflict, fmt.Sprintf("Conflict with %s: %s", resource, reason)).
		WithDetail("resource", resource).
		WithDetail("reason", reason)
}

// NewInternalError wraps an unexpected failure, preserving the cause.
func NewInternalError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, fmt.Sprintf("Operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewDatabaseError wraps a persistence failure.
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewSessionError wraps a session store failure.
func NewSessionError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeSessionError, fmt.Sprintf("Session operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewStorageError wraps a file storage failure.
func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorageError, fmt.Sprintf("Storage operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// IsAppError reports whether err is an AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError extracts an AppError from err if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
