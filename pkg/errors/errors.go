package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so callers can write
// errors.Is(err, apperrors.New(apperrors.ErrPastDate, "")).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// StatusCode maps the error code to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrInternal:
		return http.StatusInternalServerError
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	case ErrPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		// Validation failures and conflicts share 400.
		return http.StatusBadRequest
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrMissingField
	ErrInvalidDate
	ErrPastDate
	ErrInvalidRating
	ErrInvalidStatus
	ErrDuplicateEmail
	ErrDuplicateReview
	ErrInvalidCredential
	ErrConflict
	ErrUnavailable
	ErrTooManyRequests
	ErrPayloadTooLarge
)

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: ErrForbidden, Message: message}
}

func MissingField(fields ...string) *AppError {
	msg := "Missing required fields"
	switch len(fields) {
	case 0:
	case 1:
		msg = fmt.Sprintf("%s is required", fields[0])
	default:
		msg = fmt.Sprintf("Missing required fields: %s", strings.Join(fields, ", "))
	}
	return &AppError{Code: ErrMissingField, Message: msg}
}

func InvalidDate(err error) *AppError {
	return &AppError{Code: ErrInvalidDate, Message: "Invalid appointment date format. Please send a valid date string.", Err: err}
}

func PastDate() *AppError {
	return &AppError{Code: ErrPastDate, Message: "Appointment date must be today or in the future"}
}

func InvalidRating() *AppError {
	return &AppError{Code: ErrInvalidRating, Message: "Rating must be between 1 and 5"}
}

func InvalidStatus(status string) *AppError {
	return &AppError{Code: ErrInvalidStatus, Message: "Invalid status. Must be pending, completed, or cancelled", Err: fmt.Errorf("status %q", status)}
}

func DuplicateEmail() *AppError {
	return &AppError{Code: ErrDuplicateEmail, Message: "User already exists"}
}

func DuplicateReview() *AppError {
	return &AppError{Code: ErrDuplicateReview, Message: "You have already reviewed this doctor"}
}

func InvalidCredential() *AppError {
	return &AppError{Code: ErrInvalidCredential, Message: "Invalid credentials"}
}

func Conflict(message string, err error) *AppError {
	return &AppError{Code: ErrConflict, Message: message, Err: err}
}

func Unavailable(message string, err error) *AppError {
	return &AppError{Code: ErrUnavailable, Message: message, Err: err}
}

func TooManyRequests(message string) *AppError {
	return &AppError{Code: ErrTooManyRequests, Message: message}
}

func PayloadTooLarge(message string) *AppError {
	return &AppError{Code: ErrPayloadTooLarge, Message: message}
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrInternal when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
