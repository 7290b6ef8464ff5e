package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidInterval     = "INVALID_INTERVAL"
	CodeConflict            = "CONFLICT"
	CodeStale               = "STALE"
	CodeForbidden           = "FORBIDDEN"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
	CodeDeliveryFailed      = "DELIVERY_FAILED"
	CodeSubscriptionDropped = "SUBSCRIPTION_DROPPED"
	CodeTimeout             = "TIMEOUT"
	CodeInternal            = "INTERNAL_ERROR"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// InvalidInterval rejects an appointment whose end does not come after its start.
func InvalidInterval(start, end string) *AppError {
	return &AppError{
		Code:       CodeInvalidInterval,
		Message:    "end_time must be after start_time",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"start_time": start,
			"end_time":   end,
		},
	}
}

// Conflict reports an overlapping booking. conflictingID may be empty when the
// collision was detected without a concrete record (e.g. a unique index).
func Conflict(message, conflictingID string) *AppError {
	e := &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
	if conflictingID != "" {
		e.Details = map[string]any{"conflicting_id": conflictingID}
	}
	return e
}

func Stale(message string) *AppError {
	return &AppError{
		Code:       CodeStale,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func StoreUnavailable(operation string, err error) *AppError {
	return &AppError{
		Code:       CodeStoreUnavailable,
		Message:    fmt.Sprintf("record store unavailable during %s", operation),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func DeliveryFailed(message string, err error) *AppError {
	return &AppError{
		Code:       CodeDeliveryFailed,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func SubscriptionDropped(stream string, err error) *AppError {
	return &AppError{
		Code:       CodeSubscriptionDropped,
		Message:    fmt.Sprintf("change feed %s dropped", stream),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsAppError reports whether err is, or wraps, an *AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err carries the given AppError code anywhere in its chain.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
