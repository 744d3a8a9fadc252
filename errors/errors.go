package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies an error kind in API responses
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = iota
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_INVALID_PAYLOAD
	ErrorCode_NOT_FOUND
	ErrorCode_UNAUTHENTICATED
	ErrorCode_SESSION_UNAVAILABLE
	ErrorCode_SESSION_FAILED
	ErrorCode_WEBHOOK_UNAUTHORIZED
	ErrorCode_DB_CONNECTION_FAILED
	ErrorCode_DB_QUERY_FAILED
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:              "HTTP_OK",
	ErrorCode_INTERNAL:             "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:     "INVALID_ARGUMENT",
	ErrorCode_INVALID_PAYLOAD:      "INVALID_PAYLOAD",
	ErrorCode_NOT_FOUND:            "NOT_FOUND",
	ErrorCode_UNAUTHENTICATED:      "UNAUTHENTICATED",
	ErrorCode_SESSION_UNAVAILABLE:  "SESSION_UNAVAILABLE",
	ErrorCode_SESSION_FAILED:       "SESSION_FAILED",
	ErrorCode_WEBHOOK_UNAUTHORIZED: "WEBHOOK_UNAUTHORIZED",
	ErrorCode_DB_CONNECTION_FAILED: "DB_CONNECTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:      "DB_QUERY_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// AppError là custom error type cho application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying error
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Session Errors
func ErrSessionUnavailable(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_SESSION_UNAVAILABLE,
		Message:  "Roster session is not running",
	}.WithDetail("meeting_id", meetingID)
}

func ErrSessionFailed(meetingID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_SESSION_FAILED,
		Message:  "Roster session failed to initialize",
	}.WithDetail("meeting_id", meetingID)
}

func ErrParticipantNotFound(participantID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  "Participant not found",
	}.WithDetail("participant_id", participantID)
}

// Webhook Errors
func ErrWebhookUnauthorized(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_WEBHOOK_UNAUTHORIZED,
		Message:  "Webhook signature verification failed",
	}
}

// Database Errors
func ErrDBConnectionFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_CONNECTION_FAILED,
		Message:  "Database connection failed",
	}
}

func ErrDBQueryFailed(query string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_QUERY_FAILED,
		Message:  "Database query failed",
	}.WithDetail("query", query)
}
