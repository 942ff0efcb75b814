package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionExpired means the credential could not be renewed; the user has to log in again.
	ErrSessionExpired = errors.New("session expired")
	ErrClosed         = errors.New("gateway closed")
)

// Category is the user-facing class of a failed request.
type Category string

const (
	CategoryBadRequest     Category = "bad_request"
	CategoryUnauthorized   Category = "unauthorized"
	CategoryForbidden      Category = "forbidden"
	CategoryNotFound       Category = "not_found"
	CategoryServerError    Category = "server_error"
	CategoryUnknown        Category = "unknown"
	CategorySessionExpired Category = "session_expired"
)

var defaultMessages = map[Category]string{
	CategoryBadRequest:     "Bad request. Please check your input.",
	CategoryUnauthorized:   "Unauthorized.",
	CategoryForbidden:      "Access denied. You do not have permission.",
	CategoryNotFound:       "Resource not found.",
	CategoryServerError:    "Internal server error.",
	CategoryUnknown:        "Something went wrong.",
	CategorySessionExpired: "Session expired. Please log in again.",
}

// DefaultMessage returns the fixed text shown when the server sent none.
func (c Category) DefaultMessage() string {
	if msg, ok := defaultMessages[c]; ok {
		return msg
	}
	return defaultMessages[CategoryUnknown]
}

// CategoryFor maps a terminal HTTP status to its notification category.
func CategoryFor(status int) Category {
	switch status {
	case http.StatusBadRequest:
		return CategoryBadRequest
	case http.StatusUnauthorized:
		return CategoryUnauthorized
	case http.StatusForbidden:
		return CategoryForbidden
	case http.StatusNotFound:
		return CategoryNotFound
	case http.StatusInternalServerError:
		return CategoryServerError
	default:
		return CategoryUnknown
	}
}

// ApiError is a request the server rejected, or one that never got an answer (Status 0).
type ApiError struct {
	Status   int
	Category Category
	Message  string
	Detail   string
	Err      error
}

func newAPIError(status int, message, detail string) *ApiError {
	category := CategoryFor(status)
	if message == "" {
		message = category.DefaultMessage()
	}
	return &ApiError{Status: status, Category: category, Message: message, Detail: detail}
}

func (e *ApiError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("request failed: %v", e.Err)
		}
		return "request failed: " + e.Message
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
