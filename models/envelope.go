package models

import "encoding/json"

const (
	EnvelopeSuccess = "success"
	EnvelopeError   = "error"
)

// Envelope is the response wrapper every backend endpoint uses.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}
