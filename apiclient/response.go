package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is a successful answer with the envelope already unwrapped.
type Response struct {
	StatusCode int
	Status     string
	Message    string
	Data       json.RawMessage
	Header     http.Header
}

// Decode unmarshals the envelope's data into v. Missing or null data leaves v untouched.
func (r *Response) Decode(v any) error {
	if isNull(r.Data) {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// DecodeList decodes data as a JSON array. Anything that is not an array yields an empty slice.
func DecodeList[T any](r *Response) ([]T, error) {
	trimmed := bytes.TrimSpace(r.Data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []T{}, nil
	}
	items := []T{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode response list: %w", err)
	}
	return items, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code   int             `json:"code"`
		Detail json.RawMessage `json:"detail"`
	} `json:"error"`
}

// parseEnvelope reads {status, message, data} bodies. Bodies that are not an
// envelope are returned whole as data.
func parseEnvelope(body []byte) (status, message, detail string, data json.RawMessage) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", "", "", nil
	}
	if trimmed[0] != '{' {
		return "", "", "", trimmed
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return "", "", "", trimmed
	}
	_, hasStatus := keys["status"]
	_, hasData := keys["data"]
	_, hasMessage := keys["message"]
	if !hasStatus && !hasData && !hasMessage {
		return "", "", "", trimmed
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return "", "", "", trimmed
	}
	if env.Error != nil {
		detail = rawText(env.Error.Detail)
	}
	return env.Status, rawText(env.Message), detail, env.Data
}

// rawText renders a JSON string as text and any other JSON value verbatim.
func rawText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
