package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"zaivio-client/apiclient"
	"zaivio-client/models"
)

var ErrNoImportResult = errors.New("no data returned from the server")

// BulkCreator submits a batch of records in a single call.
type BulkCreator interface {
	BulkCreate(ctx context.Context, records []models.ImportRecord) (*apiclient.Response, error)
}

type bulkPayload struct {
	Success []json.RawMessage     `json:"success"`
	Failed  []json.RawMessage     `json:"failed"`
	Summary *models.ImportSummary `json:"summary"`
}

// createdEntry covers both echoed records and the {email, user_id, name} form.
type createdEntry struct {
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	UserID   int     `json:"user_id"`
}

type failedEntry struct {
	Data     json.RawMessage `json:"data"`
	Username string          `json:"username"`
	Email    *string         `json:"email"`
	Error    json.RawMessage `json:"error"`
	Code     int             `json:"code"`
}

// reconcile maps the server's per-record partition back onto the submitted records.
func reconcile(submitted []models.ImportRecord, data json.RawMessage) (*models.ImportResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrNoImportResult
	}
	var payload bulkPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("decode import result: %w", err)
	}

	m := newMatcher(submitted)
	result := &models.ImportResult{
		Success: []models.ImportRecord{},
		Failed:  []models.FailedRecord{},
	}

	for _, raw := range payload.Success {
		var entry createdEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("decode created record: %w", err)
		}
		username := entry.Username
		if username == "" {
			username = entry.Name
		}
		result.Success = append(result.Success, m.take(username, deref(entry.Email)))
	}

	for _, raw := range payload.Failed {
		var entry failedEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("decode failed record: %w", err)
		}
		username, email := entry.Username, deref(entry.Email)
		if len(bytes.TrimSpace(entry.Data)) > 0 {
			var echoed models.ImportRecord
			if err := json.Unmarshal(entry.Data, &echoed); err == nil {
				username, email = echoed.Username, echoed.EmailValue()
			}
		}
		result.Failed = append(result.Failed, models.FailedRecord{
			Data:  m.take(username, email),
			Error: errorText(entry.Error),
			Code:  entry.Code,
		})
	}

	if payload.Summary != nil {
		result.Summary = *payload.Summary
	} else {
		result.Summary = models.ImportSummary{
			Total:     len(submitted),
			Succeeded: len(result.Success),
			Failed:    len(result.Failed),
		}
	}
	return result, nil
}

// matcher hands out each submitted record at most once, by username then email.
type matcher struct {
	records []models.ImportRecord
	used    []bool
}

func newMatcher(records []models.ImportRecord) *matcher {
	return &matcher{records: records, used: make([]bool, len(records))}
}

func (m *matcher) take(username, email string) models.ImportRecord {
	if i := m.find(func(r models.ImportRecord) bool { return username != "" && r.Username == username }); i >= 0 {
		return m.records[i]
	}
	if i := m.find(func(r models.ImportRecord) bool {
		return email != "" && strings.EqualFold(r.EmailValue(), email)
	}); i >= 0 {
		return m.records[i]
	}

	record := models.ImportRecord{Username: username}
	if email != "" {
		record.Email = &email
	}
	return record
}

func (m *matcher) find(match func(models.ImportRecord) bool) int {
	for i, r := range m.records {
		if !m.used[i] && match(r) {
			m.used[i] = true
			return i
		}
	}
	return -1
}

func errorText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "Unknown error"
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
