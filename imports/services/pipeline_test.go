package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"zaivio-client/apiclient"
	"zaivio-client/models"
)

type fakeCreator struct {
	calls    int
	received []models.ImportRecord
	data     string
	err      error
}

func (f *fakeCreator) BulkCreate(_ context.Context, records []models.ImportRecord) (*apiclient.Response, error) {
	f.calls++
	f.received = records
	if f.err != nil {
		return nil, f.err
	}
	return &apiclient.Response{StatusCode: http.StatusMultiStatus, Status: "success", Data: json.RawMessage(f.data)}, nil
}

func strPtr(s string) *string { return &s }

func TestValidationGateBlocksSubmission(t *testing.T) {
	csv := "User Name,Email,Nodes\njane,jane@x.io,2\n,bob@x.io,1\ncarl,,4\n"
	creator := &fakeCreator{}
	outcome, err := NewPipeline(creator, nil).Process(context.Background(), "users.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if creator.calls != 0 {
		t.Errorf("bulk create called %d times, want 0", creator.calls)
	}
	want := []models.ValidationError{{Row: 2, Field: FieldUsername, Message: msgUsernameRequired}}
	if !reflect.DeepEqual(outcome.ValidationErrors, want) {
		t.Errorf("validation errors = %+v, want %+v", outcome.ValidationErrors, want)
	}
	if outcome.Result != nil {
		t.Error("result must be empty when validation fails")
	}
}

func TestPartialSubmissionRoundTrip(t *testing.T) {
	creator := &fakeCreator{data: `{
		"success": [{"email": "a@x.io", "user_id": 11, "name": "alice"}],
		"failed": [{"username": "bob", "error": "duplicate", "code": 400}],
		"summary": {"total": 2, "succeeded": 1, "failed": 1}
	}`}
	records := []models.ImportRecord{
		{Username: "alice", Email: strPtr("a@x.io"), AssignedNodes: 1, ImportStatus: models.ImportStatusPending, Status: models.StatusActive},
		{Username: "bob", Email: strPtr("b@x.io"), AssignedNodes: 2, ImportStatus: models.ImportStatusPending, Status: models.StatusActive},
	}

	result, err := NewPipeline(creator, nil).Submit(context.Background(), records)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if creator.calls != 1 {
		t.Errorf("bulk create called %d times, want 1", creator.calls)
	}
	if !reflect.DeepEqual(result.Success, records[:1]) {
		t.Errorf("success = %+v", result.Success)
	}
	wantFailed := []models.FailedRecord{{Data: records[1], Error: "duplicate", Code: 400}}
	if !reflect.DeepEqual(result.Failed, wantFailed) {
		t.Errorf("failed = %+v, want %+v", result.Failed, wantFailed)
	}
	if result.Summary.Succeeded != 1 || result.Summary.Failed != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}
}

func TestSubmitAcceptsEchoedRecordShape(t *testing.T) {
	creator := &fakeCreator{data: `{
		"success": [{"username": "alice", "email": null, "assigned_nodes": 1}],
		"failed": [{"data": {"username": "bob", "email": "b@x.io", "assigned_nodes": 2}, "error": "Email already exists"}]
	}`}
	records := []models.ImportRecord{
		{Username: "alice", AssignedNodes: 1},
		{Username: "bob", Email: strPtr("b@x.io"), AssignedNodes: 2},
	}

	result, err := NewPipeline(creator, nil).Submit(context.Background(), records)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(result.Success) != 1 || result.Success[0].Username != "alice" {
		t.Errorf("success = %+v", result.Success)
	}
	if len(result.Failed) != 1 || result.Failed[0].Data.Username != "bob" || result.Failed[0].Error != "Email already exists" {
		t.Errorf("failed = %+v", result.Failed)
	}
	if result.Summary != (models.ImportSummary{Total: 2, Succeeded: 1, Failed: 1}) {
		t.Errorf("summary = %+v", result.Summary)
	}
}

func TestEveryRecordFailingIsStillASuccess(t *testing.T) {
	creator := &fakeCreator{data: `{"success": [], "failed": [
		{"username": "a", "error": "duplicate"},
		{"username": "b", "error": {"reason": "bad"}}
	]}`}
	csv := "username,nodes\na,1\nb,2\n"
	outcome, err := NewPipeline(creator, nil).Process(context.Background(), "users.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(outcome.Result.Failed) != 2 || len(outcome.Result.Success) != 0 {
		t.Fatalf("result = %+v", outcome.Result)
	}
	if outcome.Result.Failed[1].Error != `{"reason": "bad"}` {
		t.Errorf("error text = %q", outcome.Result.Failed[1].Error)
	}
	if !outcome.NeedsReport() {
		t.Error("failed records need a report")
	}
}

func TestSubmitFailures(t *testing.T) {
	ctx := context.Background()
	records := []models.ImportRecord{{Username: "a"}}

	apiErr := &apiclient.ApiError{Status: http.StatusForbidden, Category: apiclient.CategoryForbidden, Message: "nope"}
	_, err := NewPipeline(&fakeCreator{err: apiErr}, nil).Submit(ctx, records)
	var got *apiclient.ApiError
	if !errors.As(err, &got) || got.Status != http.StatusForbidden {
		t.Errorf("expected ApiError 403, got %v", err)
	}

	_, err = NewPipeline(&fakeCreator{data: "null"}, nil).Submit(ctx, records)
	if !errors.Is(err, ErrNoImportResult) {
		t.Errorf("expected ErrNoImportResult, got %v", err)
	}

	creator := &fakeCreator{}
	result, err := NewPipeline(creator, nil).Submit(ctx, nil)
	if err != nil || creator.calls != 0 {
		t.Errorf("empty submit: err=%v calls=%d", err, creator.calls)
	}
	if result == nil || len(result.Success) != 0 {
		t.Errorf("empty submit result = %+v", result)
	}
}

func TestProcessReportsFileErrors(t *testing.T) {
	creator := &fakeCreator{}
	_, err := NewPipeline(creator, nil).Process(context.Background(), "users.pdf", strings.NewReader("%PDF"))
	var fileErr *FileError
	if !errors.As(err, &fileErr) || !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("expected unsupported FileError, got %v", err)
	}
	if creator.calls != 0 {
		t.Error("file errors must not reach the server")
	}
}
