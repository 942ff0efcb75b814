package services

import (
	"reflect"
	"testing"

	"zaivio-client/models"
)

func TestUsernameAliasesResolveToSameValue(t *testing.T) {
	for _, header := range []string{"user name", "Username", "username", "  USER_NAME ", "User-Name"} {
		rows := []RawRow{{{Header: header, Value: "jane"}, {Header: "Nodes", Value: "3"}}}
		report := Validate(rows)
		if len(report.Errors) != 0 {
			t.Errorf("header %q: unexpected errors %v", header, report.Errors)
			continue
		}
		if got := report.ValidRecords[0].Username; got != "jane" {
			t.Errorf("header %q: username = %q, want jane", header, got)
		}
	}
}

func TestEmailAndNodesAliases(t *testing.T) {
	rows := []RawRow{
		{{Header: "User Name", Value: "a"}, {Header: "User Email", Value: "a@x.io"}, {Header: "Node Count", Value: "2"}},
		{{Header: "username", Value: "b"}, {Header: "Email Address", Value: "b@x.io"}, {Header: "assigned_nodes", Value: "4"}},
	}
	report := Validate(rows)
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected errors %v", report.Errors)
	}
	if report.ValidRecords[0].EmailValue() != "a@x.io" || report.ValidRecords[0].AssignedNodes != 2 {
		t.Errorf("record 1 = %+v", report.ValidRecords[0])
	}
	if report.ValidRecords[1].EmailValue() != "b@x.io" || report.ValidRecords[1].AssignedNodes != 4 {
		t.Errorf("record 2 = %+v", report.ValidRecords[1])
	}
}

func TestAliasOrderPrefersFirstNonEmptyMatch(t *testing.T) {
	row := RawRow{
		{Header: "username", Value: "second"},
		{Header: "User Name", Value: "first"},
		{Header: "Nodes", Value: "1"},
	}
	report := Validate([]RawRow{row})
	if got := report.ValidRecords[0].Username; got != "first" {
		t.Errorf("username = %q, want first", got)
	}

	row[1].Value = "  "
	report = Validate([]RawRow{row})
	if got := report.ValidRecords[0].Username; got != "second" {
		t.Errorf("username = %q, want second when the preferred column is blank", got)
	}
}

func TestValidRecordDefaults(t *testing.T) {
	report := Validate([]RawRow{{{Header: "username", Value: "jane"}, {Header: "nodes", Value: "0"}}})
	if len(report.ValidRecords) != 1 {
		t.Fatalf("errors: %v", report.Errors)
	}
	rec := report.ValidRecords[0]
	if rec.Email != nil {
		t.Errorf("email = %q, want nil", *rec.Email)
	}
	if rec.ImportStatus != models.ImportStatusPending || rec.Status != models.StatusActive {
		t.Errorf("defaults = %q/%q", rec.ImportStatus, rec.Status)
	}
}

func TestFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		row  RawRow
		want []models.ValidationError
	}{
		{
			name: "missing username",
			row:  RawRow{{Header: "nodes", Value: "1"}},
			want: []models.ValidationError{{Row: 1, Field: FieldUsername, Message: msgUsernameRequired}},
		},
		{
			name: "missing nodes",
			row:  RawRow{{Header: "username", Value: "a"}},
			want: []models.ValidationError{{Row: 1, Field: FieldNodes, Message: msgNodesRequired}},
		},
		{
			name: "nodes not a number",
			row:  RawRow{{Header: "username", Value: "a"}, {Header: "nodes", Value: "many"}},
			want: []models.ValidationError{{Row: 1, Field: FieldNodes, Message: msgNodesNotNumber}},
		},
		{
			name: "fractional nodes",
			row:  RawRow{{Header: "username", Value: "a"}, {Header: "nodes", Value: "1.5"}},
			want: []models.ValidationError{{Row: 1, Field: FieldNodes, Message: msgNodesNotWhole}},
		},
		{
			name: "negative nodes",
			row:  RawRow{{Header: "username", Value: "a"}, {Header: "nodes", Value: "-2"}},
			want: []models.ValidationError{{Row: 1, Field: FieldNodes, Message: msgNodesNotWhole}},
		},
		{
			name: "bad email",
			row:  RawRow{{Header: "username", Value: "a"}, {Header: "nodes", Value: "1"}, {Header: "email", Value: "a@b"}},
			want: []models.ValidationError{{Row: 1, Field: FieldEmail, Message: msgInvalidEmail}},
		},
		{
			name: "every field wrong",
			row:  RawRow{{Header: "email", Value: "nope"}},
			want: []models.ValidationError{
				{Row: 1, Field: FieldUsername, Message: msgUsernameRequired},
				{Row: 1, Field: FieldNodes, Message: msgNodesRequired},
				{Row: 1, Field: FieldEmail, Message: msgInvalidEmail},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Validate([]RawRow{tt.row})
			if len(report.ValidRecords) != 0 {
				t.Errorf("row with errors produced a record: %+v", report.ValidRecords)
			}
			if !reflect.DeepEqual(report.Errors, tt.want) {
				t.Errorf("errors = %+v, want %+v", report.Errors, tt.want)
			}
		})
	}
}

func TestValidateIsPure(t *testing.T) {
	rows := []RawRow{
		{{Header: "username", Value: "a"}, {Header: "nodes", Value: "1"}},
		{{Header: "nodes", Value: "x"}},
		{{Header: "User Name", Value: "c"}, {Header: "Email", Value: "c@x.io"}, {Header: "Nodes", Value: "3"}},
	}
	snapshot := make([]RawRow, len(rows))
	for i, r := range rows {
		snapshot[i] = append(RawRow(nil), r...)
	}

	first := Validate(rows)
	second := Validate(rows)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("validate is not deterministic:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(rows, snapshot) {
		t.Error("validate mutated its input")
	}
	if len(first.ValidRecords) != 2 || len(first.Errors) != 2 || first.Errors[0].Row != 2 {
		t.Errorf("unexpected report %+v", first)
	}
}

func TestAliasesReturnsCopy(t *testing.T) {
	aliases := Aliases()
	aliases[0].Headers[0] = "changed"
	if Aliases()[0].Headers[0] != "user name" {
		t.Error("Aliases exposed the internal table")
	}
}
