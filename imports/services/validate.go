package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"zaivio-client/models"
)

const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldNodes    = "nodes"
)

const (
	msgUsernameRequired = "Username is required"
	msgNodesRequired    = "Nodes assignment is required"
	msgNodesNotNumber   = "Nodes must be a number"
	msgNodesNotWhole    = "Nodes must be a whole, non-negative number"
	msgInvalidEmail     = "Invalid email format"
)

// Alias lists the accepted header spellings of one field, in lookup order.
// Spellings are compared after normalizeHeader.
type Alias struct {
	Field   string
	Headers []string
}

var columnAliases = []Alias{
	{Field: FieldUsername, Headers: []string{"user name", "username"}},
	{Field: FieldEmail, Headers: []string{"user email", "email", "email address"}},
	{Field: FieldNodes, Headers: []string{"nodes", "node count", "assigned nodes"}},
}

var (
	emailRegex      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	headerSeparator = regexp.MustCompile(`[\s_-]+`)
)

// Aliases returns a copy of the column alias table.
func Aliases() []Alias {
	out := make([]Alias, len(columnAliases))
	for i, a := range columnAliases {
		out[i] = Alias{Field: a.Field, Headers: append([]string(nil), a.Headers...)}
	}
	return out
}

// ValidationReport partitions rows into records ready to submit and field errors.
type ValidationReport struct {
	ValidRecords []models.ImportRecord
	Errors       []models.ValidationError
}

// Validate checks each row on its own. A row with any field error contributes
// its errors and no record. Rows are numbered from 1 in input order.
//
// Nodes must be a whole, non-negative number: values such as 2.5 or -1 are
// rejected, where the web uploader only rejected non-numeric values.
func Validate(rows []RawRow) ValidationReport {
	report := ValidationReport{
		ValidRecords: []models.ImportRecord{},
		Errors:       []models.ValidationError{},
	}
	for i, row := range rows {
		record, errs := validateRow(i+1, row)
		if len(errs) > 0 {
			report.Errors = append(report.Errors, errs...)
			continue
		}
		report.ValidRecords = append(report.ValidRecords, record)
	}
	return report
}

func validateRow(rowNum int, row RawRow) (models.ImportRecord, []models.ValidationError) {
	var errs []models.ValidationError
	fail := func(field, message string) {
		errs = append(errs, models.ValidationError{Row: rowNum, Field: field, Message: message})
	}

	username, _ := lookup(row, FieldUsername)
	if username == "" {
		fail(FieldUsername, msgUsernameRequired)
	}

	var nodes int
	rawNodes, ok := lookup(row, FieldNodes)
	if !ok {
		fail(FieldNodes, msgNodesRequired)
	} else if n, msg := parseNodes(rawNodes); msg != "" {
		fail(FieldNodes, msg)
	} else {
		nodes = n
	}

	var email *string
	if value, ok := lookup(row, FieldEmail); ok {
		if !emailRegex.MatchString(value) {
			fail(FieldEmail, msgInvalidEmail)
		} else {
			email = &value
		}
	}

	if len(errs) > 0 {
		return models.ImportRecord{}, errs
	}
	return models.ImportRecord{
		Username:      username,
		Email:         email,
		AssignedNodes: nodes,
		ImportStatus:  models.ImportStatusPending,
		Status:        models.StatusActive,
	}, nil
}

// lookup resolves field by trying its aliases in order against the row's
// cells in column order. The first non-empty value wins.
func lookup(row RawRow, field string) (string, bool) {
	for _, alias := range columnAliases {
		if alias.Field != field {
			continue
		}
		for _, header := range alias.Headers {
			for _, cell := range row {
				if normalizeHeader(cell.Header) != header {
					continue
				}
				if value := strings.TrimSpace(cell.Value); value != "" {
					return value, true
				}
			}
		}
	}
	return "", false
}

func normalizeHeader(header string) string {
	return headerSeparator.ReplaceAllString(strings.ToLower(strings.TrimSpace(header)), " ")
}

func parseNodes(raw string) (int, string) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, msgNodesNotNumber
	}
	if math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, msgNodesNotWhole
	}
	return int(f), ""
}
