package services

import (
	"errors"
	"fmt"
	"path/filepath"

	"zaivio-client/utils"

	"github.com/google/uuid"
)

var ErrNothingToReport = errors.New("outcome has no errors to report")

// WriteReport saves the outcome's validation errors or failed records as a
// workbook in dir and returns its path.
func WriteReport(dir string, outcome *Outcome) (string, error) {
	if outcome == nil || !outcome.NeedsReport() {
		return "", ErrNothingToReport
	}

	var (
		sheet   string
		headers []string
		rows    [][]any
		prefix  string
	)
	if len(outcome.ValidationErrors) > 0 {
		sheet, prefix = "Validation Errors", "validation_errors"
		headers = []string{"Row", "Field", "Message"}
		for _, e := range outcome.ValidationErrors {
			rows = append(rows, []any{e.Row, e.Field, e.Message})
		}
	} else {
		sheet, prefix = "Failed Records", "failed_records"
		headers = []string{"Username", "Email", "AssignedNodes", "Error"}
		for _, f := range outcome.Result.Failed {
			rows = append(rows, []any{f.Data.Username, f.Data.EmailValue(), f.Data.AssignedNodes, f.Error})
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.xlsx", prefix, uuid.NewString()))
	if err := utils.WriteSheet(path, sheet, headers, rows); err != nil {
		return "", err
	}
	return path, nil
}
