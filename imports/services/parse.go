package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrNoSheets        = errors.New("no sheets found in the file")
	ErrNoHeader        = errors.New("no header row found")
)

// FileError reports a file that could not be read as a table.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file parsing failed for %s: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Cell is one header/value pair of a spreadsheet row.
type Cell struct {
	Header string
	Value  string
}

// RawRow holds a data row's cells in column order, untouched by validation.
type RawRow []Cell

// ParseFile opens path and parses it according to its extension.
func ParseFile(path string) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Name: filepath.Base(path), Err: err}
	}
	defer f.Close()
	return Parse(filepath.Base(path), f)
}

// Parse reads the first sheet of a workbook, or a CSV file, into raw rows.
// The first row holds the headers; blank rows are skipped.
func Parse(name string, r io.Reader) ([]RawRow, error) {
	var (
		table [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx":
		table, err = readWorkbook(r)
	case ".csv":
		table, err = readCSV(r)
	default:
		err = fmt.Errorf("%w %q", ErrUnsupportedFile, filepath.Ext(name))
	}
	if err != nil {
		return nil, &FileError{Name: name, Err: err}
	}

	rows, err := toRawRows(table)
	if err != nil {
		return nil, &FileError{Name: name, Err: err}
	}
	return rows, nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func toRawRows(table [][]string) ([]RawRow, error) {
	start := -1
	for i, row := range table {
		if !isBlank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	headers := table[start]
	rows := []RawRow{}
	for _, values := range table[start+1:] {
		if isBlank(values) {
			continue
		}
		row := make(RawRow, 0, len(headers))
		for col, header := range headers {
			if strings.TrimSpace(header) == "" {
				continue
			}
			var value string
			if col < len(values) {
				value = values[col]
			}
			row = append(row, Cell{Header: header, Value: value})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
