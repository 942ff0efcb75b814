package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"zaivio-client/models"

	"go.uber.org/zap"
)

// Outcome is the result of a processed file. Exactly one of the fields is set.
type Outcome struct {
	Result           *models.ImportResult
	ValidationErrors []models.ValidationError
}

// NeedsReport reports whether anything in the outcome needs the user's attention.
func (o *Outcome) NeedsReport() bool {
	if len(o.ValidationErrors) > 0 {
		return true
	}
	return o.Result != nil && len(o.Result.Failed) > 0
}

type Pipeline struct {
	users  BulkCreator
	logger *zap.Logger
}

func NewPipeline(users BulkCreator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{users: users, logger: logger}
}

// Submit sends valid records as one batch. An empty batch is not sent.
func (p *Pipeline) Submit(ctx context.Context, records []models.ImportRecord) (*models.ImportResult, error) {
	if len(records) == 0 {
		return &models.ImportResult{Success: []models.ImportRecord{}, Failed: []models.FailedRecord{}}, nil
	}

	resp, err := p.users.BulkCreate(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	result, err := reconcile(records, resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}

	p.logger.Info("Bulk user creation completed",
		zap.Int("total", result.Summary.Total),
		zap.Int("succeeded", len(result.Success)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// Process parses, validates and submits one file. Validation errors stop the
// pipeline before anything is sent.
func (p *Pipeline) Process(ctx context.Context, name string, r io.Reader) (*Outcome, error) {
	rows, err := Parse(name, r)
	if err != nil {
		return nil, err
	}

	report := Validate(rows)
	if len(report.Errors) > 0 {
		p.logger.Warn("Import file failed validation",
			zap.String("file", name),
			zap.Int("rows", len(rows)),
			zap.Int("errors", len(report.Errors)),
		)
		return &Outcome{ValidationErrors: report.Errors}, nil
	}

	result, err := p.Submit(ctx, report.ValidRecords)
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: result}, nil
}

func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Name: filepath.Base(path), Err: err}
	}
	defer f.Close()
	return p.Process(ctx, filepath.Base(path), f)
}
