package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"zaivio-client/apiclient"
	"zaivio-client/imports/services"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeUserImport = "users:import"

const (
	importMaxRetry = 3
	importTimeout  = 10 * time.Minute
)

type UserImportPayload struct {
	Path        string `json:"path"`
	NotifyEmail string `json:"notify_email,omitempty"`
}

func NewUserImportTask(payload UserImportPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.Path) == "" {
		return nil, errors.New("import path is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeUserImport, data, asynq.MaxRetry(importMaxRetry), asynq.Timeout(importTimeout)), nil
}

// Enqueue schedules an import of the file at payload.Path.
func Enqueue(ctx context.Context, client *asynq.Client, payload UserImportPayload) (*asynq.TaskInfo, error) {
	task, err := NewUserImportTask(payload)
	if err != nil {
		return nil, err
	}
	return client.EnqueueContext(ctx, task)
}

type fileProcessor interface {
	ProcessFile(ctx context.Context, path string) (*services.Outcome, error)
}

type reportMailer interface {
	Configured() bool
	SendEmail(to, subject, body, attachmentPath string) error
}

type Handler struct {
	pipeline  fileProcessor
	mailer    reportMailer
	reportDir string
	logger    *zap.Logger
}

func NewHandler(pipeline fileProcessor, mailer reportMailer, reportDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{pipeline: pipeline, mailer: mailer, reportDir: reportDir, logger: logger}
}

func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.Handle(TypeUserImport, h)
}

// ProcessTask imports one file. Only failures that never got a response are
// retried. Once the server answered, even with a 5xx, some users may already
// exist, and a resubmitted file would report them as duplicates.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload UserImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid import payload: %v: %w", err, asynq.SkipRetry)
	}
	log := h.logger.With(zap.String("file", payload.Path))
	log.Info("Processing user import")

	outcome, err := h.pipeline.ProcessFile(ctx, payload.Path)
	if err != nil {
		var fileErr *services.FileError
		var apiErr *apiclient.ApiError
		switch {
		case errors.As(err, &fileErr), errors.Is(err, apiclient.ErrSessionExpired):
			log.Error("User import cannot be processed", zap.Error(err))
			h.notify(payload.NotifyEmail, "User import failed", err.Error(), "")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		case errors.As(err, &apiErr) && apiErr.Status >= 400:
			log.Error("User import rejected", zap.Int("status", apiErr.Status), zap.Error(err))
			h.notify(payload.NotifyEmail, "User import failed", err.Error(), "")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		// Duplicates from a batch the server partly handled come back as per-record failures.
		log.Warn("User import failed, will retry", zap.Error(err))
		return err
	}

	var reportPath string
	if outcome.NeedsReport() {
		reportPath, err = services.WriteReport(h.reportDir, outcome)
		if err != nil {
			log.Error("Failed to write import report", zap.Error(err))
		}
	}

	subject, body := summarize(payload.Path, outcome)
	h.notify(payload.NotifyEmail, subject, body, reportPath)

	if len(outcome.ValidationErrors) > 0 {
		log.Warn("User import failed validation", zap.Int("errors", len(outcome.ValidationErrors)), zap.String("report", reportPath))
		return fmt.Errorf("%d validation errors: %w", len(outcome.ValidationErrors), asynq.SkipRetry)
	}

	log.Info("User import completed",
		zap.Int("succeeded", len(outcome.Result.Success)),
		zap.Int("failed", len(outcome.Result.Failed)),
		zap.String("report", reportPath),
	)
	return nil
}

func (h *Handler) notify(to, subject, body, attachment string) {
	if to == "" || h.mailer == nil || !h.mailer.Configured() {
		return
	}
	if err := h.mailer.SendEmail(to, subject, body, attachment); err != nil {
		h.logger.Warn("Failed to email import report", zap.String("to", to), zap.Error(err))
	}
}

func summarize(path string, outcome *services.Outcome) (string, string) {
	if len(outcome.ValidationErrors) > 0 {
		return "User import needs corrections",
			fmt.Sprintf("%s was not imported: %d validation errors. Nothing was submitted; fix the file and upload it again.",
				path, len(outcome.ValidationErrors))
	}
	r := outcome.Result
	return "User import completed",
		fmt.Sprintf("%s: %d of %d users created, %d failed.", path, len(r.Success), len(r.Success)+len(r.Failed), len(r.Failed))
}
