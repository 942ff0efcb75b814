package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReportCleanupSchedule runs report housekeeping every day at 1 AM.
const ReportCleanupSchedule = "0 1 * * *"

const (
	maxRetries = 3
	retryDelay = 2 * time.Minute
)

// CleanupExpiredFile removes filePath when it is older than ttl and reports whether it did.
func CleanupExpiredFile(filePath string, ttl time.Duration, now time.Time) (bool, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return false, fmt.Errorf("error checking file: %w", err)
	}
	if now.Sub(info.ModTime()) <= ttl {
		return false, nil
	}
	if err := os.Remove(filePath); err != nil {
		return false, fmt.Errorf("error deleting expired file: %w", err)
	}
	return true, nil
}

// CleanupExpiredReports deletes report files in dir older than ttl. A missing
// dir means there is nothing to clean.
func CleanupExpiredReports(dir string, ttl time.Duration, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("error reading reports directory: %w", err)
	}

	now := time.Now()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		deleted, err := CleanupExpiredFile(path, ttl, now)
		if err != nil {
			logger.Warn("Error cleaning up report", zap.String("file", path), zap.Error(err))
			continue
		}
		if deleted {
			removed++
			logger.Debug("Expired report deleted", zap.String("file", path))
		}
	}
	return removed, nil
}

// ScheduleReportCleanup registers daily report cleanup on c, retrying failed runs.
func ScheduleReportCleanup(c *cron.Cron, dir string, ttl time.Duration, logger *zap.Logger) (cron.EntryID, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return c.AddFunc(ReportCleanupSchedule, func() {
		logger.Info("Running scheduled report cleanup", zap.String("dir", dir))

		for attempt := 1; attempt <= maxRetries; attempt++ {
			removed, err := CleanupExpiredReports(dir, ttl, logger)
			if err == nil {
				logger.Info("Report cleanup finished", zap.Int("removed", removed))
				return
			}
			logger.Error("Report cleanup failed", zap.Int("attempt", attempt), zap.Error(err))
			if attempt < maxRetries {
				time.Sleep(retryDelay)
			}
		}
		logger.Error("Report cleanup failed after retries", zap.Int("retries", maxRetries))
	})
}
