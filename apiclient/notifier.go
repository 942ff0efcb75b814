package apiclient

import "go.uber.org/zap"

// Notifier surfaces failures to whoever drives the client, a terminal or a log.
type Notifier interface {
	// Notify reports a failed request in its category.
	Notify(category Category, message string)
	// SessionExpired asks the application to send the user back to login.
	SessionExpired()
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(category Category, message string) {
	n.logger.Warn("Request failed", zap.String("category", string(category)), zap.String("message", message))
}

func (n *LogNotifier) SessionExpired() {
	n.logger.Warn("Session expired, login required")
}
