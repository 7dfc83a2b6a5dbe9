// Package notify defines the outcome-reporting sink. The core reports
// counts and notices through this interface; how messages reach the user
// (status line, popup, log) is the host's business.
package notify

import "log/slog"

// Level classifies a notification.
type Level int

// Notification levels.
const (
	Info Level = iota
	Warn
	Error
)

// Notifier receives user-facing outcome messages.
type Notifier interface {
	Notify(level Level, msg string)
}

// Slog forwards notifications to a structured logger.
type Slog struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (s Slog) Notify(level Level, msg string) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch level {
	case Warn:
		logger.Warn(msg)
	case Error:
		logger.Error(msg)
	default:
		logger.Info(msg)
	}
}

// Discard drops every notification. Useful in tests.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(Level, string) {}
