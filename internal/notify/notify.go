// Package notify surfaces user-visible notifications. Remote failures and
// stream hiccups become transient notices rather than errors that halt the
// engine.
package notify

import (
	"log/slog"
	"time"

	"github.com/vesselwatch/tracker/internal/queue"
)

// Severity ranks a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one user-visible notice.
type Notification struct {
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier accepts user-visible notices.
type Notifier interface {
	Notify(severity Severity, message string)
}

// Service queues notifications for the consumer to drain and mirrors each
// one to the log.
type Service struct {
	pending *queue.Queue[Notification]
	logger  *slog.Logger
}

// NewService creates a notification service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		pending: queue.New[Notification](),
		logger:  logger,
	}
}

// Notify records a notice and logs it at the matching level.
func (s *Service) Notify(severity Severity, message string) {
	s.pending.Push(Notification{
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})

	switch severity {
	case SeverityError:
		s.logger.Error(message)
	case SeverityWarning:
		s.logger.Warn(message)
	default:
		s.logger.Info(message)
	}
}

// Drain returns all pending notifications and clears the queue.
func (s *Service) Drain() []Notification {
	return s.pending.GetAndEmpty()
}

// Pending returns the number of undelivered notifications.
func (s *Service) Pending() int {
	return s.pending.Len()
}
