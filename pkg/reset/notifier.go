package reset

import (
	"context"

	"github.com/orgkit/gatehouse/pkg/observability"
)

// Notifier receives the RequestSubmitted domain event so administrators
// learn about new requests. Delivery is best-effort: a notifier failure
// never fails the submit that produced the event.
type Notifier interface {
	NotifySubmitted(ctx context.Context, event RequestSubmitted) error
}

// LogNotifier records submissions in the service log. It stands in until
// the platform's real notification channel (mail, chat webhook) is wired.
type LogNotifier struct {
	log *observability.Logger
}

// NewLogNotifier creates a notifier that writes to the service log
func NewLogNotifier(log *observability.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// NotifySubmitted logs the submission event
func (n *LogNotifier) NotifySubmitted(ctx context.Context, event RequestSubmitted) error {
	n.log.WithFields(map[string]interface{}{
		"request_id":   event.RequestID.String(),
		"user_matched": event.UserMatched,
	}).Info("credential reset requested")
	return nil
}

// NopNotifier discards events (tests, tooling)
type NopNotifier struct{}

// NotifySubmitted discards the event
func (NopNotifier) NotifySubmitted(ctx context.Context, event RequestSubmitted) error {
	return nil
}
