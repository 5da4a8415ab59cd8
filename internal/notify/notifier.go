package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/trentd187/league-scoring/internal/models"
)

// Notification is the payload of one announcement.
type Notification struct {
	Kind  models.NotificationKind `json:"kind"`
	Title string                  `json:"title"`
	Body  string                  `json:"body"`
	Link  string                  `json:"link"`
}

// Notifier delivers announcements. Delivery is best-effort: the caller logs a failure
// and carries on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes each notification to the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.Logger.InfoContext(ctx, "notification",
		"kind", n.Kind,
		"title", n.Title,
		"body", n.Body,
		"link", n.Link,
	)
	return nil
}

// Multi fans a notification out to several notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, target := range m {
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) error { return nil }
