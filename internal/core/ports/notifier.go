package ports

import "context"

// Notification is one outbound message about a session or recipe outcome.
type Notification struct {
	Title   string
	Text    string
	Success bool
}

// Notifier is a best-effort one-way message sink. Implementations must not
// let their own failures mask or replace the primary session outcome.
//
//go:generate mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
