package pomodoro

import (
	"context"
	"log"
)

type Permission string

const (
	PermissionGranted     Permission = "granted"
	PermissionDefault     Permission = "default"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

// Notifier delivers system notifications. Permission reports the current
// grant; PermissionDefault means the user has not been asked yet.
type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(ctx context.Context, title, body string) error
}

const (
	focusCompleteTitle = "Focus session complete"
	focusCompleteBody  = "Time for a break!"
)

// LogNotifier writes notifications to a logger. It is always granted.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Permission() Permission {
	return PermissionGranted
}

func (n LogNotifier) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (n LogNotifier) Notify(_ context.Context, title, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("notification: %s: %s", title, body)
	return nil
}

// deliver asks for permission when undetermined and skips silently when it
// is refused. Failures are logged and never returned.
func deliver(ctx context.Context, n Notifier, logger *log.Logger, title, body string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("pomodoro: notifier panicked: %v", r)
		}
	}()

	switch n.Permission() {
	case PermissionGranted:
	case PermissionDefault:
		perm, err := n.RequestPermission(ctx)
		if err != nil {
			logger.Printf("pomodoro: notification permission request failed: %v", err)
			return
		}
		if perm != PermissionGranted {
			return
		}
	default:
		return
	}

	if err := n.Notify(ctx, title, body); err != nil {
		logger.Printf("pomodoro: notification failed: %v", err)
	}
}
