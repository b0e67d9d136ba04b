package ports

import (
	"context"

	"typeb/internal/core/domain"
)

// Notifier receives reminder events; delivery (push tokens, platform APIs)
// lives entirely behind this port.
type Notifier interface {
	Notify(ctx context.Context, event domain.ReminderEvent) error
}

// RoleProvider answers capability checks against the family roster.
type RoleProvider interface {
	IsManager(ctx context.Context, memberID, familyID string) (bool, error)
	// Manager returns the member id escalated reminders are re-targeted to.
	Manager(ctx context.Context, familyID string) (string, error)
}

// PointsLedger records point awards. Callers guarantee at-most-once per
// task; reason carries the task id for auditability.
type PointsLedger interface {
	Award(ctx context.Context, memberID string, points int, reason string) error
}

// EventBus carries domain events between components in-process.
type EventBus interface {
	Publish(event domain.TaskTransitioned)
	Subscribe(fn func(event domain.TaskTransitioned))
}
