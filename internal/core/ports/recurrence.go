package ports

import (
	"context"
	"time"

	"typeb/internal/core/domain"
)

// TemplateRepository persists recurrence templates. The engine is the sole
// writer of LastScheduledAt; AdvanceSchedule moves it forward only when the
// stored value still matches, so redundant materialization attempts for the
// same occurrence collapse to a no-op.
type TemplateRepository interface {
	Create(ctx context.Context, tpl domain.RecurrenceTemplate) (domain.RecurrenceTemplate, error)
	Get(ctx context.Context, id string) (domain.RecurrenceTemplate, error)
	ListActive(ctx context.Context) ([]domain.RecurrenceTemplate, error)
	AdvanceSchedule(ctx context.Context, id string, from, to time.Time) (bool, error)
	Deactivate(ctx context.Context, id string) error
}

type RecurrenceService interface {
	RegisterTemplate(ctx context.Context, tpl domain.RecurrenceTemplate) (domain.RecurrenceTemplate, error)
	MaterializeDue(ctx context.Context, now time.Time) ([]domain.Task, error)
}
