package recurrence

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

// Engine materializes concrete task occurrences from recurrence templates.
// Occurrences are generated either when the previous one is completed (via
// the event bus) or when their scheduled date arrives (MaterializeDue). Both
// paths funnel through the template repository's compare-and-advance on
// LastScheduledAt, so they can never double-produce an occurrence for the
// same scheduled date.
type Engine struct {
	templates ports.TemplateRepository
	tasks     ports.TaskRepository
	now       func() time.Time
}

func NewEngine(templates ports.TemplateRepository, tasks ports.TaskRepository) *Engine {
	return &Engine{
		templates: templates,
		tasks:     tasks,
		now:       time.Now,
	}
}

var _ ports.RecurrenceService = (*Engine)(nil)

func (e *Engine) RegisterTemplate(ctx context.Context, tpl domain.RecurrenceTemplate) (domain.RecurrenceTemplate, error) {
	if err := tpl.Pattern.Validate(); err != nil {
		return domain.RecurrenceTemplate{}, err
	}
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	tpl.Active = true
	now := e.now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	return e.templates.Create(ctx, tpl)
}

// Subscribe attaches the engine to the domain event stream: completing a
// recurring occurrence schedules the next one.
func (e *Engine) Subscribe(bus ports.EventBus) {
	bus.Subscribe(func(event domain.TaskTransitioned) {
		if event.ToStatus != domain.TaskStatusCompleted || event.TemplateID == nil {
			return
		}
		ctx := context.Background()
		if _, err := e.OnTaskCompleted(ctx, *event.TemplateID); err != nil {
			zap.L().Error("failed to schedule next occurrence",
				zap.String("template_id", *event.TemplateID),
				zap.String("task_id", event.TaskID),
				zap.Error(err),
			)
		}
	})
}

// OnTaskCompleted advances the template one occurrence past its last
// scheduled date and creates the task for it. The next date is computed from
// the original schedule, never from the completion time, so late completions
// do not drift the schedule.
func (e *Engine) OnTaskCompleted(ctx context.Context, templateID string) (domain.Task, error) {
	tpl, err := e.templates.Get(ctx, templateID)
	if err != nil {
		return domain.Task{}, err
	}
	if !tpl.Active {
		return domain.Task{}, domain.ErrTemplateNotFound
	}

	next := NextOccurrence(tpl.Pattern, tpl.LastScheduledAt)
	advanced, err := e.templates.AdvanceSchedule(ctx, tpl.ID, tpl.LastScheduledAt, next)
	if err != nil {
		return domain.Task{}, err
	}
	if !advanced {
		// Another materialization already claimed this occurrence.
		return domain.Task{}, domain.ErrAlreadyProcessed
	}

	return e.createOccurrence(ctx, tpl, next)
}

// MaterializeDue generates, for every active template, the occurrence whose
// scheduled date has arrived. Calling it twice for the same date is a no-op:
// the compare-and-advance only succeeds for the first caller. If several
// dates were missed (process downtime), the schedule skips forward and only
// the most recent due occurrence is materialized.
func (e *Engine) MaterializeDue(ctx context.Context, now time.Time) ([]domain.Task, error) {
	templates, err := e.templates.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var created []domain.Task
	for _, tpl := range templates {
		task, ok, err := e.materializeTemplate(ctx, tpl, now)
		if err != nil {
			// One broken template must not starve the rest.
			zap.L().Error("failed to materialize occurrence",
				zap.String("template_id", tpl.ID),
				zap.Error(err),
			)
			continue
		}
		if ok {
			created = append(created, task)
		}
	}
	return created, nil
}

func (e *Engine) materializeTemplate(ctx context.Context, tpl domain.RecurrenceTemplate, now time.Time) (domain.Task, bool, error) {
	next := NextOccurrence(tpl.Pattern, tpl.LastScheduledAt)
	if next.After(now) {
		return domain.Task{}, false, nil
	}
	// Collapse a backlog of missed dates into the newest due one.
	for {
		candidate := NextOccurrence(tpl.Pattern, next)
		if candidate.After(now) {
			break
		}
		next = candidate
	}

	advanced, err := e.templates.AdvanceSchedule(ctx, tpl.ID, tpl.LastScheduledAt, next)
	if err != nil {
		return domain.Task{}, false, err
	}
	if !advanced {
		return domain.Task{}, false, nil
	}

	task, err := e.createOccurrence(ctx, tpl, next)
	if err != nil {
		return domain.Task{}, false, err
	}
	return task, true, nil
}

func (e *Engine) createOccurrence(ctx context.Context, tpl domain.RecurrenceTemplate, scheduledAt time.Time) (domain.Task, error) {
	now := e.now().UTC()
	due := scheduledAt
	task := domain.Task{
		ID:               uuid.NewString(),
		FamilyID:         tpl.FamilyID,
		Title:            tpl.Title,
		Description:      tpl.Description,
		AssignedTo:       tpl.AssignedTo,
		AssignedBy:       tpl.AssignedBy,
		CreatedBy:        tpl.AssignedBy,
		Status:           domain.TaskStatusPending,
		Priority:         tpl.Priority,
		DueDate:          &due,
		RequiresPhoto:    tpl.RequiresPhoto,
		ValidationStatus: domain.ValidationNone,
		IsRecurring:      true,
		TemplateID:       &tpl.ID,
		ReminderEnabled:  tpl.ReminderEnabled,
		Points:           tpl.Points,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if tpl.CategoryID != nil {
		task.Category = &domain.Category{ID: *tpl.CategoryID}
	}
	return e.tasks.Create(ctx, task)
}

// NextOccurrence computes the first eligible occurrence strictly after the
// given one.
//
// Daily patterns step forward interval days. Weekly patterns pick the
// smallest configured weekday strictly after current within the same week;
// when none remain, they wrap to the earliest configured weekday in the week
// interval weeks later.
func NextOccurrence(p domain.RecurrencePattern, current time.Time) time.Time {
	switch p.Frequency {
	case domain.FrequencyDaily:
		return p.TimeOfDay.At(current.AddDate(0, 0, p.Interval))
	case domain.FrequencyWeekly:
		return p.TimeOfDay.At(nextWeeklyDate(p, current))
	}
	// Validate rejects anything else at registration time.
	return p.TimeOfDay.At(current.AddDate(0, 0, 1))
}

func nextWeeklyDate(p domain.RecurrencePattern, current time.Time) time.Time {
	days := append([]time.Weekday(nil), p.DaysOfWeek...)
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	for _, d := range days {
		if d > current.Weekday() {
			return current.AddDate(0, 0, int(d-current.Weekday()))
		}
	}

	// Wrap to the first configured day, interval weeks ahead: back up to this
	// week's start, jump interval weeks, then land on the earliest weekday.
	weekStart := current.AddDate(0, 0, -int(current.Weekday()))
	return weekStart.AddDate(0, 0, 7*p.Interval+int(days[0]))
}
