package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

// Options tune the reminder/escalation policy.
type Options struct {
	// TickInterval is how often Run polls the store.
	TickInterval time.Duration
	// ReminderOffset moves the initial (level 0) reminder before the due
	// time; zero means "remind at due time".
	ReminderOffset time.Duration
	// GracePeriod is how long past due (or past the previous escalation) a
	// task may sit before the level is bumped.
	GracePeriod time.Duration
	// MaxLevel caps escalation; past it the task stays overdue silently.
	MaxLevel int
}

func DefaultOptions() Options {
	return Options{
		TickInterval:   time.Minute,
		ReminderOffset: 0,
		GracePeriod:    30 * time.Minute,
		MaxLevel:       3,
	}
}

// Scheduler fires reminders and escalations for overdue tasks. It holds no
// per-task timers: every tick re-derives reminder state from the persisted
// last_reminder_sent/escalation_level columns, which makes it safe across
// restarts and across concurrent instances (the revision-checked write picks
// a single winner per reminder, the loser simply skips emission).
type Scheduler struct {
	tasks        ports.TaskRepository
	roles        ports.RoleProvider
	notifier     ports.Notifier
	materializer ports.RecurrenceService
	opts         Options
}

func New(tasks ports.TaskRepository, roles ports.RoleProvider, notifier ports.Notifier, materializer ports.RecurrenceService, opts Options) *Scheduler {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Minute
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 30 * time.Minute
	}
	if opts.MaxLevel <= 0 {
		opts.MaxLevel = 3
	}
	return &Scheduler{
		tasks:        tasks,
		roles:        roles,
		notifier:     notifier,
		materializer: materializer,
		opts:         opts,
	}
}

// Run drives the tick loop until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	zap.L().Info("reminder scheduler started",
		zap.Duration("tick_interval", s.opts.TickInterval),
		zap.Duration("grace_period", s.opts.GracePeriod),
		zap.Int("max_level", s.opts.MaxLevel),
	)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("reminder scheduler stopped")
			return
		case now := <-ticker.C:
			if _, err := s.Tick(ctx, now); err != nil {
				zap.L().Error("reminder tick failed", zap.Error(err))
			}
		}
	}
}

// Tick evaluates every active reminder-enabled task once and returns the
// reminder events that fired. A failure on one task is logged and does not
// stop the rest of the pass.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) ([]domain.ReminderEvent, error) {
	// Materialize due recurring occurrences first so their reminders are
	// considered in the same pass.
	if s.materializer != nil {
		if _, err := s.materializer.MaterializeDue(ctx, now); err != nil {
			zap.L().Error("failed to materialize due occurrences", zap.Error(err))
		}
	}

	tasks, err := s.tasks.ActiveWithReminders(ctx, now)
	if err != nil {
		return nil, err
	}

	var fired []domain.ReminderEvent
	for _, task := range tasks {
		event, ok, err := s.evaluate(ctx, task, now)
		if err != nil {
			zap.L().Error("failed to evaluate reminder",
				zap.String("task_id", task.ID),
				zap.Error(err),
			)
			continue
		}
		if ok {
			fired = append(fired, event)
		}
	}
	return fired, nil
}

// evaluate fires at most one reminder for the task: the highest eligible
// level not yet sent. The persisted write happens before notification, so a
// redundant Tick (crash, second instance) can never re-fire a level.
func (s *Scheduler) evaluate(ctx context.Context, task domain.Task, now time.Time) (domain.ReminderEvent, bool, error) {
	if task.DueDate == nil || !task.ReminderEnabled || task.Status.IsTerminal() {
		return domain.ReminderEvent{}, false, nil
	}

	level, due := s.eligibleLevel(*task.DueDate, now)
	if !due {
		return domain.ReminderEvent{}, false, nil
	}
	if task.LastReminderSent != nil && task.EscalationLevel >= level {
		// This level (or a later one) already fired.
		return domain.ReminderEvent{}, false, nil
	}

	target := task.AssignedTo
	if level > 0 {
		manager, err := s.roles.Manager(ctx, task.FamilyID)
		if err != nil {
			return domain.ReminderEvent{}, false, err
		}
		target = manager
	}

	sentAt := now.UTC()
	updated, err := s.tasks.Update(ctx, task.ID, task.Revision, domain.TaskPatch{
		LastReminderSent: &sentAt,
		EscalationLevel:  &level,
	})
	if errors.Is(err, domain.ErrStoreConflict) {
		// The task moved under us: completed, cancelled, or another scheduler
		// instance claimed the reminder. Next tick re-derives from scratch.
		return domain.ReminderEvent{}, false, nil
	}
	if err != nil {
		return domain.ReminderEvent{}, false, err
	}

	event := domain.ReminderEvent{
		TaskID:          updated.ID,
		FamilyID:        updated.FamilyID,
		TargetMemberID:  target,
		EscalationLevel: level,
		FiredAt:         sentAt,
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		// The level is burned either way; delivery retries are the
		// transport's concern.
		zap.L().Error("failed to hand off reminder",
			zap.String("task_id", updated.ID),
			zap.Int("level", level),
			zap.Error(err),
		)
	}
	return event, true, nil
}

// eligibleLevel returns the highest escalation level whose fire time has
// passed. Level 0 fires at due minus the configured offset; level n fires n
// grace periods past due, capped at MaxLevel.
func (s *Scheduler) eligibleLevel(dueDate, now time.Time) (int, bool) {
	if now.Before(dueDate.Add(-s.opts.ReminderOffset)) {
		return 0, false
	}
	overdue := now.Sub(dueDate)
	level := int(overdue / s.opts.GracePeriod)
	if overdue <= 0 {
		level = 0
	}
	if level > s.opts.MaxLevel {
		level = s.opts.MaxLevel
	}
	return level, true
}
