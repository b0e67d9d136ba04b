package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

// transitionRetries bounds how often a transition is re-applied after the
// store reports a revision conflict before giving up.
const transitionRetries = 3

// TaskService is the task state machine. Every successful transition is
// persisted through the repository with revision checking and then emitted
// on the event bus, so downstream components observe transitions in store
// commit order rather than client wall-clock order.
type TaskService struct {
	taskRepository ports.TaskRepository
	bus            ports.EventBus
	ledger         ports.PointsLedger
	registrar      TemplateRegistrar
	now            func() time.Time
}

// TemplateRegistrar is the slice of the recurrence engine the task service
// needs at creation time.
type TemplateRegistrar interface {
	RegisterTemplate(ctx context.Context, tpl domain.RecurrenceTemplate) (domain.RecurrenceTemplate, error)
}

func NewTaskService(taskRepository ports.TaskRepository, bus ports.EventBus, ledger ports.PointsLedger, registrar TemplateRegistrar) *TaskService {
	return &TaskService{
		taskRepository: taskRepository,
		bus:            bus,
		ledger:         ledger,
		registrar:      registrar,
		now:            time.Now,
	}
}

var _ ports.TaskService = (*TaskService)(nil)

func (s *TaskService) CreateTask(ctx context.Context, input domain.CreateTaskInput) (domain.Task, error) {
	now := s.now().UTC()
	task := domain.Task{
		ID:               uuid.NewString(),
		FamilyID:         input.FamilyID,
		Title:            input.Title,
		Description:      input.Description,
		AssignedTo:       input.AssignedTo,
		AssignedBy:       input.AssignedBy,
		CreatedBy:        input.CreatedBy,
		Status:           domain.TaskStatusPending,
		Priority:         input.Priority,
		DueDate:          input.DueDate,
		RequiresPhoto:    input.RequiresPhoto,
		ValidationStatus: domain.ValidationNone,
		ReminderEnabled:  input.ReminderEnabled,
		Points:           input.Points,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if input.CategoryID != nil {
		task.Category = &domain.Category{ID: *input.CategoryID}
	}
	if task.Priority == "" {
		task.Priority = domain.TaskPriorityMedium
	}

	if input.Recurrence != nil {
		if err := input.Recurrence.Validate(); err != nil {
			return domain.Task{}, err
		}
		if task.DueDate == nil {
			// A recurring task needs an anchor date for the schedule.
			return domain.Task{}, domain.ErrInvalidRecurrence
		}
		tpl, err := s.registrar.RegisterTemplate(ctx, domain.RecurrenceTemplate{
			FamilyID:        input.FamilyID,
			Title:           input.Title,
			Description:     input.Description,
			CategoryID:      input.CategoryID,
			AssignedTo:      input.AssignedTo,
			AssignedBy:      input.AssignedBy,
			Priority:        task.Priority,
			RequiresPhoto:   input.RequiresPhoto,
			ReminderEnabled: input.ReminderEnabled,
			Points:          input.Points,
			Pattern:         *input.Recurrence,
			LastScheduledAt: *task.DueDate,
		})
		if err != nil {
			return domain.Task{}, err
		}
		task.IsRecurring = true
		task.TemplateID = &tpl.ID
	}

	return s.taskRepository.Create(ctx, task)
}

func (s *TaskService) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return s.taskRepository.Get(ctx, id)
}

func (s *TaskService) ListFamilyTasks(ctx context.Context, familyID string) ([]domain.Task, error) {
	return s.taskRepository.QueryByFamily(ctx, familyID)
}

func (s *TaskService) Start(ctx context.Context, taskID, actor string) (domain.Task, error) {
	return s.transition(ctx, taskID, domain.EventStart, actor, nil)
}

func (s *TaskService) Complete(ctx context.Context, taskID, actor string, photoURL *string) (domain.Task, error) {
	return s.transition(ctx, taskID, domain.EventComplete, actor, photoURL)
}

func (s *TaskService) Cancel(ctx context.Context, taskID, actor string) (domain.Task, error) {
	return s.transition(ctx, taskID, domain.EventCancel, actor, nil)
}

// Reopen is system-invoked by the validation workflow after a rejection; it
// is not exposed to members directly.
func (s *TaskService) Reopen(ctx context.Context, taskID string) (domain.Task, error) {
	return s.transition(ctx, taskID, domain.EventReopen, "system", nil)
}

// transition loads the task, applies the state machine rules, and persists
// the outcome against the loaded revision. A revision conflict means another
// writer committed first; the intent is re-applied against fresh state, so a
// stale client cannot clobber a later committed transition.
func (s *TaskService) transition(ctx context.Context, taskID string, event domain.TransitionEvent, actor string, photoURL *string) (domain.Task, error) {
	var lastErr error
	for attempt := 0; attempt < transitionRetries; attempt++ {
		task, err := s.taskRepository.Get(ctx, taskID)
		if err != nil {
			return domain.Task{}, err
		}

		patch, noop, err := domain.BuildTransitionPatch(task, event, actor, photoURL, s.now().UTC())
		if err != nil {
			return task, err
		}
		if noop {
			return task, nil
		}

		updated, err := s.taskRepository.Update(ctx, task.ID, task.Revision, patch)
		if errors.Is(err, domain.ErrStoreConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return domain.Task{}, err
		}

		s.afterTransition(ctx, task.Status, updated, event, actor)
		return updated, nil
	}
	return domain.Task{}, lastErr
}

func (s *TaskService) afterTransition(ctx context.Context, fromStatus domain.TaskStatus, task domain.Task, event domain.TransitionEvent, actor string) {
	if event == domain.EventComplete && !task.RequiresPhoto {
		s.awardPoints(ctx, task)
	}

	s.bus.Publish(domain.TaskTransitioned{
		TaskID:     task.ID,
		FamilyID:   task.FamilyID,
		TemplateID: task.TemplateID,
		FromStatus: fromStatus,
		ToStatus:   task.Status,
		Actor:      actor,
		Revision:   task.Revision,
		OccurredAt: s.now().UTC(),
	})
}

// awardPoints pushes the task's points to the ledger. The caller guarantees
// at-most-once per task; a ledger failure is logged, not propagated, since
// the transition itself is already durable.
func (s *TaskService) awardPoints(ctx context.Context, task domain.Task) {
	if task.Points <= 0 || task.CompletedBy == nil {
		return
	}
	if err := s.ledger.Award(ctx, *task.CompletedBy, task.Points, task.ID); err != nil {
		zap.L().Error("failed to award points",
			zap.String("task_id", task.ID),
			zap.String("member_id", *task.CompletedBy),
			zap.Int("points", task.Points),
			zap.Error(err),
		)
	}
}
