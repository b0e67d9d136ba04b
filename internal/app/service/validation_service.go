package service

import (
	"context"

	"go.uber.org/zap"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

// ValidationService manages the photo validation sub-state of a task:
// pending -> approved (terminal, awards points once) or pending -> rejected
// (re-opens the task through the state machine).
type ValidationService struct {
	taskRepository ports.TaskRepository
	taskService    ports.TaskService
	roles          ports.RoleProvider
	ledger         ports.PointsLedger
}

func NewValidationService(taskRepository ports.TaskRepository, taskService ports.TaskService, roles ports.RoleProvider, ledger ports.PointsLedger) *ValidationService {
	return &ValidationService{
		taskRepository: taskRepository,
		taskService:    taskService,
		roles:          roles,
		ledger:         ledger,
	}
}

var _ ports.ValidationService = (*ValidationService)(nil)

// SubmitForValidation completes a photo-requiring task with its proof
// attached; the completion lands with validation pending.
func (s *ValidationService) SubmitForValidation(ctx context.Context, taskID, actor, photoURL string) (domain.Task, error) {
	task, err := s.taskRepository.Get(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if !task.RequiresPhoto {
		return task, domain.ErrInvalidTransition
	}
	return s.taskService.Complete(ctx, taskID, actor, &photoURL)
}

// Validate records a manager's decision on a pending validation. Approval is
// terminal and awards the task's points exactly once; the current status
// guard makes redundant approve calls collapse to ErrAlreadyProcessed
// without a second award. Rejection re-opens the task.
func (s *ValidationService) Validate(ctx context.Context, taskID, approver string, approved bool, notes *string) (domain.Task, error) {
	task, err := s.taskRepository.Get(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	isManager, err := s.roles.IsManager(ctx, approver, task.FamilyID)
	if err != nil {
		return domain.Task{}, err
	}
	if !isManager {
		return task, domain.ErrNotAuthorized
	}

	switch task.ValidationStatus {
	case domain.ValidationPending:
	case domain.ValidationApproved, domain.ValidationRejected:
		return task, domain.ErrAlreadyProcessed
	default:
		return task, domain.ErrInvalidTransition
	}
	if task.PhotoURL == nil {
		return task, domain.ErrPhotoRequired
	}

	if !approved {
		decision := domain.ValidationRejected
		if _, err := s.taskRepository.Update(ctx, task.ID, task.Revision, domain.TaskPatch{
			ValidationStatus: &decision,
			ValidationNotes:  notes,
		}); err != nil {
			return domain.Task{}, err
		}
		// Reopen clears photo and validation state and returns the task to
		// pending for another attempt.
		return s.taskService.Reopen(ctx, taskID)
	}

	decision := domain.ValidationApproved
	updated, err := s.taskRepository.Update(ctx, task.ID, task.Revision, domain.TaskPatch{
		ValidationStatus: &decision,
		ValidationNotes:  notes,
	})
	if err != nil {
		return domain.Task{}, err
	}

	if updated.Points > 0 && updated.CompletedBy != nil {
		// The approval is already durable; a ledger hiccup must not make the
		// caller retry into ErrAlreadyProcessed and lose the award signal.
		if err := s.ledger.Award(ctx, *updated.CompletedBy, updated.Points, updated.ID); err != nil {
			zap.L().Error("failed to award points on approval",
				zap.String("task_id", updated.ID),
				zap.String("member_id", *updated.CompletedBy),
				zap.Error(err),
			)
		}
	}
	return updated, nil
}
