package domain

import "time"

// BuildTransitionPatch is the task state machine's transition table. It
// returns the patch a successful transition persists, or noop=true when the
// event is an idempotent re-application (e.g. start on an in-progress task).
// It performs no mutation itself, so failed transitions are all-or-nothing.
func BuildTransitionPatch(task Task, event TransitionEvent, actor string, photoURL *string, now time.Time) (TaskPatch, bool, error) {
	switch event {
	case EventStart:
		switch task.Status {
		case TaskStatusInProgress:
			return TaskPatch{}, true, nil
		case TaskStatusPending:
			status := TaskStatusInProgress
			return TaskPatch{Status: &status}, false, nil
		}
		return TaskPatch{}, false, ErrInvalidTransition

	case EventComplete:
		if task.Status == TaskStatusCompleted {
			return TaskPatch{}, false, ErrAlreadyProcessed
		}
		if task.Status != TaskStatusPending && task.Status != TaskStatusInProgress {
			return TaskPatch{}, false, ErrInvalidTransition
		}
		if task.RequiresPhoto && photoURL == nil {
			return TaskPatch{}, false, ErrPhotoRequired
		}
		status := TaskStatusCompleted
		completedBy := actor
		patch := TaskPatch{
			Status:      &status,
			CompletedAt: &now,
			CompletedBy: &completedBy,
		}
		if task.RequiresPhoto {
			patch.PhotoURL = photoURL
			validation := ValidationPending
			patch.ValidationStatus = &validation
		}
		return patch, false, nil

	case EventCancel:
		if task.Status != TaskStatusPending && task.Status != TaskStatusInProgress {
			return TaskPatch{}, false, ErrInvalidTransition
		}
		status := TaskStatusCancelled
		return TaskPatch{Status: &status}, false, nil

	case EventReopen:
		if task.Status != TaskStatusCompleted {
			return TaskPatch{}, false, ErrInvalidTransition
		}
		status := TaskStatusPending
		validation := ValidationNone
		rejections := task.RejectionCount + 1
		return TaskPatch{
			Status:           &status,
			ClearPhotoURL:    true,
			ValidationStatus: &validation,
			RejectionCount:   &rejections,
			ClearCompletedAt: true,
			ClearCompletedBy: true,
		}, false, nil
	}
	return TaskPatch{}, false, ErrInvalidTransition
}

// WithPatch returns a copy of the task with the patch applied in memory.
// It mirrors what the store adapter persists, minus revision bookkeeping.
func (t Task) WithPatch(p TaskPatch) Task {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ClearPhotoURL {
		t.PhotoURL = nil
	} else if p.PhotoURL != nil {
		t.PhotoURL = p.PhotoURL
	}
	if p.ValidationStatus != nil {
		t.ValidationStatus = *p.ValidationStatus
	}
	if p.ValidationNotes != nil {
		t.ValidationNotes = p.ValidationNotes
	}
	if p.RejectionCount != nil {
		t.RejectionCount = *p.RejectionCount
	}
	if p.ClearCompletedAt {
		t.CompletedAt = nil
	} else if p.CompletedAt != nil {
		t.CompletedAt = p.CompletedAt
	}
	if p.ClearCompletedBy {
		t.CompletedBy = nil
	} else if p.CompletedBy != nil {
		t.CompletedBy = p.CompletedBy
	}
	if p.LastReminderSent != nil {
		t.LastReminderSent = p.LastReminderSent
	}
	if p.EscalationLevel != nil {
		t.EscalationLevel = *p.EscalationLevel
	}
	return t
}
