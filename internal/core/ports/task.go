package ports

import (
	"context"
	"time"

	"typeb/internal/core/domain"
)

// TaskRepository is the document store adapter. Update applies a patch with
// optimistic concurrency: it succeeds only when the stored revision equals
// expectedRevision, bumping the revision by one and returning the committed
// row; a mismatch returns domain.ErrStoreConflict and leaves the row alone.
type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	Get(ctx context.Context, id string) (domain.Task, error)
	Update(ctx context.Context, id string, expectedRevision int64, patch domain.TaskPatch) (domain.Task, error)
	QueryByFamily(ctx context.Context, familyID string) ([]domain.Task, error)

	// ActiveWithReminders returns non-terminal tasks with a due date and
	// reminders enabled, across all families; the scheduler's tick input.
	ActiveWithReminders(ctx context.Context, now time.Time) ([]domain.Task, error)
}

type TaskService interface {
	CreateTask(ctx context.Context, input domain.CreateTaskInput) (domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	ListFamilyTasks(ctx context.Context, familyID string) ([]domain.Task, error)
	Start(ctx context.Context, taskID, actor string) (domain.Task, error)
	Complete(ctx context.Context, taskID, actor string, photoURL *string) (domain.Task, error)
	Cancel(ctx context.Context, taskID, actor string) (domain.Task, error)
	Reopen(ctx context.Context, taskID string) (domain.Task, error)
}

type ValidationService interface {
	SubmitForValidation(ctx context.Context, taskID, actor, photoURL string) (domain.Task, error)
	Validate(ctx context.Context, taskID, approver string, approved bool, notes *string) (domain.Task, error)
}
