package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

// TaskRepo is an in-memory TaskRepository with the same revision semantics
// as the MySQL adapter. It backs unit tests and single-process deployments
// that do not want a database.
type TaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
}

var _ ports.TaskRepository = (*TaskRepo)(nil)

func NewTaskRepo() *TaskRepo {
	return &TaskRepo{tasks: make(map[string]domain.Task)}
}

func (r *TaskRepo) Create(_ context.Context, task domain.Task) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.Revision = 1
	r.tasks[task.ID] = task
	return task, nil
}

func (r *TaskRepo) Get(_ context.Context, id string) (domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return task, nil
}

func (r *TaskRepo) Update(_ context.Context, id string, expectedRevision int64, patch domain.TaskPatch) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if task.Revision != expectedRevision {
		return domain.Task{}, domain.ErrStoreConflict
	}
	task = task.WithPatch(patch)
	task.Revision++
	task.UpdatedAt = time.Now().UTC()
	r.tasks[id] = task
	return task, nil
}

func (r *TaskRepo) QueryByFamily(_ context.Context, familyID string) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tasks []domain.Task
	for _, task := range r.tasks {
		if task.FamilyID == familyID {
			tasks = append(tasks, task)
		}
	}
	sortTasks(tasks)
	return tasks, nil
}

func (r *TaskRepo) ActiveWithReminders(_ context.Context, _ time.Time) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tasks []domain.Task
	for _, task := range r.tasks {
		if task.Status.IsTerminal() || !task.ReminderEnabled || task.DueDate == nil {
			continue
		}
		tasks = append(tasks, task)
	}
	sortTasks(tasks)
	return tasks, nil
}

func sortTasks(tasks []domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}
