package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

const selectTaskColumns = `
SELECT
  t.*,
  c.name AS category_name,
  c.color AS category_color,
  c.icon AS category_icon
FROM tasks t
LEFT JOIN categories c ON c.id = t.category_id
`

type TaskRepository struct {
	db *sqlx.DB
}

type taskRow struct {
	ID               string         `db:"id"`
	FamilyID         string         `db:"family_id"`
	Title            string         `db:"title"`
	Description      sql.NullString `db:"description"`
	CategoryID       sql.NullString `db:"category_id"`
	AssignedTo       string         `db:"assigned_to"`
	AssignedBy       string         `db:"assigned_by"`
	CreatedBy        string         `db:"created_by"`
	Status           string         `db:"status"`
	Priority         string         `db:"priority"`
	DueDate          sql.NullTime   `db:"due_date"`
	RequiresPhoto    bool           `db:"requires_photo"`
	PhotoURL         sql.NullString `db:"photo_url"`
	ValidationStatus string         `db:"validation_status"`
	ValidationNotes  sql.NullString `db:"validation_notes"`
	RejectionCount   int            `db:"rejection_count"`
	IsRecurring      bool           `db:"is_recurring"`
	TemplateID       sql.NullString `db:"template_id"`
	ReminderEnabled  bool           `db:"reminder_enabled"`
	LastReminderSent sql.NullTime   `db:"last_reminder_sent"`
	EscalationLevel  int            `db:"escalation_level"`
	Points           int            `db:"points"`
	CompletedAt      sql.NullTime   `db:"completed_at"`
	CompletedBy      sql.NullString `db:"completed_by"`
	Revision         int64          `db:"revision"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	CategoryName     sql.NullString `db:"category_name"`
	CategoryColor    sql.NullString `db:"category_color"`
	CategoryIcon     sql.NullString `db:"category_icon"`
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	task.Revision = 1
	row := taskRowFromDomain(task)
	_, err := r.db.NamedExecContext(ctx, `
INSERT INTO tasks (
  id, family_id, title, description, category_id,
  assigned_to, assigned_by, created_by,
  status, priority, due_date,
  requires_photo, photo_url, validation_status, validation_notes, rejection_count,
  is_recurring, template_id,
  reminder_enabled, last_reminder_sent, escalation_level,
  points, completed_at, completed_by,
  revision, created_at, updated_at
) VALUES (
  :id, :family_id, :title, :description, :category_id,
  :assigned_to, :assigned_by, :created_by,
  :status, :priority, :due_date,
  :requires_photo, :photo_url, :validation_status, :validation_notes, :rejection_count,
  :is_recurring, :template_id,
  :reminder_enabled, :last_reminder_sent, :escalation_level,
  :points, :completed_at, :completed_by,
  :revision, :created_at, :updated_at
)`, row)
	if err != nil {
		return domain.Task{}, err
	}
	return r.Get(ctx, task.ID)
}

func (r *TaskRepository) Get(ctx context.Context, id string) (domain.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row, selectTaskColumns+"WHERE t.id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	return mapTaskRowToDomainTask(row), nil
}

// Update applies the patch only when the stored revision still matches
// expectedRevision, bumping the revision in the same statement. A lost race
// surfaces as domain.ErrStoreConflict with the row untouched.
func (r *TaskRepository) Update(ctx context.Context, id string, expectedRevision int64, patch domain.TaskPatch) (domain.Task, error) {
	assignments, args := buildTaskAssignments(patch)
	assignments = append(assignments, "revision = revision + 1", "updated_at = ?")
	args = append(args, time.Now().UTC())

	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = ? AND revision = ?",
		strings.Join(assignments, ", "),
	)
	args = append(args, id, expectedRevision)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Task{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Task{}, err
	}
	if affected == 0 {
		// Missing row and stale revision look the same to the UPDATE; a
		// follow-up read tells them apart.
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return domain.Task{}, getErr
		}
		return domain.Task{}, domain.ErrStoreConflict
	}

	return r.Get(ctx, id)
}

func (r *TaskRepository) QueryByFamily(ctx context.Context, familyID string) ([]domain.Task, error) {
	var rows []taskRow
	err := r.db.SelectContext(ctx, &rows, selectTaskColumns+"WHERE t.family_id = ? ORDER BY t.created_at, t.id", familyID)
	if err != nil {
		return nil, err
	}
	return mapTaskRows(rows), nil
}

func (r *TaskRepository) ActiveWithReminders(ctx context.Context, now time.Time) ([]domain.Task, error) {
	var rows []taskRow
	err := r.db.SelectContext(ctx, &rows, selectTaskColumns+`
WHERE t.status IN (?, ?)
  AND t.reminder_enabled = TRUE
  AND t.due_date IS NOT NULL
ORDER BY t.due_date, t.id`,
		domain.TaskStatusPending, domain.TaskStatusInProgress)
	if err != nil {
		return nil, err
	}
	return mapTaskRows(rows), nil
}

func buildTaskAssignments(patch domain.TaskPatch) ([]string, []any) {
	var assignments []string
	var args []any
	set := func(column string, value any) {
		assignments = append(assignments, column+" = ?")
		args = append(args, value)
	}

	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.ClearPhotoURL {
		assignments = append(assignments, "photo_url = NULL")
	} else if patch.PhotoURL != nil {
		set("photo_url", *patch.PhotoURL)
	}
	if patch.ValidationStatus != nil {
		set("validation_status", string(*patch.ValidationStatus))
	}
	if patch.ValidationNotes != nil {
		set("validation_notes", *patch.ValidationNotes)
	}
	if patch.RejectionCount != nil {
		set("rejection_count", *patch.RejectionCount)
	}
	if patch.ClearCompletedAt {
		assignments = append(assignments, "completed_at = NULL")
	} else if patch.CompletedAt != nil {
		set("completed_at", patch.CompletedAt.UTC())
	}
	if patch.ClearCompletedBy {
		assignments = append(assignments, "completed_by = NULL")
	} else if patch.CompletedBy != nil {
		set("completed_by", *patch.CompletedBy)
	}
	if patch.LastReminderSent != nil {
		set("last_reminder_sent", patch.LastReminderSent.UTC())
	}
	if patch.EscalationLevel != nil {
		set("escalation_level", *patch.EscalationLevel)
	}
	return assignments, args
}

func taskRowFromDomain(task domain.Task) taskRow {
	row := taskRow{
		ID:               task.ID,
		FamilyID:         task.FamilyID,
		Title:            task.Title,
		AssignedTo:       task.AssignedTo,
		AssignedBy:       task.AssignedBy,
		CreatedBy:        task.CreatedBy,
		Status:           string(task.Status),
		Priority:         string(task.Priority),
		RequiresPhoto:    task.RequiresPhoto,
		ValidationStatus: string(task.ValidationStatus),
		RejectionCount:   task.RejectionCount,
		IsRecurring:      task.IsRecurring,
		ReminderEnabled:  task.ReminderEnabled,
		EscalationLevel:  task.EscalationLevel,
		Points:           task.Points,
		Revision:         task.Revision,
		CreatedAt:        task.CreatedAt.UTC(),
		UpdatedAt:        task.UpdatedAt.UTC(),
	}
	if task.Description != nil {
		row.Description = sql.NullString{String: *task.Description, Valid: true}
	}
	if task.Category != nil {
		row.CategoryID = sql.NullString{String: task.Category.ID, Valid: true}
	}
	if task.DueDate != nil {
		row.DueDate = sql.NullTime{Time: task.DueDate.UTC(), Valid: true}
	}
	if task.PhotoURL != nil {
		row.PhotoURL = sql.NullString{String: *task.PhotoURL, Valid: true}
	}
	if task.ValidationNotes != nil {
		row.ValidationNotes = sql.NullString{String: *task.ValidationNotes, Valid: true}
	}
	if task.TemplateID != nil {
		row.TemplateID = sql.NullString{String: *task.TemplateID, Valid: true}
	}
	if task.LastReminderSent != nil {
		row.LastReminderSent = sql.NullTime{Time: task.LastReminderSent.UTC(), Valid: true}
	}
	if task.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: task.CompletedAt.UTC(), Valid: true}
	}
	if task.CompletedBy != nil {
		row.CompletedBy = sql.NullString{String: *task.CompletedBy, Valid: true}
	}
	return row
}

func mapTaskRows(rows []taskRow) []domain.Task {
	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, mapTaskRowToDomainTask(row))
	}
	return tasks
}

func mapTaskRowToDomainTask(row taskRow) domain.Task {
	task := domain.Task{
		ID:               row.ID,
		FamilyID:         row.FamilyID,
		Title:            row.Title,
		AssignedTo:       row.AssignedTo,
		AssignedBy:       row.AssignedBy,
		CreatedBy:        row.CreatedBy,
		Status:           domain.TaskStatus(row.Status),
		Priority:         domain.TaskPriority(row.Priority),
		RequiresPhoto:    row.RequiresPhoto,
		ValidationStatus: domain.ValidationStatus(row.ValidationStatus),
		RejectionCount:   row.RejectionCount,
		IsRecurring:      row.IsRecurring,
		ReminderEnabled:  row.ReminderEnabled,
		EscalationLevel:  row.EscalationLevel,
		Points:           row.Points,
		Revision:         row.Revision,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}

	if row.Description.Valid {
		value := row.Description.String
		task.Description = &value
	}

	if row.DueDate.Valid {
		value := row.DueDate.Time
		task.DueDate = &value
	}

	if row.PhotoURL.Valid {
		value := row.PhotoURL.String
		task.PhotoURL = &value
	}

	if row.ValidationNotes.Valid {
		value := row.ValidationNotes.String
		task.ValidationNotes = &value
	}

	if row.TemplateID.Valid {
		value := row.TemplateID.String
		task.TemplateID = &value
	}

	if row.LastReminderSent.Valid {
		value := row.LastReminderSent.Time
		task.LastReminderSent = &value
	}

	if row.CompletedAt.Valid {
		value := row.CompletedAt.Time
		task.CompletedAt = &value
	}

	if row.CompletedBy.Valid {
		value := row.CompletedBy.String
		task.CompletedBy = &value
	}

	if row.CategoryID.Valid {
		task.Category = &domain.Category{
			ID:    row.CategoryID.String,
			Name:  row.CategoryName.String,
			Color: row.CategoryColor.String,
			Icon:  row.CategoryIcon.String,
		}
	}

	return task
}
