package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

type TemplateRepository struct {
	db *sqlx.DB
}

type templateRow struct {
	ID              string         `db:"id"`
	FamilyID        string         `db:"family_id"`
	Title           string         `db:"title"`
	Description     sql.NullString `db:"description"`
	CategoryID      sql.NullString `db:"category_id"`
	AssignedTo      string         `db:"assigned_to"`
	AssignedBy      string         `db:"assigned_by"`
	Priority        string         `db:"priority"`
	RequiresPhoto   bool           `db:"requires_photo"`
	ReminderEnabled bool           `db:"reminder_enabled"`
	Points          int            `db:"points"`
	Frequency       string         `db:"frequency"`
	IntervalCount   int            `db:"interval_count"`
	DaysOfWeek      sql.NullString `db:"days_of_week"`
	TimeHour        int            `db:"time_hour"`
	TimeMinute      int            `db:"time_minute"`
	LastScheduledAt time.Time      `db:"last_scheduled_at"`
	Active          bool           `db:"active"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

var _ ports.TemplateRepository = (*TemplateRepository)(nil)

func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, tpl domain.RecurrenceTemplate) (domain.RecurrenceTemplate, error) {
	row := templateRowFromDomain(tpl)
	_, err := r.db.NamedExecContext(ctx, `
INSERT INTO recurrence_templates (
  id, family_id, title, description, category_id,
  assigned_to, assigned_by, priority,
  requires_photo, reminder_enabled, points,
  frequency, interval_count, days_of_week, time_hour, time_minute,
  last_scheduled_at, active, created_at, updated_at
) VALUES (
  :id, :family_id, :title, :description, :category_id,
  :assigned_to, :assigned_by, :priority,
  :requires_photo, :reminder_enabled, :points,
  :frequency, :interval_count, :days_of_week, :time_hour, :time_minute,
  :last_scheduled_at, :active, :created_at, :updated_at
)`, row)
	if err != nil {
		return domain.RecurrenceTemplate{}, err
	}
	return r.Get(ctx, tpl.ID)
}

func (r *TemplateRepository) Get(ctx context.Context, id string) (domain.RecurrenceTemplate, error) {
	var row templateRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM recurrence_templates WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RecurrenceTemplate{}, domain.ErrTemplateNotFound
	}
	if err != nil {
		return domain.RecurrenceTemplate{}, err
	}
	return mapTemplateRowToDomain(row), nil
}

func (r *TemplateRepository) ListActive(ctx context.Context) ([]domain.RecurrenceTemplate, error) {
	var rows []templateRow
	err := r.db.SelectContext(ctx, &rows, "SELECT * FROM recurrence_templates WHERE active = TRUE ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	templates := make([]domain.RecurrenceTemplate, 0, len(rows))
	for _, row := range rows {
		templates = append(templates, mapTemplateRowToDomain(row))
	}
	return templates, nil
}

// AdvanceSchedule is the engine's idempotency anchor: the write succeeds
// only while last_scheduled_at still holds the value the caller computed
// from, so concurrent materializations of the same occurrence elect one
// winner.
func (r *TemplateRepository) AdvanceSchedule(ctx context.Context, id string, from, to time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
UPDATE recurrence_templates
SET last_scheduled_at = ?, updated_at = ?
WHERE id = ? AND last_scheduled_at = ?`,
		to.UTC(), time.Now().UTC(), id, from.UTC())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *TemplateRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE recurrence_templates SET active = FALSE, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}

func templateRowFromDomain(tpl domain.RecurrenceTemplate) templateRow {
	row := templateRow{
		ID:              tpl.ID,
		FamilyID:        tpl.FamilyID,
		Title:           tpl.Title,
		AssignedTo:      tpl.AssignedTo,
		AssignedBy:      tpl.AssignedBy,
		Priority:        string(tpl.Priority),
		RequiresPhoto:   tpl.RequiresPhoto,
		ReminderEnabled: tpl.ReminderEnabled,
		Points:          tpl.Points,
		Frequency:       string(tpl.Pattern.Frequency),
		IntervalCount:   tpl.Pattern.Interval,
		TimeHour:        tpl.Pattern.TimeOfDay.Hour,
		TimeMinute:      tpl.Pattern.TimeOfDay.Minute,
		LastScheduledAt: tpl.LastScheduledAt.UTC(),
		Active:          tpl.Active,
		CreatedAt:       tpl.CreatedAt.UTC(),
		UpdatedAt:       tpl.UpdatedAt.UTC(),
	}
	if tpl.Description != nil {
		row.Description = sql.NullString{String: *tpl.Description, Valid: true}
	}
	if tpl.CategoryID != nil {
		row.CategoryID = sql.NullString{String: *tpl.CategoryID, Valid: true}
	}
	if len(tpl.Pattern.DaysOfWeek) > 0 {
		row.DaysOfWeek = sql.NullString{String: encodeDaysOfWeek(tpl.Pattern.DaysOfWeek), Valid: true}
	}
	return row
}

func mapTemplateRowToDomain(row templateRow) domain.RecurrenceTemplate {
	tpl := domain.RecurrenceTemplate{
		ID:              row.ID,
		FamilyID:        row.FamilyID,
		Title:           row.Title,
		AssignedTo:      row.AssignedTo,
		AssignedBy:      row.AssignedBy,
		Priority:        domain.TaskPriority(row.Priority),
		RequiresPhoto:   row.RequiresPhoto,
		ReminderEnabled: row.ReminderEnabled,
		Points:          row.Points,
		Pattern: domain.RecurrencePattern{
			Frequency: domain.Frequency(row.Frequency),
			Interval:  row.IntervalCount,
			TimeOfDay: domain.TimeOfDay{Hour: row.TimeHour, Minute: row.TimeMinute},
		},
		LastScheduledAt: row.LastScheduledAt,
		Active:          row.Active,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.Description.Valid {
		value := row.Description.String
		tpl.Description = &value
	}
	if row.CategoryID.Valid {
		value := row.CategoryID.String
		tpl.CategoryID = &value
	}
	if row.DaysOfWeek.Valid {
		tpl.Pattern.DaysOfWeek = decodeDaysOfWeek(row.DaysOfWeek.String)
	}
	return tpl
}

func encodeDaysOfWeek(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func decodeDaysOfWeek(value string) []time.Weekday {
	parts := strings.Split(value, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}
