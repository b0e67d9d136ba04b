package domain

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsTerminal reports whether no further lifecycle event may be applied,
// other than a system reopen after a rejected validation.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

type ValidationStatus string

const (
	ValidationNone     ValidationStatus = "none"
	ValidationPending  ValidationStatus = "pending"
	ValidationApproved ValidationStatus = "approved"
	ValidationRejected ValidationStatus = "rejected"
)

type Category struct {
	ID    string
	Name  string
	Color string
	Icon  string
}

type Task struct {
	ID          string
	FamilyID    string
	Title       string
	Description *string
	Category    *Category
	AssignedTo  string
	AssignedBy  string
	CreatedBy   string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time

	RequiresPhoto    bool
	PhotoURL         *string
	ValidationStatus ValidationStatus
	ValidationNotes  *string
	RejectionCount   int

	IsRecurring bool
	TemplateID  *string

	ReminderEnabled  bool
	LastReminderSent *time.Time
	EscalationLevel  int

	Points      int
	CompletedAt *time.Time
	CompletedBy *string

	// Revision is the store-assigned, monotonically increasing sequence
	// used to order concurrent writers; zero means "not yet persisted".
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateTaskInput struct {
	FamilyID        string
	Title           string
	Description     *string
	CategoryID      *string
	AssignedTo      string
	AssignedBy      string
	CreatedBy       string
	Priority        TaskPriority
	DueDate         *time.Time
	RequiresPhoto   bool
	ReminderEnabled bool
	Points          int
	Recurrence      *RecurrencePattern
}

// TaskPatch is a partial update applied by the store adapter.
// nil pointer => "no change". Clear* flags null out nullable columns.
type TaskPatch struct {
	Status           *TaskStatus
	PhotoURL         *string
	ClearPhotoURL    bool
	ValidationStatus *ValidationStatus
	ValidationNotes  *string
	RejectionCount   *int
	CompletedAt      *time.Time
	ClearCompletedAt bool
	CompletedBy      *string
	ClearCompletedBy bool
	LastReminderSent *time.Time
	EscalationLevel  *int
}

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// RecurrencePattern holds the schedule parameters of a recurring task
// template. DaysOfWeek uses time.Weekday numbering (Sunday = 0) and is
// required for weekly patterns.
type RecurrencePattern struct {
	Frequency  Frequency
	Interval   int
	DaysOfWeek []time.Weekday
	TimeOfDay  TimeOfDay
}

type TimeOfDay struct {
	Hour   int
	Minute int
}

// At anchors the time-of-day onto the given calendar date.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// Validate fails fast on malformed schedules so a bad pattern is rejected
// at registration time rather than at materialization time.
func (p RecurrencePattern) Validate() error {
	if p.Frequency != FrequencyDaily && p.Frequency != FrequencyWeekly {
		return ErrInvalidRecurrence
	}
	if p.Interval < 1 {
		return ErrInvalidRecurrence
	}
	if p.Frequency == FrequencyWeekly && len(p.DaysOfWeek) == 0 {
		return ErrInvalidRecurrence
	}
	for _, d := range p.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return ErrInvalidRecurrence
		}
	}
	if p.TimeOfDay.Hour < 0 || p.TimeOfDay.Hour > 23 || p.TimeOfDay.Minute < 0 || p.TimeOfDay.Minute > 59 {
		return ErrInvalidRecurrence
	}
	return nil
}

// RecurrenceTemplate is the schedule held by the recurrence engine.
// Materialized occurrences carry no forward link to it beyond TemplateID;
// the template alone decides when the next occurrence fires.
type RecurrenceTemplate struct {
	ID              string
	FamilyID        string
	Title           string
	Description     *string
	CategoryID      *string
	AssignedTo      string
	AssignedBy      string
	Priority        TaskPriority
	RequiresPhoto   bool
	ReminderEnabled bool
	Points          int
	Pattern         RecurrencePattern

	// LastScheduledAt is the scheduled date of the most recently
	// materialized occurrence; the idempotency anchor.
	LastScheduledAt time.Time
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
