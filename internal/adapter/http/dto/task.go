package dto

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type TaskItem struct {
	ID               string    `json:"id"`
	FamilyID         string    `json:"family_id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description,omitempty"`
	Category         *Category `json:"category,omitempty"`
	AssignedTo       string    `json:"assigned_to"`
	AssignedBy       string    `json:"assigned_by"`
	CreatedBy        string    `json:"created_by"`
	Status           string    `json:"status"`
	Priority         string    `json:"priority"`
	DueDate          *string   `json:"due_date,omitempty"`
	RequiresPhoto    bool      `json:"requires_photo"`
	PhotoURL         *string   `json:"photo_url,omitempty"`
	ValidationStatus string    `json:"validation_status"`
	ValidationNotes  *string   `json:"validation_notes,omitempty"`
	RejectionCount   int       `json:"rejection_count"`
	IsRecurring      bool      `json:"is_recurring"`
	ReminderEnabled  bool      `json:"reminder_enabled"`
	EscalationLevel  int       `json:"escalation_level"`
	Points           int       `json:"points"`
	CompletedAt      *string   `json:"completed_at,omitempty"`
	CompletedBy      *string   `json:"completed_by,omitempty"`
	CreatedAt        string    `json:"created_at"`
	UpdatedAt        string    `json:"updated_at"`
}

type CreateTaskRequest struct {
	FamilyID        string             `json:"family_id" binding:"required"`
	Title           string             `json:"title" binding:"required,max=255"`
	Description     *string            `json:"description" binding:"omitempty,max=65535"`
	CategoryID      *string            `json:"category_id" binding:"omitempty"`
	AssignedTo      string             `json:"assigned_to" binding:"required"`
	Priority        *string            `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate         *string            `json:"due_date" binding:"omitempty"`
	RequiresPhoto   bool               `json:"requires_photo"`
	ReminderEnabled bool               `json:"reminder_enabled"`
	Points          *int               `json:"points" binding:"omitempty,gte=0"`
	Recurrence      *RecurrenceRequest `json:"recurrence" binding:"omitempty"`
}

type RecurrenceRequest struct {
	Frequency  string `json:"frequency" binding:"required,oneof=daily weekly"`
	Interval   *int   `json:"interval" binding:"omitempty,gte=1"`
	DaysOfWeek []int  `json:"days_of_week" binding:"omitempty,dive,gte=0,lte=6"`
	TimeOfDay  string `json:"time_of_day" binding:"omitempty"`
}

type CompleteTaskRequest struct {
	PhotoURL *string `json:"photo_url" binding:"omitempty,max=2048"`
}

type SubmitPhotoRequest struct {
	PhotoURL string `json:"photo_url" binding:"required,max=2048"`
}

type ValidateTaskRequest struct {
	Approved *bool   `json:"approved" binding:"required"`
	Notes    *string `json:"notes" binding:"omitempty,max=65535"`
}
