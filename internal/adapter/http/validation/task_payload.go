package validation

import (
	"errors"
	"strings"
	"time"

	"typeb/internal/adapter/http/dto"
	"typeb/internal/core/domain"
)

var ErrInvalidTaskPayload = errors.New("invalid task payload")

const timeOfDayLayout = "15:04"

func BuildCreateTaskInput(req dto.CreateTaskRequest, actor string) (domain.CreateTaskInput, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.CreateTaskInput{}, ErrInvalidTaskPayload
	}
	if actor == "" {
		return domain.CreateTaskInput{}, ErrInvalidTaskPayload
	}

	priority := domain.TaskPriorityMedium
	if req.Priority != nil {
		priority = domain.TaskPriority(*req.Priority)
	}

	points := 0
	if req.Points != nil {
		points = *req.Points
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			return domain.CreateTaskInput{}, ErrInvalidTaskPayload
		}
		dueDate = &parsed
	}

	input := domain.CreateTaskInput{
		FamilyID:        req.FamilyID,
		Title:           title,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		AssignedTo:      req.AssignedTo,
		AssignedBy:      actor,
		CreatedBy:       actor,
		Priority:        priority,
		DueDate:         dueDate,
		RequiresPhoto:   req.RequiresPhoto,
		ReminderEnabled: req.ReminderEnabled,
		Points:          points,
	}

	if req.Recurrence != nil {
		pattern, err := buildRecurrencePattern(*req.Recurrence)
		if err != nil {
			return domain.CreateTaskInput{}, err
		}
		if dueDate == nil {
			// The schedule needs a first occurrence to anchor on.
			return domain.CreateTaskInput{}, domain.ErrInvalidRecurrence
		}
		input.Recurrence = &pattern
	}

	return input, nil
}

func buildRecurrencePattern(req dto.RecurrenceRequest) (domain.RecurrencePattern, error) {
	interval := 1
	if req.Interval != nil {
		interval = *req.Interval
	}

	pattern := domain.RecurrencePattern{
		Frequency: domain.Frequency(req.Frequency),
		Interval:  interval,
	}

	for _, d := range req.DaysOfWeek {
		pattern.DaysOfWeek = append(pattern.DaysOfWeek, time.Weekday(d))
	}

	if req.TimeOfDay != "" {
		parsed, err := time.Parse(timeOfDayLayout, req.TimeOfDay)
		if err != nil {
			return domain.RecurrencePattern{}, ErrInvalidTaskPayload
		}
		pattern.TimeOfDay = domain.TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}
	}

	if err := pattern.Validate(); err != nil {
		return domain.RecurrencePattern{}, err
	}
	return pattern, nil
}
