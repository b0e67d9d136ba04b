package mapper

import (
	"time"

	"typeb/internal/adapter/http/dto"
	"typeb/internal/core/domain"
)

func ToTaskItems(tasks []domain.Task) []dto.TaskItem {
	items := make([]dto.TaskItem, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, ToTaskItem(task))
	}
	return items
}

func ToTaskItem(task domain.Task) dto.TaskItem {
	item := dto.TaskItem{
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
		CreatedAt:        task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        task.UpdatedAt.Format(time.RFC3339),
	}

	if task.Description != nil {
		value := *task.Description
		item.Description = &value
	}

	if task.DueDate != nil {
		value := task.DueDate.Format(time.RFC3339)
		item.DueDate = &value
	}

	if task.PhotoURL != nil {
		value := *task.PhotoURL
		item.PhotoURL = &value
	}

	if task.ValidationNotes != nil {
		value := *task.ValidationNotes
		item.ValidationNotes = &value
	}

	if task.CompletedAt != nil {
		value := task.CompletedAt.Format(time.RFC3339)
		item.CompletedAt = &value
	}

	if task.CompletedBy != nil {
		value := *task.CompletedBy
		item.CompletedBy = &value
	}

	if task.Category != nil {
		item.Category = &dto.Category{
			ID:    task.Category.ID,
			Name:  task.Category.Name,
			Color: task.Category.Color,
			Icon:  task.Category.Icon,
		}
	}

	return item
}
