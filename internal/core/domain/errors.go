package domain

import "errors"

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTemplateNotFound  = errors.New("recurrence template not found")
	ErrInvalidTransition = errors.New("invalid task transition")
	ErrPhotoRequired     = errors.New("photo proof required")
	ErrNotAuthorized     = errors.New("member not authorized")
	ErrInvalidRecurrence = errors.New("invalid recurrence pattern")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrStoreConflict     = errors.New("store revision conflict")
)
