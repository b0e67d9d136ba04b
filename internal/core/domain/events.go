package domain

import "time"

type TransitionEvent string

const (
	EventStart    TransitionEvent = "start"
	EventComplete TransitionEvent = "complete"
	EventCancel   TransitionEvent = "cancel"
	EventReopen   TransitionEvent = "reopen"
)

// TaskTransitioned is emitted after every successful state machine
// transition, in store commit order.
type TaskTransitioned struct {
	TaskID     string
	FamilyID   string
	TemplateID *string
	FromStatus TaskStatus
	ToStatus   TaskStatus
	Actor      string
	Revision   int64
	OccurredAt time.Time
}

// ReminderEvent is what the scheduler hands to the notification transport.
// Delivery mechanics are external; the transport must re-check task status
// before rendering, since the task may have reached a terminal state after
// the event was emitted.
type ReminderEvent struct {
	TaskID          string
	FamilyID        string
	TargetMemberID  string
	EscalationLevel int
	FiredAt         time.Time
}
