package notify

import (
	"context"

	"go.uber.org/zap"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

// LogNotifier is the default reminder sink. Push delivery (device tokens,
// platform APIs) is a separate system; until it is plugged in, fired
// reminders land in the structured log.
type LogNotifier struct{}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(_ context.Context, event domain.ReminderEvent) error {
	zap.L().Info("reminder fired",
		zap.String("task_id", event.TaskID),
		zap.String("family_id", event.FamilyID),
		zap.String("target_member_id", event.TargetMemberID),
		zap.Int("escalation_level", event.EscalationLevel),
		zap.Time("fired_at", event.FiredAt),
	)
	return nil
}
