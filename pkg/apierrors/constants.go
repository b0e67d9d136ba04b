package apierrors

const (
	MsgInvalidTaskID      = "invalidTaskID"
	MsgInvalidTaskPayload = "invalidTaskPayload"
	MsgTaskNotFound       = "taskNotFound"
	MsgFailListTasks      = "failListTasks"
	MsgFailCreateTask     = "failCreateTask"
	MsgFailTransitionTask = "failTransitionTask"
	MsgInvalidTransition  = "invalidTransition"
	MsgPhotoRequired      = "photoRequired"
	MsgNotAuthorized      = "notAuthorized"
	MsgInvalidRecurrence  = "invalidRecurrence"
	MsgMissingActor       = "missingActor"
	MsgTaskAlreadyUpdated = "taskAlreadyUpdated"
	MsgFailValidateTask   = "failValidateTask"
)
