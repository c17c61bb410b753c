package gamification

import "time"

// DefaultPhotoGracePeriod is how long after capture a late photo still earns the photo award
const DefaultPhotoGracePeriod = time.Hour

// Operation labels for duration and failure metrics
const (
	OperationLogCatch        = "log_catch"
	OperationAttachPhoto     = "attach_photo"
	OperationCompleteSession = "complete_session"
	OperationDeleteCatch     = "delete_catch"
	OperationReconcile       = "reconcile"
)

// Log messages
const (
	LogMsgCatchEvaluated     = "Catch evaluated"
	LogMsgCatchAlreadyLogged = "Catch already awarded, skipping"
	LogMsgCatchRateLimited   = "Catch rate limited, XP skipped"
	LogMsgPhotoOutsideGrace  = "Photo attached outside grace period"
	LogMsgPhotoNotOwed       = "Photo award not owed"
	LogMsgPhotoDeletedCatch  = "Photo attached to a deleted catch"
	LogMsgPhotoReprocessed   = "Photo attached within grace period, catch reprocessed"
	LogMsgSessionTooShort    = "Session below qualifying length"
	LogMsgSessionEvaluated   = "Session evaluated"
	LogMsgCatchReversed      = "Deleted catch reversed"
	LogMsgChallengeRevoked   = "Challenge revoked"
	LogMsgReconcileDrift     = "Account XP drifted from ledger, corrected"
	LogMsgEvaluationFailed   = "Gamification pass failed"
	LogMsgLevelUp            = "Account leveled up"
)
