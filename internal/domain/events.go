package domain

// Event type constants used for event bus subscriptions and metrics.
//
// Event types follow the pattern: <entity>.<action> (e.g., "challenge.completed")
const (
	// EventTypeXPAwarded is published after a committed XP award
	EventTypeXPAwarded = "xp.awarded"

	// EventTypeLevelUp is published when an account's level increases
	EventTypeLevelUp = "account.level_up"

	// EventTypeChallengeCompleted is published for each newly completed challenge
	EventTypeChallengeCompleted = "challenge.completed"

	// EventTypeChallengeRevoked is published when a deleted catch drops a challenge below target
	EventTypeChallengeRevoked = "challenge.revoked"

	// EventTypeXPReversed is published when a deleted catch's XP is negated
	EventTypeXPReversed = "xp.reversed"
)
