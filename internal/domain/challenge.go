package domain

import "time"

// ChallengeScope controls where a challenge applies
type ChallengeScope string

const (
	ScopeGlobal  ChallengeScope = "global"
	ScopeCountry ChallengeScope = "country"
	ScopeEvent   ChallengeScope = "event"
)

// ChallengeDefinition is a catalog entry describing an achievement
type ChallengeDefinition struct {
	ID          string         `json:"id"`
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Target      int            `json:"target"`
	XPReward    int            `json:"xp_reward"`
	Scope       ChallengeScope `json:"scope"`
	ScopeValue  *string        `json:"scope_value,omitempty"`
	Active      bool           `json:"active"`
}

// ChallengeProgress tracks one account's progress on one challenge.
// CompletedAt only moves back to nil through catch reversal.
type ChallengeProgress struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"account_id"`
	ChallengeID string     `json:"challenge_id"`
	Slug        string     `json:"slug"`
	Progress    int        `json:"progress"`
	Target      int        `json:"target"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	XPAwarded   int        `json:"xp_awarded"`
	Version     int        `json:"version"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsCompleted reports whether the challenge has been completed
func (p ChallengeProgress) IsCompleted() bool {
	return p.CompletedAt != nil
}

// ChallengeCatchLink records that a catch contributed to a challenge
type ChallengeCatchLink struct {
	ProgressID string `json:"progress_id"`
	CatchID    string `json:"catch_id"`
}

// ChallengeState is the derived lifecycle state of a progress row
type ChallengeState string

const (
	ChallengeNotStarted ChallengeState = "not_started"
	ChallengeInProgress ChallengeState = "in_progress"
	ChallengeCompleted  ChallengeState = "completed"
)

// StateOf derives the lifecycle state; a nil row is not started.
func StateOf(p *ChallengeProgress) ChallengeState {
	switch {
	case p == nil:
		return ChallengeNotStarted
	case p.CompletedAt != nil:
		return ChallengeCompleted
	default:
		return ChallengeInProgress
	}
}
