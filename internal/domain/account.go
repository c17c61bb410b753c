package domain

import "time"

// Account is the per-user aggregate maintained by the engine
type Account struct {
	ID              string    `json:"id"`
	XP              int64     `json:"xp"`
	Level           int       `json:"level"`
	CountriesFished []string  `json:"countries_fished"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CatchResult is the outcome of evaluating a newly logged catch
type CatchResult struct {
	CatchID            string       `json:"catch_id"`
	RateLimited        bool         `json:"rate_limited"`
	Breakdown          *XPBreakdown `json:"breakdown,omitempty"`
	XPAwarded          int          `json:"xp_awarded"`
	ChallengesComplete []string     `json:"challenges_completed,omitempty"`
	NewXP              int64        `json:"new_xp"`
	NewLevel           int          `json:"new_level"`
	LeveledUp          bool         `json:"leveled_up"`
}

// PhotoResult is the outcome of attaching a photo to an existing catch
type PhotoResult struct {
	CatchID            string   `json:"catch_id"`
	XPAwarded          int      `json:"xp_awarded"`
	Reprocessed        bool     `json:"reprocessed"`
	ChallengesComplete []string `json:"challenges_completed,omitempty"`
	NewXP              int64    `json:"new_xp"`
	NewLevel           int      `json:"new_level"`
}

// SessionResult is the outcome of completing a fishing session
type SessionResult struct {
	SessionID          string   `json:"session_id"`
	XPAwarded          int      `json:"xp_awarded"`
	ChallengesComplete []string `json:"challenges_completed,omitempty"`
	NewXP              int64    `json:"new_xp"`
	NewLevel           int      `json:"new_level"`
}

// DeleteResult is the outcome of reversing a deleted catch
type DeleteResult struct {
	CatchID           string   `json:"catch_id"`
	XPReversed        int      `json:"xp_reversed"`
	ChallengesRevoked []string `json:"challenges_revoked,omitempty"`
	NewXP             int64    `json:"new_xp"`
	NewLevel          int      `json:"new_level"`
}

// ReconcileResult reports drift found while rebuilding an account from its ledger
type ReconcileResult struct {
	AccountID       string   `json:"account_id"`
	PreviousXP      int64    `json:"previous_xp"`
	LedgerXP        int64    `json:"ledger_xp"`
	Level           int      `json:"level"`
	CountriesFished []string `json:"countries_fished"`
}

// Drift is the XP difference corrected by a reconcile
func (r ReconcileResult) Drift() int64 {
	return r.LedgerXP - r.PreviousXP
}

// LevelProgress is XP progress within the current level
type LevelProgress struct {
	Current    int64 `json:"current"`
	Needed     int64 `json:"needed"`
	Percentage int   `json:"percentage"`
}

// AccountProgress is the read model returned to the logbook UI
type AccountProgress struct {
	AccountID       string              `json:"account_id"`
	XP              int64               `json:"xp"`
	Level           int                 `json:"level"`
	Tier            string              `json:"tier"`
	LevelProgress   LevelProgress       `json:"level_progress"`
	CountriesFished []string            `json:"countries_fished"`
	Challenges      []ChallengeProgress `json:"challenges"`
}
