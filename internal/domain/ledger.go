package domain

import "time"

// XPReason identifies what produced a ledger entry
type XPReason string

const (
	ReasonCatchLogged        XPReason = "catch_logged"
	ReasonPhotoAdded         XPReason = "photo_added"
	ReasonChallengeCompleted XPReason = "challenge_completed"
	ReasonChallengeRevoked   XPReason = "challenge_revoked"
	ReasonSessionCompleted   XPReason = "session_completed"
)

// Reference types for ledger entries
const (
	RefTypeCatch     = "catch"
	RefTypeSession   = "session"
	RefTypeChallenge = "challenge"
)

// XPTransaction is a ledger entry. Reversal negates Amount in place and stamps ReversedAt;
// account XP is the sum of entries that have not been reversed.
type XPTransaction struct {
	ID            string       `json:"id"`
	AccountID     string       `json:"account_id"`
	Amount        int          `json:"amount"`
	Reason        XPReason     `json:"reason"`
	ReferenceType string       `json:"reference_type"`
	ReferenceID   string       `json:"reference_id"`
	Metadata      XPTxMetadata `json:"metadata"`
	CreatedAt     time.Time    `json:"created_at"`
	ReversedAt    *time.Time   `json:"reversed_at,omitempty"`
}

// IsReversed reports whether the entry has been negated
func (t XPTransaction) IsReversed() bool {
	return t.ReversedAt != nil
}

// XPTxMetadata is the structured metadata stored alongside a ledger entry
type XPTxMetadata struct {
	Breakdown     *XPBreakdown `json:"breakdown,omitempty"`
	ChallengeSlug string       `json:"challenge_slug,omitempty"`
	Species       string       `json:"species,omitempty"`
	SessionMins   float64      `json:"session_minutes,omitempty"`
}

// XPBreakdown is the itemised award for a single logged catch
type XPBreakdown struct {
	Base               int `json:"base"`
	SpeciesBonus       int `json:"species_bonus"`
	WeightBonus        int `json:"weight_bonus"`
	PhotoBonus         int `json:"photo_bonus"`
	WeeklySpeciesBonus int `json:"weekly_species_bonus"`
	Total              int `json:"total"`
}
