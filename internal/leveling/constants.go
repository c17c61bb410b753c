package leveling

// Level curve constants
const (
	// CappedLevel is the last level with a hand-tuned threshold
	CappedLevel = 10

	// XPPerLevelBeyondCap is the flat XP step for every level above CappedLevel
	XPPerLevelBeyondCap = 600

	// MinLevel is the level of a fresh account
	MinLevel = 1
)

// levelThresholds[i] is the cumulative XP needed to reach level i+1.
// levelThresholds[CappedLevel] is the XP needed to leave level 10.
var levelThresholds = [CappedLevel + 1]int64{0, 50, 120, 220, 350, 520, 750, 1050, 1400, 1800, 2300}

// Tier is the display band for a level
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

// Tier boundaries (exclusive upper level)
const (
	bronzeBelow   = 10
	silverBelow   = 20
	goldBelow     = 30
	platinumBelow = 50
)
