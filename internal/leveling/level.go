package leveling

import (
	"math"

	"github.com/osse101/CatchLog_Go/internal/domain"
)

// LevelForXP maps cumulative XP to a level. It is a non-decreasing step
// function: 1 at 0 XP, never skipping a level.
func LevelForXP(xp int64) int {
	if xp <= 0 {
		return MinLevel
	}

	last := levelThresholds[CappedLevel]
	if xp >= last {
		return CappedLevel + 1 + int((xp-last)/XPPerLevelBeyondCap)
	}

	level := MinLevel
	for level < CappedLevel && xp >= levelThresholds[level] {
		level++
	}
	return level
}

// XPForNextLevel returns the cumulative XP at which the given level ends.
// XPForNextLevel(0) is 0 so that level 1 starts at 0 XP.
func XPForNextLevel(level int) int64 {
	if level <= 0 {
		return 0
	}
	if level >= CappedLevel {
		return levelThresholds[CappedLevel] + int64(level-CappedLevel)*XPPerLevelBeyondCap
	}
	return levelThresholds[level]
}

// ProgressWithinLevel returns how far xp is through the given level.
// Needed is always positive, and Percentage is clamped to [0, 100].
func ProgressWithinLevel(xp int64, level int) domain.LevelProgress {
	if level < MinLevel {
		level = MinLevel
	}

	floor := XPForNextLevel(level - 1)
	needed := XPForNextLevel(level) - floor
	current := xp - floor
	if current < 0 {
		current = 0
	}

	pct := int(math.Round(float64(current) / float64(needed) * 100))
	if pct > 100 {
		pct = 100
	}

	return domain.LevelProgress{
		Current:    current,
		Needed:     needed,
		Percentage: pct,
	}
}

// TierForLevel classifies a level into its display tier
func TierForLevel(level int) Tier {
	switch {
	case level < bronzeBelow:
		return TierBronze
	case level < silverBelow:
		return TierSilver
	case level < goldBelow:
		return TierGold
	case level < platinumBelow:
		return TierPlatinum
	default:
		return TierDiamond
	}
}
