package award

import (
	"math"

	"github.com/osse101/CatchLog_Go/internal/domain"
)

// History is the slice of account history the calculator needs
type History struct {
	// HasPriorCatchOfSpecies is true when the account logged this species before
	HasPriorCatchOfSpecies bool
	// WeeklySpeciesBonus is the species' bonus for the catch's ISO week, 0 if none
	WeeklySpeciesBonus int
}

// Compute returns the XP breakdown for logging c. It has no side effects.
func Compute(c domain.Catch, h History) domain.XPBreakdown {
	b := domain.XPBreakdown{
		Base:        BaseNoPhoto,
		WeightBonus: WeightBonus(c.WeightKg),
	}

	if c.HasPhoto {
		b.Base = BasePhoto
		b.PhotoBonus = PhotoBonus
	}
	if !h.HasPriorCatchOfSpecies {
		b.SpeciesBonus = SpeciesBonus
	}
	if h.WeeklySpeciesBonus > 0 {
		b.WeeklySpeciesBonus = h.WeeklySpeciesBonus
	}

	b.Total = b.Base + b.SpeciesBonus + b.WeightBonus + b.PhotoBonus + b.WeeklySpeciesBonus
	return b
}

// WeightBonus converts kilograms to pounds and rounds down to the nearest 5 lb step.
func WeightBonus(weightKg *float64) int {
	if weightKg == nil || *weightKg <= 0 {
		return 0
	}
	lb := KgToLb(*weightKg)
	return int(math.Floor(lb/WeightBonusStepLb)) * WeightBonusStepLb
}

// KgToLb converts kilograms to pounds
func KgToLb(kg float64) float64 {
	return kg / KgPerLb
}

// LbToKg converts pounds to kilograms
func LbToKg(lb float64) float64 {
	return lb * KgPerLb
}

// PhotoGraceDelta is the XP owed when a photo is attached inside the grace window:
// the base difference plus the photo bonus.
func PhotoGraceDelta() int {
	return (BasePhoto - BaseNoPhoto) + PhotoBonus
}
