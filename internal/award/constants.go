package award

// XP award amounts for a logged catch
const (
	BasePhoto    = 10
	BaseNoPhoto  = 3
	PhotoBonus   = 5
	SpeciesBonus = 25

	// SessionCompleted is awarded once per session lasting at least 15 minutes
	SessionCompleted = 5

	// WeightBonusStepLb awards WeightBonusStepLb XP per full WeightBonusStepLb pounds
	WeightBonusStepLb = 5

	// KgPerLb is the exact international avoirdupois pound
	KgPerLb = 0.45359237
)
