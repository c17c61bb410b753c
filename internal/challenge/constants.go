package challenge

// Category groups rules for logging and catalog organisation
type Category string

const (
	CategoryMilestone Category = "milestone"
	CategorySpecies   Category = "species"
	CategoryPhoto     Category = "photo"
	CategoryTimeOfDay Category = "time_of_day"
	CategoryWeight    Category = "weight"
	CategoryLocation  Category = "location"
	CategoryStreak    Category = "streak"
	CategoryWeather   Category = "weather"
	CategoryMoon      Category = "moon"
	CategoryCountry   Category = "country"
	CategorySession   Category = "session"
)

// Kind selects how a rule turns history into progress
type Kind int

const (
	// KindAggregate sets progress from a snapshot metric
	KindAggregate Kind = iota
	// KindIncrement adds one per distinct qualifying catch
	KindIncrement
)

// Trigger is a bitmask of the passes that consider a rule
type Trigger int

const (
	TriggerCatch Trigger = 1 << iota
	TriggerSession
)

// Thresholds
const (
	// MinQualifyingSessionMinutes is the session length that unlocks location and session rules
	MinQualifyingSessionMinutes = 15.0

	// WindyThresholdMph is the wind speed that counts toward windy_day
	WindyThresholdMph = 15.0

	BigFishKg     = 5.0
	HugeFishKg    = 10.0
	EuropeanTour  = 3
	MoonCycleSize = 4
)

// Hour windows, [start, end) in the catch's local time
const (
	DawnStartHour       = 4
	DawnEndHour         = 6
	EarlyBirdStartHour  = 5
	EarlyBirdEndHour    = 7
	NightOwlStartHour   = 22
	NightOwlEndHour     = 5
	GoldenHourStartHour = 18
	GoldenHourEndHour   = 20
)

// Moon phases matched case-insensitively after trimming
const (
	MoonPhaseFull = "full moon"
	MoonPhaseNew  = "new moon"
)

var (
	rainKeywords  = []string{"rain", "drizzle", "shower"}
	stormKeywords = []string{"thunder", "storm"}
	fogKeywords   = []string{"fog", "mist"}
	clearKeywords = []string{"clear", "sunny"}
)

// EuropeanCountries counts toward european_tour
var EuropeanCountries = map[string]struct{}{
	"GB": {}, "IE": {}, "FR": {}, "ES": {}, "PT": {}, "DE": {}, "NL": {}, "BE": {},
	"IT": {}, "NO": {}, "SE": {}, "FI": {}, "DK": {}, "AT": {}, "CH": {}, "PL": {},
}

// Log messages
const (
	LogMsgGateClosed       = "Challenge evaluation skipped: catch has no photo"
	LogMsgRuleSkipped      = "Challenge rule skipped"
	LogMsgRuleConflict     = "Challenge progress conflict, retrying"
	LogMsgChallengeDone    = "Challenge completed"
	LogMsgCountriesUpdated = "Cached country list updated"
	LogMsgProgressLowered  = "Challenge progress lowered after catch removal"
)
