package challenge

import (
	"fmt"
	"strings"

	"github.com/osse101/CatchLog_Go/internal/award"
	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/utils"
)

// Pass is what a single evaluation sees: the triggering catch or session plus
// the history snapshot read at the start of the pass.
type Pass struct {
	Catch    *domain.Catch
	Session  *domain.Session
	Snapshot *HistorySnapshot
}

// Rule describes one challenge. Aggregate rules read Metric; increment rules
// count linked catches that satisfy Qualifies.
type Rule struct {
	Slug      string
	Category  Category
	Kind      Kind
	Target    int
	Trigger   Trigger
	Qualifies func(p *Pass) bool
	Metric    func(s *HistorySnapshot) int
}

// Template expands into a Rule whose slug depends on the triggering catch
type Template struct {
	Pattern   string
	Key       func(p *Pass) (string, bool)
	Category  Category
	Kind      Kind
	Target    int
	Qualifies func(p *Pass) bool
	Metric    func(s *HistorySnapshot) int
}

func always(*Pass) bool { return true }

func hasCatch(p *Pass) bool { return p.Catch != nil }

func catchWhere(pred func(c *domain.Catch) bool) func(p *Pass) bool {
	return func(p *Pass) bool {
		return p.Catch != nil && pred(p.Catch)
	}
}

func hourIn(start, end int) func(c *domain.Catch) bool {
	return func(c *domain.Catch) bool {
		h := c.CaughtAt.Hour()
		if start < end {
			return h >= start && h < end
		}
		return h >= start || h < end
	}
}

func weightAtLeast(kg float64) func(c *domain.Catch) bool {
	return func(c *domain.Catch) bool {
		return c.WeightKg != nil && *c.WeightKg >= kg
	}
}

func weatherMatches(keywords []string) func(c *domain.Catch) bool {
	return func(c *domain.Catch) bool {
		if c.WeatherCondition == nil {
			return false
		}
		cond := strings.ToLower(*c.WeatherCondition)
		for _, k := range keywords {
			if strings.Contains(cond, k) {
				return true
			}
		}
		return false
	}
}

func moonIs(phase string) func(c *domain.Catch) bool {
	return func(c *domain.Catch) bool {
		return c.MoonPhase != nil && NormalizeMoonPhase(*c.MoonPhase) == phase
	}
}

// NormalizeMoonPhase lower-cases and trims a moon phase label
func NormalizeMoonPhase(phase string) string {
	return strings.ToLower(strings.TrimSpace(phase))
}

func windy(c *domain.Catch) bool {
	return c.WindSpeed != nil && *c.WindSpeed >= WindyThresholdMph
}

func specimen(p *Pass) bool {
	if p.Catch == nil || p.Catch.WeightKg == nil || p.Snapshot.SpecimenWeightLb <= 0 {
		return false
	}
	return *p.Catch.WeightKg >= award.LbToKg(p.Snapshot.SpecimenWeightLb)
}

func hasCountry(c *domain.Catch) bool {
	return c.CountryCode != nil && *c.CountryCode != ""
}

func inEurope(c *domain.Catch) bool {
	if !hasCountry(c) {
		return false
	}
	_, ok := EuropeanCountries[utils.NormalizeCountryCode(*c.CountryCode)]
	return ok
}

// locationEligible admits catches with coordinates, or any qualifying session end
func locationEligible(p *Pass) bool {
	if p.Catch != nil {
		return p.Catch.HasCoordinates()
	}
	return p.Session != nil && p.Session.DurationMinutes() >= MinQualifyingSessionMinutes
}

func sessionQualifies(p *Pass) bool {
	return p.Session != nil && p.Session.DurationMinutes() >= MinQualifyingSessionMinutes
}

func totalCatches(s *HistorySnapshot) int       { return s.TotalCatches }
func distinctSpecies(s *HistorySnapshot) int    { return s.DistinctSpecies }
func photographed(s *HistorySnapshot) int       { return s.PhotographedCatches }
func locationBuckets(s *HistorySnapshot) int    { return s.LocationBuckets }
func weekStreak(s *HistorySnapshot) int         { return s.WeekStreak }
func moonPhases(s *HistorySnapshot) int         { return s.MoonPhases }
func countries(s *HistorySnapshot) int          { return len(s.Countries) }
func countryCatches(s *HistorySnapshot) int     { return s.CountryCatches }
func countrySpecies(s *HistorySnapshot) int     { return s.CountrySpecies }
func qualifyingSessions(s *HistorySnapshot) int { return s.QualifyingSessions }

func europeanCountries(s *HistorySnapshot) int {
	n := 0
	for _, cc := range s.Countries {
		if _, ok := EuropeanCountries[cc]; ok {
			n++
		}
	}
	return n
}

func aggregate(slug string, cat Category, target int, metric func(*HistorySnapshot) int, qualifies func(*Pass) bool) Rule {
	return Rule{Slug: slug, Category: cat, Kind: KindAggregate, Target: target, Trigger: TriggerCatch, Qualifies: qualifies, Metric: metric}
}

func increment(slug string, cat Category, target int, qualifies func(*domain.Catch) bool) Rule {
	return Rule{Slug: slug, Category: cat, Kind: KindIncrement, Target: target, Trigger: TriggerCatch, Qualifies: catchWhere(qualifies)}
}

func withTrigger(r Rule, t Trigger) Rule {
	r.Trigger = t
	return r
}

// Rules is the static rule table. Definition targets from the catalog take
// precedence over the defaults here.
var Rules = []Rule{
	aggregate("first_catch", CategoryMilestone, 1, totalCatches, hasCatch),
	aggregate("catches_10", CategoryMilestone, 10, totalCatches, hasCatch),
	aggregate("catches_50", CategoryMilestone, 50, totalCatches, hasCatch),
	aggregate("catches_100", CategoryMilestone, 100, totalCatches, hasCatch),
	aggregate("catches_500", CategoryMilestone, 500, totalCatches, hasCatch),
	aggregate("species_5", CategoryMilestone, 5, distinctSpecies, hasCatch),
	aggregate("species_10", CategoryMilestone, 10, distinctSpecies, hasCatch),
	aggregate("species_25", CategoryMilestone, 25, distinctSpecies, hasCatch),

	aggregate("photos_10", CategoryPhoto, 10, photographed, catchWhere(func(c *domain.Catch) bool { return c.HasPhoto })),
	aggregate("photos_50", CategoryPhoto, 50, photographed, catchWhere(func(c *domain.Catch) bool { return c.HasPhoto })),

	increment("dawn_patrol", CategoryTimeOfDay, 5, hourIn(DawnStartHour, DawnEndHour)),
	increment("early_bird", CategoryTimeOfDay, 10, hourIn(EarlyBirdStartHour, EarlyBirdEndHour)),
	increment("night_owl", CategoryTimeOfDay, 10, hourIn(NightOwlStartHour, NightOwlEndHour)),
	increment("golden_hour", CategoryTimeOfDay, 10, hourIn(GoldenHourStartHour, GoldenHourEndHour)),

	increment("big_fish_5kg", CategoryWeight, 1, weightAtLeast(BigFishKg)),
	increment("big_fish_10kg", CategoryWeight, 1, weightAtLeast(HugeFishKg)),
	{Slug: "specimen_hunter", Category: CategoryWeight, Kind: KindIncrement, Target: 3, Trigger: TriggerCatch, Qualifies: specimen},

	withTrigger(aggregate("explorer_5", CategoryLocation, 5, locationBuckets, locationEligible), TriggerCatch|TriggerSession),
	withTrigger(aggregate("explorer_10", CategoryLocation, 10, locationBuckets, locationEligible), TriggerCatch|TriggerSession),
	withTrigger(aggregate("explorer_25", CategoryLocation, 25, locationBuckets, locationEligible), TriggerCatch|TriggerSession),

	aggregate("streak_4_weeks", CategoryStreak, 4, weekStreak, hasCatch),
	aggregate("streak_8_weeks", CategoryStreak, 8, weekStreak, hasCatch),

	increment("rain_angler", CategoryWeather, 5, weatherMatches(rainKeywords)),
	increment("storm_chaser", CategoryWeather, 1, weatherMatches(stormKeywords)),
	increment("fog_walker", CategoryWeather, 1, weatherMatches(fogKeywords)),
	increment("fair_weather", CategoryWeather, 10, weatherMatches(clearKeywords)),
	increment("windy_day", CategoryWeather, 5, windy),

	increment("full_moon", CategoryMoon, 1, moonIs(MoonPhaseFull)),
	increment("new_moon", CategoryMoon, 1, moonIs(MoonPhaseNew)),
	aggregate("moon_cycle", CategoryMoon, MoonCycleSize, moonPhases, catchWhere(func(c *domain.Catch) bool { return c.MoonPhase != nil })),

	aggregate("countries_3", CategoryCountry, 3, countries, catchWhere(hasCountry)),
	aggregate("countries_5", CategoryCountry, 5, countries, catchWhere(hasCountry)),
	aggregate("countries_10", CategoryCountry, 10, countries, catchWhere(hasCountry)),
	aggregate("european_tour", CategoryCountry, EuropeanTour, europeanCountries, catchWhere(inEurope)),

	withTrigger(aggregate("sessions_10", CategorySession, 10, qualifyingSessions, sessionQualifies), TriggerSession),
	withTrigger(aggregate("sessions_50", CategorySession, 50, qualifyingSessions, sessionQualifies), TriggerSession),
}

func speciesKey(p *Pass) (string, bool) {
	if p.Catch == nil {
		return "", false
	}
	s := utils.SpeciesSlug(p.Catch.Species)
	return s, s != ""
}

func countryKey(p *Pass) (string, bool) {
	if p.Catch == nil || !hasCountry(p.Catch) {
		return "", false
	}
	return strings.ToLower(utils.NormalizeCountryCode(*p.Catch.CountryCode)), true
}

// Templates are the per-species and per-country rules
var Templates = []Template{
	{Pattern: "catch_%s", Key: speciesKey, Category: CategorySpecies, Kind: KindIncrement, Target: 1},

	{Pattern: "%s_first_catch", Key: countryKey, Category: CategoryCountry, Kind: KindAggregate, Target: 1, Metric: countryCatches},
	{Pattern: "%s_catches_10", Key: countryKey, Category: CategoryCountry, Kind: KindAggregate, Target: 10, Metric: countryCatches},
	{Pattern: "%s_catches_50", Key: countryKey, Category: CategoryCountry, Kind: KindAggregate, Target: 50, Metric: countryCatches},
	{Pattern: "%s_species_5", Key: countryKey, Category: CategoryCountry, Kind: KindAggregate, Target: 5, Metric: countrySpecies},
	{Pattern: "%s_species_10", Key: countryKey, Category: CategoryCountry, Kind: KindAggregate, Target: 10, Metric: countrySpecies},
}

// Expand returns the template's rule for the pass, if its key resolves
func (t Template) Expand(p *Pass) (Rule, bool) {
	key, ok := t.Key(p)
	if !ok {
		return Rule{}, false
	}
	return t.rule(key), true
}

func (t Template) rule(key string) Rule {
	return Rule{
		Slug:      fmt.Sprintf(t.Pattern, key),
		Category:  t.Category,
		Kind:      t.Kind,
		Target:    t.Target,
		Trigger:   TriggerCatch,
		Qualifies: t.Qualifies,
		Metric:    t.Metric,
	}
}

// match extracts the key a slug was expanded from
func (t Template) match(slug string) (string, bool) {
	prefix, suffix, _ := strings.Cut(t.Pattern, "%s")
	if !strings.HasPrefix(slug, prefix) || !strings.HasSuffix(slug, suffix) {
		return "", false
	}
	if len(slug) <= len(prefix)+len(suffix) {
		return "", false
	}
	return slug[len(prefix) : len(slug)-len(suffix)], true
}

// ResolveRule finds the rule behind a stored slug. For template rules key is
// the species or country the slug was expanded from.
func ResolveRule(slug string) (rule Rule, key string, ok bool) {
	for _, r := range Rules {
		if r.Slug == slug {
			return r, "", true
		}
	}
	for _, t := range Templates {
		if key, ok := t.match(slug); ok {
			return t.rule(key), key, true
		}
	}
	return Rule{}, "", false
}

// RulesFor returns the rules the pass considers, in table order with expanded templates last
func RulesFor(p *Pass, trigger Trigger) []Rule {
	out := make([]Rule, 0, len(Rules)+len(Templates))
	for _, r := range Rules {
		if r.Trigger&trigger == 0 {
			continue
		}
		if r.Qualifies != nil && !r.Qualifies(p) {
			continue
		}
		out = append(out, r)
	}
	if trigger&TriggerCatch == 0 {
		return out
	}
	for _, t := range Templates {
		r, ok := t.Expand(p)
		if !ok {
			continue
		}
		if r.Qualifies != nil && !r.Qualifies(p) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// evaluatesCountries reports whether any country-scoped rule is in the list
func evaluatesCountries(rules []Rule) bool {
	for _, r := range rules {
		if r.Category == CategoryCountry {
			return true
		}
	}
	return false
}
