package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osse101/CatchLog_Go/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func slugs(rules []Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Slug)
	}
	return out
}

func catchAt(hour, minute int) *domain.Catch {
	return &domain.Catch{ID: "c", Species: "Pike", HasPhoto: true, CaughtAt: time.Date(2024, 6, 3, hour, minute, 0, 0, time.UTC)}
}

func TestRules_UniqueSlugs(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Rules {
		assert.False(t, seen[r.Slug], "duplicate slug %s", r.Slug)
		seen[r.Slug] = true
		assert.Positive(t, r.Target, r.Slug)
		if r.Kind == KindAggregate {
			assert.NotNil(t, r.Metric, r.Slug)
		}
	}
}

func TestTimeOfDayWindows(t *testing.T) {
	tests := []struct {
		hour, minute int
		expected     []string
	}{
		{3, 59, []string{"night_owl"}},
		{4, 0, []string{"dawn_patrol", "night_owl"}},
		{5, 30, []string{"dawn_patrol", "early_bird"}},
		{6, 0, []string{"early_bird"}},
		{7, 0, nil},
		{17, 59, nil},
		{18, 0, []string{"golden_hour"}},
		{19, 59, []string{"golden_hour"}},
		{21, 59, nil},
		{22, 0, []string{"night_owl"}},
	}

	for _, tt := range tests {
		pass := &Pass{Catch: catchAt(tt.hour, tt.minute), Snapshot: &HistorySnapshot{}}
		var got []string
		for _, r := range RulesFor(pass, TriggerCatch) {
			if r.Category == CategoryTimeOfDay {
				got = append(got, r.Slug)
			}
		}
		assert.ElementsMatch(t, tt.expected, got, "%02d:%02d", tt.hour, tt.minute)
	}
}

func TestWeatherAndMoonPredicates(t *testing.T) {
	c := catchAt(12, 0)
	c.WeatherCondition = ptr("Light Drizzle with Thunderstorms")
	c.WindSpeed = ptr(15.0)
	c.MoonPhase = ptr(" Full Moon ")

	got := slugs(RulesFor(&Pass{Catch: c, Snapshot: &HistorySnapshot{}}, TriggerCatch))

	assert.Contains(t, got, "rain_angler")
	assert.Contains(t, got, "storm_chaser")
	assert.Contains(t, got, "windy_day")
	assert.Contains(t, got, "full_moon")
	assert.Contains(t, got, "moon_cycle")
	assert.NotContains(t, got, "fog_walker")
	assert.NotContains(t, got, "fair_weather")
	assert.NotContains(t, got, "new_moon")

	c.WindSpeed = ptr(14.9)
	c.MoonPhase = ptr("Waxing Gibbous")
	c.WeatherCondition = ptr("Mist, then sunny")
	got = slugs(RulesFor(&Pass{Catch: c, Snapshot: &HistorySnapshot{}}, TriggerCatch))
	assert.NotContains(t, got, "windy_day")
	assert.NotContains(t, got, "full_moon")
	assert.Contains(t, got, "fog_walker")
	assert.Contains(t, got, "fair_weather")
}

func TestWeightPredicates(t *testing.T) {
	c := catchAt(12, 0)
	c.WeightKg = ptr(9.5)

	// 20 lb is about 9.07 kg
	got := slugs(RulesFor(&Pass{Catch: c, Snapshot: &HistorySnapshot{SpecimenWeightLb: 20}}, TriggerCatch))
	assert.Contains(t, got, "big_fish_5kg")
	assert.NotContains(t, got, "big_fish_10kg")
	assert.Contains(t, got, "specimen_hunter")

	got = slugs(RulesFor(&Pass{Catch: c, Snapshot: &HistorySnapshot{SpecimenWeightLb: 25}}, TriggerCatch))
	assert.NotContains(t, got, "specimen_hunter")

	got = slugs(RulesFor(&Pass{Catch: c, Snapshot: &HistorySnapshot{}}, TriggerCatch))
	assert.NotContains(t, got, "specimen_hunter", "uncatalogued species never qualify")
}

func TestTemplates_Expand(t *testing.T) {
	c := catchAt(12, 0)
	c.Species = "Largemouth Bass"
	c.CountryCode = ptr("ie")

	got := slugs(RulesFor(&Pass{Catch: c, Snapshot: &HistorySnapshot{}}, TriggerCatch))

	assert.Contains(t, got, "catch_largemouth_bass")
	assert.Contains(t, got, "ie_first_catch")
	assert.Contains(t, got, "ie_species_10")
	assert.Contains(t, got, "european_tour")
	assert.Contains(t, got, "countries_3")

	c.CountryCode = ptr("US")
	got = slugs(RulesFor(&Pass{Catch: c, Snapshot: &HistorySnapshot{}}, TriggerCatch))
	assert.Contains(t, got, "us_catches_50")
	assert.NotContains(t, got, "european_tour")
}

func TestResolveRule(t *testing.T) {
	tests := []struct {
		slug string
		kind Kind
		key  string
		ok   bool
	}{
		{"catches_10", KindAggregate, "", true},
		{"dawn_patrol", KindIncrement, "", true},
		{"catch_largemouth_bass", KindIncrement, "largemouth_bass", true},
		{"gb_catches_10", KindAggregate, "gb", true},
		{"ie_species_5", KindAggregate, "ie", true},
		{"_first_catch", 0, "", false},
		{"catch_", 0, "", false},
		{"retired_challenge", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			rule, key, ok := ResolveRule(tt.slug)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.slug, rule.Slug)
			assert.Equal(t, tt.kind, rule.Kind)
			assert.Equal(t, tt.key, key)
		})
	}

	rule, key, _ := ResolveRule("gb_species_5")
	snap := &HistorySnapshot{CountrySpecies: 3}
	assert.Equal(t, "gb", key)
	assert.Equal(t, 3, rule.Metric(snap))
	assert.Equal(t, 5, rule.Target)
}

func TestRulesFor_SessionTrigger(t *testing.T) {
	start := time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC)
	long := &domain.Session{ID: "s", StartedAt: start, EndedAt: ptr(start.Add(15 * time.Minute))}
	short := &domain.Session{ID: "s", StartedAt: start, EndedAt: ptr(start.Add(14 * time.Minute))}

	got := slugs(RulesFor(&Pass{Session: long, Snapshot: &HistorySnapshot{}}, TriggerSession))
	assert.ElementsMatch(t, []string{"explorer_5", "explorer_10", "explorer_25", "sessions_10", "sessions_50"}, got)

	assert.Empty(t, RulesFor(&Pass{Session: short, Snapshot: &HistorySnapshot{}}, TriggerSession))
}

func TestEuropeanTourMetric(t *testing.T) {
	s := &HistorySnapshot{Countries: []string{"DE", "FR", "GB", "US"}}
	assert.Equal(t, 3, europeanCountries(s))
	assert.Equal(t, 4, countries(s))
}

func TestNormalizeCountries(t *testing.T) {
	assert.Equal(t, []string{"FR", "GB"}, NormalizeCountries([]string{"gb", " GB", "fr", ""}))
	assert.Equal(t, 2, countDistinctPhases([]string{"Full Moon", "full moon ", "New Moon", ""}))
}
