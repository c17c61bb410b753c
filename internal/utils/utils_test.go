package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekStart(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)

	tests := []struct {
		in       time.Time
		expected time.Time
	}{
		// Wednesday
		{time.Date(2026, 10, 14, 15, 4, 0, 0, loc), time.Date(2026, 10, 12, 0, 0, 0, 0, loc)},
		// Monday midnight is its own week start
		{time.Date(2026, 10, 12, 0, 0, 0, 0, loc), time.Date(2026, 10, 12, 0, 0, 0, 0, loc)},
		// Sunday belongs to the week that started six days earlier
		{time.Date(2026, 10, 18, 23, 59, 0, 0, loc), time.Date(2026, 10, 12, 0, 0, 0, 0, loc)},
		// Across a month boundary
		{time.Date(2026, 11, 1, 8, 0, 0, 0, loc), time.Date(2026, 10, 26, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		got := WeekStart(tt.in)
		assert.True(t, tt.expected.Equal(got), "in=%s got=%s", tt.in, got)
	}
}

func TestWeekKey(t *testing.T) {
	assert.Equal(t, "2026-10-12", WeekKey(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)))
}

func TestLocationBucket(t *testing.T) {
	assert.Equal(t, "51.51,-0.13", LocationBucket(51.5074, -0.1278))
	assert.Equal(t, LocationBucket(51.5071, -0.1281), LocationBucket(51.5074, -0.1278))
	assert.NotEqual(t, LocationBucket(51.52, -0.13), LocationBucket(51.5074, -0.1278))
	assert.Equal(t, "0.00,0.00", LocationBucket(-0.001, 0.001))
}

func TestNormalizeSpecies(t *testing.T) {
	assert.Equal(t, "largemouth bass", NormalizeSpecies("  Largemouth   BASS "))
	assert.Equal(t, NormalizeSpecies("bass"), NormalizeSpecies("Bass"))
}

func TestSpeciesSlug(t *testing.T) {
	assert.Equal(t, "largemouth_bass", SpeciesSlug("Largemouth Bass"))
	assert.Equal(t, "brown_trout", SpeciesSlug("brown  trout"))
}

func TestNormalizeCountryCode(t *testing.T) {
	assert.Equal(t, "GB", NormalizeCountryCode(" gb "))
}
