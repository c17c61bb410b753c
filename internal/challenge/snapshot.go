package challenge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/repository"
	"github.com/osse101/CatchLog_Go/internal/streak"
	"github.com/osse101/CatchLog_Go/internal/utils"
)

// HistorySnapshot holds every aggregate the rules read. It is loaded once at the
// start of a pass and never changes while rules run.
type HistorySnapshot struct {
	TotalCatches        int
	DistinctSpecies     int
	PhotographedCatches int
	LocationBuckets     int
	Countries           []string
	CountryCatches      int
	CountrySpecies      int
	MoonPhases          int
	WeekStreak          int
	QualifyingSessions  int
	SpecimenWeightLb    float64
}

// SpeciesLookup resolves a species' specimen threshold in pounds
type SpeciesLookup interface {
	SpecimenWeightLb(ctx context.Context, species string) (float64, error)
}

func lookupErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrLookupFailure, what, err)
}

// LoadSnapshot reads the account's history. c may be nil for session passes.
// Week buckets use loc, the account's local zone; a nil loc keeps each
// timestamp in the zone it was stored with.
func LoadSnapshot(ctx context.Context, h repository.History, species SpeciesLookup, accountID string, c *domain.Catch, loc *time.Location) (*HistorySnapshot, error) {
	s := &HistorySnapshot{}
	var err error

	if s.TotalCatches, err = h.CountCatches(ctx, accountID); err != nil {
		return nil, lookupErr("count catches", err)
	}
	if s.DistinctSpecies, err = h.DistinctSpeciesCount(ctx, accountID); err != nil {
		return nil, lookupErr("distinct species", err)
	}
	if s.PhotographedCatches, err = h.CountPhotographedCatches(ctx, accountID); err != nil {
		return nil, lookupErr("photographed catches", err)
	}
	if s.LocationBuckets, err = h.DistinctPhotographedLocationBuckets(ctx, accountID, MinQualifyingSessionMinutes); err != nil {
		return nil, lookupErr("location buckets", err)
	}
	if s.QualifyingSessions, err = h.CountQualifyingSessions(ctx, accountID, MinQualifyingSessionMinutes); err != nil {
		return nil, lookupErr("qualifying sessions", err)
	}

	codes, err := h.DistinctCountryCodes(ctx, accountID)
	if err != nil {
		return nil, lookupErr("distinct countries", err)
	}
	s.Countries = NormalizeCountries(codes)

	phases, err := h.DistinctMoonPhases(ctx, accountID)
	if err != nil {
		return nil, lookupErr("moon phases", err)
	}
	s.MoonPhases = countDistinctPhases(phases)

	timestamps, err := h.CatchTimestamps(ctx, accountID)
	if err != nil {
		return nil, lookupErr("catch timestamps", err)
	}
	local := make([]time.Time, len(timestamps))
	for i, ts := range timestamps {
		if loc != nil {
			ts = ts.In(loc)
		}
		local[i] = ts
	}
	s.WeekStreak = streak.ConsecutiveWeeks(local)

	if c == nil {
		return s, nil
	}

	if c.CountryCode != nil && *c.CountryCode != "" {
		cc := utils.NormalizeCountryCode(*c.CountryCode)
		if s.CountryCatches, err = h.CountryCatchCount(ctx, accountID, cc); err != nil {
			return nil, lookupErr("country catches", err)
		}
		if s.CountrySpecies, err = h.CountrySpeciesCount(ctx, accountID, cc); err != nil {
			return nil, lookupErr("country species", err)
		}
	}

	if species != nil && c.WeightKg != nil {
		if s.SpecimenWeightLb, err = species.SpecimenWeightLb(ctx, c.Species); err != nil {
			return nil, lookupErr("specimen weight", err)
		}
	}

	return s, nil
}

// NormalizeCountries upper-cases, de-duplicates and sorts country codes
func NormalizeCountries(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		cc := utils.NormalizeCountryCode(code)
		if cc == "" {
			continue
		}
		if _, ok := seen[cc]; ok {
			continue
		}
		seen[cc] = struct{}{}
		out = append(out, cc)
	}
	sort.Strings(out)
	return out
}

func countDistinctPhases(phases []string) int {
	seen := make(map[string]struct{}, len(phases))
	for _, p := range phases {
		if n := NormalizeMoonPhase(p); n != "" {
			seen[n] = struct{}{}
		}
	}
	return len(seen)
}
