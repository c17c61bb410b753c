// Package catalog owns challenge definitions and the species specimen table:
// loading them from JSON, syncing them to storage, and serving cached lookups
// to the evaluator.
package catalog

import (
	"context"
	"time"

	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/repository"
	"github.com/osse101/CatchLog_Go/internal/utils"
)

// Catalog serves definition and specimen lookups through expiring caches
type Catalog struct {
	repo        repository.Catalog
	definitions *lookupCache[domain.ChallengeDefinition]
	species     *lookupCache[float64]
}

// New creates a cached catalog over repo
func New(repo repository.Catalog, size int, ttl time.Duration) *Catalog {
	return &Catalog{
		repo:        repo,
		definitions: newLookupCache[domain.ChallengeDefinition](size, ttl),
		species:     newLookupCache[float64](size, ttl),
	}
}

// GetChallengeDefinition returns the definition for slug, or nil, nil when unknown
func (c *Catalog) GetChallengeDefinition(ctx context.Context, slug string) (*domain.ChallengeDefinition, error) {
	if entry, ok := c.definitions.Get(slug); ok {
		if !entry.Found {
			return nil, nil
		}
		def := entry.Value
		return &def, nil
	}

	def, err := c.repo.GetChallengeDefinition(ctx, slug)
	if err != nil {
		return nil, err
	}
	if def == nil {
		c.definitions.Set(slug, domain.ChallengeDefinition{}, false)
		return nil, nil
	}
	c.definitions.Set(slug, *def, true)
	return def, nil
}

// SpecimenWeightLb returns the species' specimen threshold, or 0 when the species is not catalogued
func (c *Catalog) SpecimenWeightLb(ctx context.Context, species string) (float64, error) {
	key := utils.NormalizeSpecies(species)
	if entry, ok := c.species.Get(key); ok {
		return entry.Value, nil
	}

	info, err := c.repo.GetSpecies(ctx, species)
	if err != nil {
		return 0, err
	}
	if info == nil {
		c.species.Set(key, 0, false)
		return 0, nil
	}
	c.species.Set(key, info.SpecimenWeightLb, true)
	return info.SpecimenWeightLb, nil
}

// ListChallengeDefinitions bypasses the cache
func (c *Catalog) ListChallengeDefinitions(ctx context.Context) ([]domain.ChallengeDefinition, error) {
	return c.repo.ListChallengeDefinitions(ctx)
}

// Invalidate drops every cached lookup, e.g. after a catalog sync
func (c *Catalog) Invalidate() {
	c.definitions.Clear()
	c.species.Clear()
}

// Sync loads the catalog file, validates it, upserts it and invalidates the caches
func (c *Catalog) Sync(ctx context.Context, loader Loader, path string) (*SyncResult, error) {
	cfg, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if err := loader.Validate(cfg); err != nil {
		return nil, err
	}
	result, err := loader.SyncToDatabase(ctx, cfg, c.repo)
	if err != nil {
		return nil, err
	}
	c.Invalidate()
	return result, nil
}
