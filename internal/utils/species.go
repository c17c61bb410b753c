package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
)

var speciesFolder = cases.Fold()

// NormalizeSpecies returns the case-folded, whitespace-collapsed key used for
// case-insensitive species matching.
func NormalizeSpecies(species string) string {
	return speciesFolder.String(strings.Join(strings.Fields(species), " "))
}

// SpeciesSlug returns the URL-safe slug used in species challenge slugs
// ("Largemouth Bass" -> "largemouth_bass").
func SpeciesSlug(species string) string {
	return strings.ReplaceAll(slug.Make(NormalizeSpecies(species)), "-", "_")
}

// NormalizeCountryCode upper-cases and trims an ISO 3166-1 alpha-2 code
func NormalizeCountryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
