package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/osse101/CatchLog_Go/internal/challenge"
	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/logger"
	"github.com/osse101/CatchLog_Go/internal/repository"
	"github.com/osse101/CatchLog_Go/internal/utils"
	"github.com/osse101/CatchLog_Go/internal/validation"
)

//go:embed schemas/challenges.schema.json
var catalogSchema []byte

var countryCodePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Config is the JSON challenge and species catalog
type Config struct {
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Challenges  []Def        `json:"challenges"`
	Species     []SpeciesDef `json:"species"`
}

// Def is a single challenge definition in the JSON
type Def struct {
	Slug        string                `json:"slug"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Target      int                   `json:"target"`
	XPReward    int                   `json:"xp_reward"`
	Scope       domain.ChallengeScope `json:"scope,omitempty"`
	ScopeValue  *string               `json:"scope_value,omitempty"`
	Active      *bool                 `json:"active,omitempty"`
}

// SpeciesDef is a single species catalog entry in the JSON
type SpeciesDef struct {
	Name             string  `json:"name"`
	SpecimenWeightLb float64 `json:"specimen_weight_lb"`
}

// ToDomain converts the JSON definition; scope defaults to global and active to true
func (d Def) ToDomain() domain.ChallengeDefinition {
	scope := d.Scope
	if scope == "" {
		scope = domain.ScopeGlobal
	}
	active := true
	if d.Active != nil {
		active = *d.Active
	}
	return domain.ChallengeDefinition{
		Slug:        d.Slug,
		Name:        d.Name,
		Description: d.Description,
		Target:      d.Target,
		XPReward:    d.XPReward,
		Scope:       scope,
		ScopeValue:  d.ScopeValue,
		Active:      active,
	}
}

// Loader handles loading, validating and syncing the catalog
type Loader interface {
	Load(path string) (*Config, error)
	Parse(data []byte) (*Config, error)
	Validate(config *Config) error
	SyncToDatabase(ctx context.Context, config *Config, repo repository.Catalog) (*SyncResult, error)
}

// SyncResult contains the result of syncing the catalog to the database
type SyncResult struct {
	ChallengesInserted int
	ChallengesUpdated  int
	ChallengesSkipped  int
	SpeciesUpserted    int
	UndefinedRules     []string
}

type catalogLoader struct {
	schemaValidator validation.SchemaValidator
}

// NewLoader creates a new Loader instance
func NewLoader() Loader {
	return &catalogLoader{
		schemaValidator: validation.NewSchemaValidator(),
	}
}

// Load reads and parses a catalog JSON file
func (l *catalogLoader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgReadConfigFileFailed, err)
	}
	cfg, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates raw JSON against the embedded schema and decodes it
func (l *catalogLoader) Parse(data []byte) (*Config, error) {
	if err := l.schemaValidator.Register(SchemaName, catalogSchema); err != nil {
		return nil, err
	}
	if err := l.schemaValidator.Validate(SchemaName, data); err != nil {
		return nil, fmt.Errorf("%w: "+ErrMsgSchemaFailed, domain.ErrInvalidCatalog, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(ErrMsgParseConfigFailed, err)
	}
	return &config, nil
}

// Validate checks the rules the schema cannot express
func (l *catalogLoader) Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", domain.ErrInvalidCatalog)
	}
	if len(config.Challenges) == 0 {
		return fmt.Errorf("%w: no challenges defined", domain.ErrInvalidCatalog)
	}

	slugs := make(map[string]bool, len(config.Challenges))
	for i, def := range config.Challenges {
		if def.Slug == "" {
			return fmt.Errorf("%w: challenge at index %d has empty slug", domain.ErrInvalidCatalog, i)
		}
		if slugs[def.Slug] {
			return fmt.Errorf("%w: duplicate slug '%s'", domain.ErrInvalidCatalog, def.Slug)
		}
		slugs[def.Slug] = true

		if def.Target <= 0 {
			return fmt.Errorf("%w: challenge '%s' has non-positive target", domain.ErrInvalidCatalog, def.Slug)
		}
		if def.XPReward < 0 {
			return fmt.Errorf("%w: challenge '%s' has negative xp_reward", domain.ErrInvalidCatalog, def.Slug)
		}
		if def.Scope == domain.ScopeCountry {
			if def.ScopeValue == nil || !countryCodePattern.MatchString(*def.ScopeValue) {
				return fmt.Errorf("%w: country challenge '%s' needs a two-letter scope_value", domain.ErrInvalidCatalog, def.Slug)
			}
		}
	}

	species := make(map[string]bool, len(config.Species))
	for _, sp := range config.Species {
		key := utils.NormalizeSpecies(sp.Name)
		if key == "" {
			return fmt.Errorf("%w: species with empty name", domain.ErrInvalidCatalog)
		}
		if species[key] {
			return fmt.Errorf("%w: duplicate species '%s'", domain.ErrInvalidCatalog, sp.Name)
		}
		species[key] = true
		if sp.SpecimenWeightLb <= 0 {
			return fmt.Errorf("%w: species '%s' needs a positive specimen weight", domain.ErrInvalidCatalog, sp.Name)
		}
	}

	return nil
}

// UndefinedRuleSlugs lists static rules that have no definition in the config
func UndefinedRuleSlugs(config *Config) []string {
	defined := make(map[string]bool, len(config.Challenges))
	for _, def := range config.Challenges {
		defined[def.Slug] = true
	}
	var missing []string
	for _, rule := range challenge.Rules {
		if !defined[rule.Slug] {
			missing = append(missing, rule.Slug)
		}
	}
	sort.Strings(missing)
	return missing
}

// SyncToDatabase upserts every definition and species idempotently
func (l *catalogLoader) SyncToDatabase(ctx context.Context, config *Config, repo repository.Catalog) (*SyncResult, error) {
	log := logger.FromContext(ctx)

	existing, err := repo.ListChallengeDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgListDefinitionsFail, err)
	}
	bySlug := make(map[string]domain.ChallengeDefinition, len(existing))
	for _, def := range existing {
		bySlug[def.Slug] = def
	}

	result := &SyncResult{}
	for _, d := range config.Challenges {
		def := d.ToDomain()
		if current, ok := bySlug[def.Slug]; ok && sameDefinition(current, def) {
			result.ChallengesSkipped++
			continue
		}

		inserted, err := repo.UpsertChallengeDefinition(ctx, &def)
		if err != nil {
			return nil, fmt.Errorf(ErrMsgUpsertDefinitionFail, def.Slug, err)
		}
		if inserted {
			result.ChallengesInserted++
			log.Info(LogMsgInsertedChallenge, "slug", def.Slug, "id", def.ID)
		} else {
			result.ChallengesUpdated++
			log.Info(LogMsgUpdatedChallenge, "slug", def.Slug)
		}
	}

	for _, sp := range config.Species {
		if err := repo.UpsertSpecies(ctx, domain.SpeciesInfo{Name: sp.Name, SpecimenWeightLb: sp.SpecimenWeightLb}); err != nil {
			return nil, fmt.Errorf(ErrMsgUpsertSpeciesFail, sp.Name, err)
		}
		result.SpeciesUpserted++
	}

	if result.UndefinedRules = UndefinedRuleSlugs(config); len(result.UndefinedRules) > 0 {
		log.Warn(LogMsgUndefinedRules, "slugs", result.UndefinedRules)
	}

	log.Info(LogMsgSyncCompleted,
		"inserted", result.ChallengesInserted,
		"updated", result.ChallengesUpdated,
		"skipped", result.ChallengesSkipped,
		"species", result.SpeciesUpserted)

	return result, nil
}

func sameDefinition(a, b domain.ChallengeDefinition) bool {
	return a.Name == b.Name &&
		a.Description == b.Description &&
		a.Target == b.Target &&
		a.XPReward == b.XPReward &&
		a.Scope == b.Scope &&
		a.Active == b.Active &&
		equalStringPtr(a.ScopeValue, b.ScopeValue)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
