package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/osse101/CatchLog_Go/internal/bootstrap"
	"github.com/osse101/CatchLog_Go/internal/catalog"
)

type catalogCheck struct {
	Valid          bool     `json:"valid"`
	Challenges     int      `json:"challenges"`
	Species        int      `json:"species"`
	UndefinedRules []string `json:"undefined_rules,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// NewSyncCatalogCommand creates the sync-catalog command
func NewSyncCatalogCommand(opts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "sync-catalog",
		Short: "Upsert the challenge and species catalog into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.CatalogPath
			}

			storage, err := bootstrap.OpenStorage(cmd.Context(), cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "open storage", err)
			}
			defer storage.Close()

			result, err := bootstrap.SyncCatalog(cmd.Context(), catalog.New(storage.Store, cfg.CacheSize, cfg.CacheTTL), path)
			if err != nil {
				return err
			}
			return output(opts, cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintf(w, "inserted: %d\nupdated: %d\nskipped: %d\nspecies: %d\n",
					result.ChallengesInserted, result.ChallengesUpdated, result.ChallengesSkipped, result.SpeciesUpserted)
			})
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "catalog file (default: CATALOG_PATH)")
	return cmd
}

// NewValidateCatalogCommand creates the validate-catalog command. It needs no database.
func NewValidateCatalogCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-catalog <path>",
		Short: "Check a catalog file without writing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			check, err := validateCatalog(args[0])
			if outErr := output(opts, cmd.OutOrStdout(), check, func(w io.Writer) {
				if check.Valid {
					fmt.Fprintf(w, "valid: %d challenges, %d species\n", check.Challenges, check.Species)
				} else {
					fmt.Fprintf(w, "invalid: %s\n", check.Error)
				}
				for _, slug := range check.UndefinedRules {
					fmt.Fprintf(w, "warning: %s has no evaluation rule\n", slug)
				}
			}); outErr != nil {
				return outErr
			}
			if err != nil {
				return WrapExitError(ExitFailure, "catalog invalid", err)
			}
			return nil
		},
	}
}

func validateCatalog(path string) (catalogCheck, error) {
	loader := catalog.NewLoader()
	cfg, err := loader.Load(path)
	if err == nil {
		err = loader.Validate(cfg)
	}
	if err != nil {
		return catalogCheck{Error: err.Error()}, err
	}
	return catalogCheck{
		Valid:          true,
		Challenges:     len(cfg.Challenges),
		Species:        len(cfg.Species),
		UndefinedRules: catalog.UndefinedRuleSlugs(cfg),
	}, nil
}
