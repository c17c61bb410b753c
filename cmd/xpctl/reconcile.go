package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/osse101/CatchLog_Go/internal/bootstrap"
	"github.com/osse101/CatchLog_Go/internal/catalog"
	"github.com/osse101/CatchLog_Go/internal/gamification"
	"github.com/osse101/CatchLog_Go/internal/ratelimit"
	"github.com/osse101/CatchLog_Go/internal/worker"
)

type reconcileOutput struct {
	AccountID  string `json:"account_id"`
	PreviousXP int64  `json:"previous_xp"`
	LedgerXP   int64  `json:"ledger_xp"`
	Level      int    `json:"level"`
	Drift      int64  `json:"drift"`
}

// NewReconcileCommand creates the reconcile command
func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	var (
		all         bool
		workers     int
		failOnDrift bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile [account-id]",
		Short: "Rebuild XP, level and countries from the ledger",
		Long: `Rebuild one account's XP, level and cached countries from its XP ledger
and catch history, or every account with --all.

Drift means a write bypassed the ledger. With --fail-on-drift the command
exits 1 when any was corrected.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return WrapExitError(ExitCommandError, "pass exactly one of <account-id> or --all", nil)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			storage, err := bootstrap.OpenStorage(ctx, cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "open storage", err)
			}
			defer storage.Close()

			svc := gamification.NewService(
				storage.Store,
				catalog.New(storage.Store, cfg.CacheSize, cfg.CacheTTL),
				ratelimit.NewLimiter(cfg.RateLimitHourly, cfg.RateLimitDaily),
				nil,
			)

			var drifted int
			if all {
				if workers <= 0 {
					workers = cfg.ReconcileWorkers
				}
				summary, err := worker.NewReconcileWorker(svc, storage.Store, workers, cfg.ReconcileInterval).RunOnce(ctx)
				if err != nil {
					return err
				}
				drifted = summary.Drifted
				if err := output(opts, cmd.OutOrStdout(), summary, func(w io.Writer) {
					fmt.Fprintf(w, "accounts: %d\ndrifted: %d\nfailed: %d\n", summary.Accounts, summary.Drifted, summary.Failed)
				}); err != nil {
					return err
				}
				if summary.Failed > 0 {
					return WrapExitError(ExitFailure, fmt.Sprintf("%d accounts failed to reconcile", summary.Failed), nil)
				}
			} else {
				result, err := svc.Reconcile(ctx, args[0])
				if err != nil {
					return err
				}
				out := reconcileOutput{
					AccountID:  result.AccountID,
					PreviousXP: result.PreviousXP,
					LedgerXP:   result.LedgerXP,
					Level:      result.Level,
					Drift:      result.Drift(),
				}
				if out.Drift != 0 {
					drifted = 1
				}
				if err := output(opts, cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintf(w, "account: %s\nxp: %d -> %d\nlevel: %d\n", out.AccountID, out.PreviousXP, out.LedgerXP, out.Level)
				}); err != nil {
					return err
				}
			}

			if failOnDrift && drifted > 0 {
				return WrapExitError(ExitFailure, fmt.Sprintf("drift corrected on %d accounts", drifted), nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "reconcile every known account")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel accounts with --all (default: RECONCILE_WORKERS)")
	cmd.Flags().BoolVar(&failOnDrift, "fail-on-drift", false, "exit 1 when drift was corrected")
	return cmd
}
