package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/leveling"
)

type levelOutput struct {
	XP          int64                `json:"xp"`
	Level       int                  `json:"level"`
	Tier        leveling.Tier        `json:"tier"`
	NextLevelAt int64                `json:"next_level_at"`
	Progress    domain.LevelProgress `json:"progress"`
}

// NewLevelCommand creates the level command
func NewLevelCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "level <xp>",
		Short: "Show the level, tier and progress for an XP total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xp, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid xp %q", args[0]), err)
			}

			level := leveling.LevelForXP(xp)
			out := levelOutput{
				XP:          xp,
				Level:       level,
				Tier:        leveling.TierForLevel(level),
				NextLevelAt: leveling.XPForNextLevel(level),
				Progress:    leveling.ProgressWithinLevel(xp, level),
			}
			return output(opts, cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "level %d (%s), %d/%d to next (%d%%)\n",
					out.Level, out.Tier, out.Progress.Current, out.Progress.Needed, out.Progress.Percentage)
			})
		},
	}
}
