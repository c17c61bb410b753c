package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/osse101/CatchLog_Go/internal/bootstrap"
	"github.com/osse101/CatchLog_Go/internal/eventlog"
)

// NewEventsCommand creates the events command
func NewEventsCommand(opts *RootOptions) *cobra.Command {
	var (
		eventType string
		since     time.Duration
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "events <account-id>",
		Short: "List the engine events logged for an account, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			storage, err := bootstrap.OpenStorage(cmd.Context(), cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "open storage", err)
			}
			defer storage.Close()
			if storage.EventLog == nil {
				return WrapExitError(ExitCommandError, "the event log needs STORE=postgres", nil)
			}

			filter := eventlog.Query{AccountID: &args[0], Limit: limit}
			if eventType != "" {
				filter.EventType = &eventType
			}
			if since > 0 {
				from := time.Now().Add(-since)
				filter.Since = &from
			}

			events, err := eventlog.NewService(storage.EventLog).GetEvents(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return output(opts, cmd.OutOrStdout(), events, func(w io.Writer) {
				for _, evt := range events {
					fmt.Fprintf(w, "%s  %-22s %v\n", evt.CreatedAt.Format(time.RFC3339), evt.EventType, evt.Payload)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&eventType, "type", "t", "", "only this event type (e.g. xp.awarded)")
	cmd.Flags().DurationVar(&since, "since", 0, "only events newer than this (e.g. 24h)")
	cmd.Flags().IntVarP(&limit, "limit", "n", eventlog.DefaultQueryLimit, "maximum events to print")
	return cmd
}
