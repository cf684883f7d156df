package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/ipc"
)

const eventsPollInterval = time.Second

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var afterSeq uint64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent pipeline events",
		Long:  "Show buffered pipeline events, oldest first. With --follow, keep polling for new ones.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				cursor := afterSeq
				for {
					resp, err := client.Events(cursor, 0)
					if err != nil {
						return err
					}
					for _, event := range resp.Events {
						if jsonOutput {
							if err := writeJSON(cmd, event); err != nil {
								return err
							}
							continue
						}
						fmt.Fprintln(out, formatEventLine(event))
					}
					cursor = resp.NextSeq
					if !follow {
						if len(resp.Events) == 0 && !jsonOutput {
							fmt.Fprintln(out, "No events")
						}
						return nil
					}
					select {
					case <-cmd.Context().Done():
						err := cmd.Context().Err()
						if errors.Is(err, context.Canceled) {
							return nil
						}
						return err
					case <-time.After(eventsPollInterval):
					}
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling for new events")
	cmd.Flags().Uint64Var(&afterSeq, "after", 0, "Only show events after this sequence number")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit events as JSON")
	return cmd
}

func formatEventLine(event ipc.Event) string {
	ts := event.Timestamp.Local().Format("15:04:05")
	if event.Job != nil {
		job := *event.Job
		return fmt.Sprintf("%s  %-11s  %s  %s  %s",
			ts, event.Kind, shortID(job.ID), truncate(job.EventID, 28), formatJobStatusDetail(job))
	}
	if event.Detail != "" {
		return fmt.Sprintf("%s  %s: %s", ts, event.Kind, event.Detail)
	}
	return fmt.Sprintf("%s  %s", ts, event.Kind)
}
