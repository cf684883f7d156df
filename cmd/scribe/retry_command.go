package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/ipc"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	var jobID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "retry <event-id>",
		Short: "Resubmit a failed transcription for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Retry(eventID, strings.TrimSpace(jobID))
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Job)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s queued for event %s\n", resp.Job.ID, resp.Job.EventID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "Retry a specific job instead of the event's latest failure")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the new job as JSON")
	return cmd
}
