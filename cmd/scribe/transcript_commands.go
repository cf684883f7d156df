package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/ipc"
	"scribe/internal/textutil"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "transcript <event-id>",
		Short: "Print the persisted transcript for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Result(eventID)
				if err != nil {
					return err
				}
				if !resp.Found {
					return fmt.Errorf("no transcription recorded for event %s", eventID)
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Result)
				}
				result := resp.Result
				if result.Status != "completed" {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Event %s: %s\n", result.EventID, textutil.StatusLabel(result.Status))
					if result.ErrorMessage != "" {
						fmt.Fprintln(out, result.ErrorMessage)
					}
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Transcript)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the result as JSON")
	return cmd
}

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recorded transcription results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Results(limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"results": resp.Results})
				}
				if len(resp.Results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No results")
					return nil
				}
				table := renderTable(
					[]string{"Event", "Status", "Transcript", "Updated"},
					buildResultRows(resp.Results),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit results as JSON")
	return cmd
}

func buildResultRows(results []ipc.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		preview := result.Transcript
		if result.Status == "failed" {
			preview = result.ErrorMessage
		}
		rows = append(rows, []string{
			truncate(result.EventID, 28),
			textutil.StatusLabel(result.Status),
			truncate(strings.ReplaceAll(preview, "\n", " "), 48),
			formatDisplayTime(result.UpdatedAt),
		})
	}
	return rows
}
