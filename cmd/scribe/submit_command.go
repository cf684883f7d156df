package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/ipc"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var systemPath string
	var micPath string
	var modelName string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "submit <event-id>",
		Short: "Queue a meeting recording for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID := strings.TrimSpace(args[0])

			system, err := config.ExpandPath(strings.TrimSpace(systemPath))
			if err != nil {
				return fmt.Errorf("resolve system audio path: %w", err)
			}
			mic, err := config.ExpandPath(strings.TrimSpace(micPath))
			if err != nil {
				return fmt.Errorf("resolve mic audio path: %w", err)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Submit(ipc.SubmitRequest{
					EventID:         eventID,
					SystemAudioPath: system,
					MicAudioPath:    mic,
					ModelName:       strings.TrimSpace(modelName),
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Job)
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Job %s queued for event %s\n", shortID(resp.Job.ID), resp.Job.EventID)
				if resp.Job.ModelName != "" {
					fmt.Fprintf(stdout, "Model: %s\n", resp.Job.ModelName)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&systemPath, "system", "", "Path to the system audio track (required)")
	cmd.Flags().StringVar(&micPath, "mic", "", "Path to the microphone audio track (required)")
	cmd.Flags().StringVarP(&modelName, "model", "m", "", "Transcription model name (defaults to the configured model)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the queued job as JSON")
	_ = cmd.MarkFlagRequired("system")
	_ = cmd.MarkFlagRequired("mic")
	return cmd
}
