package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/ipc"
	"scribe/internal/textutil"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var eventID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List transcription jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				var jobs []ipc.Job
				if event := strings.TrimSpace(eventID); event != "" {
					resp, err := client.JobsForEvent(event)
					if err != nil {
						return err
					}
					jobs = filterJobsByStatus(resp.Jobs, statuses)
				} else {
					resp, err := client.Jobs(statuses)
					if err != nil {
						return err
					}
					jobs = resp.Jobs
				}

				if jsonOutput {
					return writeJSON(cmd, map[string]any{"jobs": jobs})
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				table := renderTable(jobTableHeaders, buildJobRows(jobs), jobTableAligns)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().StringVarP(&eventID, "event", "e", "", "Only show jobs for this event")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit jobs as JSON")
	return cmd
}

func filterJobsByStatus(jobs []ipc.Job, statuses []string) []ipc.Job {
	if len(statuses) == 0 {
		return jobs
	}
	allowed := make(map[string]struct{}, len(statuses))
	for _, status := range statuses {
		allowed[strings.ToLower(strings.TrimSpace(status))] = struct{}{}
	}
	filtered := make([]ipc.Job, 0, len(jobs))
	for _, job := range jobs {
		if _, ok := allowed[strings.ToLower(job.Status)]; ok {
			filtered = append(filtered, job)
		}
	}
	return filtered
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show details for a transcription job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Job(jobID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Job)
				}
				printJobDetail(cmd, resp.Job)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the job as JSON")
	return cmd
}

func printJobDetail(cmd *cobra.Command, job ipc.Job) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	fmt.Fprintln(stdout, renderStatusLine("Job", statusInfo, job.ID, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Event", statusInfo, job.EventID, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Status", statusKindForJob(job.Status), formatJobStatusDetail(job), colorize))
	if job.ModelName != "" {
		fmt.Fprintln(stdout, renderStatusLine("Model", statusInfo, job.ModelName, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("System audio", statusInfo, job.SystemAudioPath, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Mic audio", statusInfo, job.MicAudioPath, colorize))
	if job.MixedAudioPath != "" {
		fmt.Fprintln(stdout, renderStatusLine("Mixed audio", statusInfo, job.MixedAudioPath, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Created", statusInfo, formatDisplayTime(job.CreatedAt), colorize))

	if job.ErrorMessage != "" {
		fmt.Fprintln(stdout, renderStatusLine("Error", statusError, job.ErrorMessage, colorize))
	}
	if job.Transcript != "" {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, job.Transcript)
	}
}

func formatJobStatusDetail(job ipc.Job) string {
	label := textutil.StatusLabel(job.Status)
	progress := formatJobProgress(job)
	if progress == "-" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, progress)
}
