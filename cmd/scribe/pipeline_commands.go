package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/ipc"
)

func newPauseCommand(ctx *commandContext) *cobra.Command {
	var terminate bool

	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause job dispatch",
		Long:  "Pause dispatch of queued jobs. The active job finishes unless --terminate is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Pause(terminate)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !resp.Paused {
					fmt.Fprintln(out, "Dispatch was already paused")
					return nil
				}
				if terminate {
					fmt.Fprintln(out, "Dispatch paused, worker terminated")
				} else {
					fmt.Fprintln(out, "Dispatch paused")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&terminate, "terminate", false, "Also terminate the worker process")
	return cmd
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume job dispatch",
		Long:  "Resume dispatch of queued jobs and clear any worker failure backoff.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Resume()
				if err != nil {
					return err
				}
				if resp.Resumed {
					fmt.Fprintln(cmd.OutOrStdout(), "Dispatch resumed")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Dispatch was not paused")
				}
				return nil
			})
		},
	}
}

func newPurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove completed and failed jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Purge()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs\n", resp.Removed)
				return nil
			})
		},
	}
}
