package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/daemonctl"
	"scribe/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the scribe daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the scribe daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			} else {
				fmt.Fprintln(stdout, "Stopping transcription pipeline...")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the scribe daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Start.Message) != "" {
					fmt.Fprintln(stdout, result.Start.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			statusResp, err := daemonctl.BuildStatusSnapshot(ctx.socketPath(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonStatusLines(statusResp, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, check := range statusResp.Checks {
				fmt.Fprintln(stdout, renderStatusLine(check.Name, boolKind(check.Passed), check.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Pipeline", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range pipelineStatusLines(statusResp, colorize) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func daemonStatusLines(resp *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 5)
	if resp.Running {
		detail := fmt.Sprintf("Running (pid %d)", resp.PID)
		if !resp.StartedAt.IsZero() {
			detail = fmt.Sprintf("Running (pid %d, up %s)", resp.PID, formatUptime(time.Since(resp.StartedAt)))
		}
		lines = append(lines, renderStatusLine("Scribe", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Scribe", statusWarn, "Not running (run `scribe start`)", colorize))
	}
	if resp.SocketPath != "" {
		lines = append(lines, renderStatusLine("Socket", statusInfo, resp.SocketPath, colorize))
	}
	if resp.DatabasePath != "" {
		lines = append(lines, renderStatusLine("Results database", statusInfo, resp.DatabasePath, colorize))
	}
	if resp.LogPath != "" {
		lines = append(lines, renderStatusLine("Log file", statusInfo, resp.LogPath, colorize))
	}
	return lines
}

func pipelineStatusLines(resp *ipc.StatusResponse, colorize bool) []string {
	if !resp.Running {
		return []string{renderStatusLine("Pipeline", statusInfo, "Inactive (daemon not running)", colorize)}
	}

	p := resp.Pipeline
	lines := make([]string, 0, 6)

	workerKind := statusOK
	workerDetail := "Alive"
	switch {
	case p.Degraded:
		workerKind = statusError
		workerDetail = fmt.Sprintf("Degraded after %d consecutive faults (run `scribe resume` once fixed)", p.Failures)
	case p.RecreateArmed:
		workerKind = statusWarn
		workerDetail = fmt.Sprintf("Restart pending (%d recent faults)", p.Failures)
	case !p.WorkerAlive:
		workerKind = statusWarn
		workerDetail = "Not running"
	}
	lines = append(lines, renderStatusLine("Worker", workerKind, workerDetail, colorize))

	if p.Paused {
		lines = append(lines, renderStatusLine("Dispatch", statusWarn, "Paused", colorize))
	} else {
		lines = append(lines, renderStatusLine("Dispatch", statusOK, "Active", colorize))
	}

	activeDetail := "None"
	if p.Busy && p.ActiveJobID != "" {
		activeDetail = shortID(p.ActiveJobID)
	}
	lines = append(lines, renderStatusLine("Active job", statusInfo, activeDetail, colorize))
	lines = append(lines, renderStatusLine("Queued jobs", statusInfo, fmt.Sprintf("%d (of %d tracked)", p.QueuedJobs, p.TotalJobs), colorize))

	if resp.StagingFiles > 0 {
		lines = append(lines, renderStatusLine("Staging", statusInfo,
			fmt.Sprintf("%d mixed file(s), %s", resp.StagingFiles, formatBytes(resp.StagingBytes)), colorize))
	}
	return lines
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return d.String()
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%02dm", hours, minutes)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
