// Package daemonrun assembles and runs the daemon process: logger,
// result store, queue manager, notification routing, and the control
// socket, torn down in order on SIGINT or SIGTERM.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"scribe/internal/config"
	"scribe/internal/daemon"
	"scribe/internal/ipc"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/paths"
	"scribe/internal/preflight"
	"scribe/internal/queue"
	"scribe/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the scribe daemon runtime loop and blocks until the
// process receives a termination signal.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("scribe-%s.log", runID))

	logLevel := opts.LogLevel
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            logLevel,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update scribe.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "scribe-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "scribe.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open result store", logging.Error(err))
		return err
	}
	defer st.Close()

	resolver := paths.NewLayout(cfg)
	logEnvironmentSnapshot(signalCtx, logger, cfg, resolver)

	hub := notifications.NewHub()
	notifier := notifications.NewService(cfg)
	router := notifications.NewRouter(hub, notifier, cfg, logger)

	manager := queue.NewManager(queue.Options{
		Factory:   queue.PipelineWorkerFactory(cfg, resolver, logger),
		Recorder:  st,
		Publisher: router,
		Logger:    logger,
	})

	d, err := daemon.New(cfg, st, logger, manager, router)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and lock file access"),
			logging.String(logging.FieldImpact, "daemon will not process transcription jobs"),
		)
	}

	<-signalCtx.Done()
	logger.Info("scribe daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "scribe.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// logEnvironmentSnapshot records check outcomes at startup so a broken
// installation is visible in the log before the first job arrives.
func logEnvironmentSnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config, resolver paths.Resolver) {
	results := preflight.RunAll(ctx, cfg, resolver)
	failed := 0
	for _, result := range results {
		if result.Passed {
			continue
		}
		failed++
		logger.Warn("environment check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldEventType, "environment_check_failed"),
			logging.String(logging.FieldErrorHint, "run scribe status for details"),
			logging.String(logging.FieldImpact, "transcription jobs may fail"),
		)
	}
	logger.Info("environment snapshot",
		logging.String(logging.FieldEventType, "environment_snapshot"),
		logging.Int("checks", len(results)),
		logging.Int("failed", failed),
		logging.String("engine_binary", resolver.EngineBinary()),
		logging.String("ffmpeg_binary", resolver.FFmpegBinary()),
		logging.String("default_model", resolver.ModelFile("")),
	)
}
