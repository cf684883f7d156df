package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/paths"
	"scribe/internal/preflight"
	"scribe/internal/queue"
	"scribe/internal/staging"
	"scribe/internal/store"
	"scribe/internal/transcription"
)

const stagingCleanupInterval = time.Hour

// Daemon coordinates the transcription pipeline and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	manager  *queue.Manager
	router   *notifications.Router
	resolver paths.Resolver
	logPath  string

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	LockFilePath string
	DatabasePath string
	SocketPath   string
	LogPath      string
	Pipeline     queue.PipelineStatus
	StagingFiles int
	StagingBytes int64
	LastEventSeq uint64
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, manager *queue.Manager, router *notifications.Router) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil || manager == nil || router == nil {
		return nil, errors.New("daemon requires config, store, logger, queue manager, and notification router")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "scribe.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		manager:  manager,
		router:   router,
		resolver: paths.NewLayout(cfg),
		logPath:  filepath.Join(cfg.Paths.LogDir, "scribe.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and begins background maintenance.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scribe daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	go d.cleanupLoop(d.ctx)

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("scribe daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts the pipeline down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.manager.Shutdown()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("scribe daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// cleanupLoop periodically removes stale mixed audio from the staging
// directory.
func (d *Daemon) cleanupLoop(ctx context.Context) {
	retention := time.Duration(d.cfg.Workflow.StagingRetentionHours) * time.Hour
	if retention <= 0 {
		return
	}

	run := func() {
		if _, err := staging.CleanStale(d.cfg.Paths.StagingDir, retention, d.logger); err != nil {
			d.logger.Warn("staging cleanup failed", logging.Error(err))
		}
	}

	run()
	ticker := time.NewTicker(stagingCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// Submit queues a transcription job for the given event recording.
func (d *Daemon) Submit(eventID, systemAudioPath, micAudioPath, modelName string) (transcription.Job, error) {
	return d.manager.Submit(eventID, systemAudioPath, micAudioPath, modelName)
}

// Retry requeues a prior job for the event. An empty jobID selects the
// most recent job.
func (d *Daemon) Retry(eventID, jobID string) (transcription.Job, error) {
	return d.manager.Retry(eventID, jobID)
}

// Jobs returns snapshots of every job currently tracked in memory.
func (d *Daemon) Jobs() []transcription.Job {
	return d.manager.ListJobs()
}

// Job returns a snapshot of a single job by ID.
func (d *Daemon) Job(jobID string) (transcription.Job, bool) {
	return d.manager.GetJob(jobID)
}

// JobsForEvent returns snapshots of the jobs submitted for an event.
func (d *Daemon) JobsForEvent(eventID string) []transcription.Job {
	return d.manager.JobsForEvent(eventID)
}

// Pause stops dispatching queued jobs. With terminate set it also
// kills the worker and any in-flight transcription.
func (d *Daemon) Pause(terminate bool) {
	d.manager.Pause(terminate)
}

// Resume restarts dispatch after a pause and clears the recreation
// backoff so a repaired environment gets a fresh worker.
func (d *Daemon) Resume() {
	d.manager.Resume()
}

// PurgeTerminal drops completed and failed jobs from memory and
// returns how many were removed.
func (d *Daemon) PurgeTerminal() int {
	return d.manager.PurgeTerminal()
}

// EventsSince returns hub events newer than seq, up to max.
func (d *Daemon) EventsSince(seq uint64, max int) ([]notifications.Event, uint64) {
	return d.router.Hub().Since(seq, max)
}

// ResultForEvent returns the persisted transcription result for an
// event, or nil when none has been recorded.
func (d *Daemon) ResultForEvent(ctx context.Context, eventID string) (*store.Result, error) {
	return d.store.TranscriptionForEvent(ctx, eventID)
}

// Results returns persisted transcription results, newest first.
func (d *Daemon) Results(ctx context.Context, limit int) ([]store.Result, error) {
	return d.store.ListResults(ctx, limit)
}

// RunChecks executes the environment checks against the current
// configuration, including the ntfy reachability probe.
func (d *Daemon) RunChecks(ctx context.Context) []preflight.Result {
	return preflight.RunAll(ctx, d.cfg, d.resolver)
}

// LocalChecks runs the filesystem and binary checks only, keeping
// status requests off the network.
func (d *Daemon) LocalChecks() []preflight.Result {
	return preflight.RunLocal(d.cfg, d.resolver)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	stagingFiles, stagingBytes, err := staging.Usage(d.cfg.Paths.StagingDir)
	if err != nil {
		d.logger.Warn("staging usage unavailable", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		LockFilePath: d.lockPath,
		DatabasePath: d.store.Path(),
		SocketPath:   d.cfg.SocketPath(),
		LogPath:      d.logPath,
		Pipeline:     d.manager.Status(),
		StagingFiles: stagingFiles,
		StagingBytes: stagingBytes,
		LastEventSeq: d.router.Hub().LastSeq(),
	}
}
