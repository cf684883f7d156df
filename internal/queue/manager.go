package queue

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/transcription"
)

const (
	// defaultRecreateDelay is how long the Manager waits before rebuilding a
	// failed worker.
	defaultRecreateDelay = 2 * time.Second
	// defaultMaxFailures is the recreation ceiling: the worker is rebuilt
	// after each of this many consecutive failures, and the next failure
	// leaves the pipeline degraded.
	defaultMaxFailures = 5
)

// Options configures a Manager. Factory is required; nil Recorder and
// Publisher default to no-ops, and the recovery knobs default to the
// production values.
type Options struct {
	Factory   WorkerFactory
	Recorder  Recorder
	Publisher Publisher
	Logger    *slog.Logger

	RecreateDelay time.Duration
	MaxFailures   int
}

// Manager owns the job list and the Worker lifecycle. All exported methods
// are safe for concurrent use.
type Manager struct {
	logger    *slog.Logger
	factory   WorkerFactory
	recorder  Recorder
	publisher Publisher

	recreateDelay time.Duration
	maxFailures   int

	mu            sync.Mutex
	jobs          []*transcription.Job
	worker        Worker
	workerReady   bool
	busy          bool
	paused        bool
	closed        bool
	degraded      bool
	failures      int
	activeJobID   string
	recreateTimer *time.Timer
}

// NewManager constructs a Manager. The worker is created lazily on the first
// submission, not here.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = nopPublisher{}
	}
	delay := opts.RecreateDelay
	if delay <= 0 {
		delay = defaultRecreateDelay
	}
	maxFailures := opts.MaxFailures
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	return &Manager{
		logger:        logging.WithComponent(logger, "queue"),
		factory:       opts.Factory,
		recorder:      recorder,
		publisher:     publisher,
		recreateDelay: delay,
		maxFailures:   maxFailures,
	}
}

// Submit enqueues a new transcription job and returns its snapshot
// immediately; processing happens off the caller's goroutine. The first
// submission creates the worker, later ones attempt dispatch.
func (m *Manager) Submit(eventID, systemAudioPath, micAudioPath, modelName string) (transcription.Job, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return transcription.Job{}, services.Wrap(services.ErrValidation, "queue", "submit", "event id required", nil)
	}
	if strings.TrimSpace(systemAudioPath) == "" || strings.TrimSpace(micAudioPath) == "" {
		return transcription.Job{}, services.Wrap(services.ErrValidation, "queue", "submit", "system and microphone audio paths required", nil)
	}

	job := transcription.NewJob(eventID, systemAudioPath, micAudioPath, modelName)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return transcription.Job{}, services.Wrap(services.ErrUnavailable, "queue", "submit", "queue manager is shut down", nil)
	}

	stored := job.Clone()
	m.jobs = append(m.jobs, &stored)
	snapshot := stored.Clone()
	m.publisher.JobQueued(snapshot)
	m.logger.Info("job queued",
		logging.String(logging.FieldJobID, snapshot.ID),
		logging.String(logging.FieldEventID, snapshot.EventID),
	)

	if m.worker == nil {
		m.ensureWorkerLocked()
	} else {
		m.dispatchLocked()
	}
	return snapshot, nil
}

// Retry re-submits a prior job's inputs as a new job. With an empty jobID the
// event's most recent job is used. It fails descriptively when no prior job
// exists or the original audio tracks are gone.
func (m *Manager) Retry(eventID, jobID string) (transcription.Job, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return transcription.Job{}, services.Wrap(services.ErrValidation, "queue", "retry", "event id required", nil)
	}

	m.mu.Lock()
	var prior *transcription.Job
	for _, job := range m.jobs {
		if jobID != "" {
			if job.ID == jobID {
				prior = job
				break
			}
			continue
		}
		if job.EventID == eventID {
			prior = job
		}
	}
	if prior == nil {
		m.mu.Unlock()
		if jobID != "" {
			return transcription.Job{}, services.Wrap(services.ErrNotFound, "queue", "retry",
				fmt.Sprintf("job %s not found", jobID), nil)
		}
		return transcription.Job{}, services.Wrap(services.ErrNotFound, "queue", "retry",
			fmt.Sprintf("no prior transcription job for event %s", eventID), nil)
	}
	if prior.EventID != eventID {
		m.mu.Unlock()
		return transcription.Job{}, services.Wrap(services.ErrValidation, "queue", "retry",
			fmt.Sprintf("job %s belongs to event %s, not %s", jobID, prior.EventID, eventID), nil)
	}
	systemPath := prior.SystemAudioPath
	micPath := prior.MicAudioPath
	model := prior.ModelName
	m.mu.Unlock()

	for _, path := range []string{systemPath, micPath} {
		if _, err := os.Stat(path); err != nil {
			return transcription.Job{}, services.Wrap(services.ErrNotFound, "queue", "retry",
				fmt.Sprintf("original audio track missing: %s", path), err)
		}
	}
	return m.Submit(eventID, systemPath, micPath, model)
}

// ListJobs returns defensive copies of every job, oldest first.
func (m *Manager) ListJobs() []transcription.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]transcription.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, job.Clone())
	}
	return out
}

// GetJob returns a copy of the job with the given id.
func (m *Manager) GetJob(jobID string) (transcription.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job := m.findJobLocked(jobID); job != nil {
		return job.Clone(), true
	}
	return transcription.Job{}, false
}

// JobsForEvent returns copies of the event's jobs, oldest first.
func (m *Manager) JobsForEvent(eventID string) []transcription.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []transcription.Job
	for _, job := range m.jobs {
		if job.EventID == eventID {
			out = append(out, job.Clone())
		}
	}
	return out
}

// PurgeTerminal drops completed and failed jobs from the list and returns
// how many were removed. Active and queued jobs are untouched.
func (m *Manager) PurgeTerminal() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.jobs[:0]
	removed := 0
	for _, job := range m.jobs {
		if job.IsTerminal() {
			removed++
			continue
		}
		kept = append(kept, job)
	}
	m.jobs = kept
	if removed > 0 {
		m.logger.Info("purged terminal jobs", logging.Int("removed", removed))
	}
	return removed
}

func (m *Manager) findJobLocked(jobID string) *transcription.Job {
	for _, job := range m.jobs {
		if job.ID == jobID {
			return job
		}
	}
	return nil
}

// persistAsync records the job's current outcome without holding up the
// ingestion path. Store failures are logged and otherwise ignored.
func (m *Manager) persistAsync(job transcription.Job) {
	go func() {
		ctx := services.WithJobID(context.Background(), job.ID)
		ctx = services.WithEventID(ctx, job.EventID)
		fields := job.PersistedFields()
		if err := m.recorder.RecordTranscriptionResult(ctx, job.EventID, job.Status, fields); err != nil {
			logging.WithContext(ctx, m.logger).Warn("persisting transcription result failed",
				logging.Error(err),
			)
		}
	}()
}
