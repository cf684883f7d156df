package notifications

import (
	"context"
	"log/slog"
	"strconv"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/transcription"
)

// Router fans pipeline events out to the Hub and, for transitions worth a
// push, to the configured Service. Push delivery happens on its own
// goroutine so the queue manager's ingestion loop never waits on HTTP.
type Router struct {
	hub         *Hub
	service     Service
	logger      *slog.Logger
	completions bool
	errors      bool
}

// NewRouter wires a Hub and push Service together. The completions and
// errors toggles come from configuration and gate push delivery only; the
// Hub always sees every event.
func NewRouter(hub *Hub, service Service, cfg *config.Config, logger *slog.Logger) *Router {
	if service == nil {
		service = noopService{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Router{
		hub:         hub,
		service:     service,
		logger:      logging.WithComponent(logger, "notifications"),
		completions: cfg.Notifications.Completions,
		errors:      cfg.Notifications.Errors,
	}
}

// Hub exposes the underlying event log for IPC polling.
func (r *Router) Hub() *Hub {
	return r.hub
}

// JobQueued publishes a "job queued" snapshot.
func (r *Router) JobQueued(job transcription.Job) {
	r.hub.PublishJob(EventJobQueued, job)
}

// JobUpdated publishes a "job updated" snapshot and pushes terminal
// transitions when the matching toggle is on.
func (r *Router) JobUpdated(job transcription.Job) {
	r.hub.PublishJob(EventJobUpdated, job)

	switch job.Status {
	case transcription.StatusCompleted:
		if r.completions {
			r.push("transcription completed", func(ctx context.Context) error {
				return r.service.NotifyTranscriptionCompleted(ctx, job.EventID)
			})
		}
	case transcription.StatusFailed:
		if r.errors {
			r.push("transcription failed", func(ctx context.Context) error {
				return r.service.NotifyTranscriptionFailed(ctx, job.EventID, job.ErrorMessage)
			})
		}
	}
}

// PipelineDegraded publishes the degraded event and always pushes it; a
// stalled pipeline is the one condition the user cannot infer from job
// updates alone.
func (r *Router) PipelineDegraded(consecutiveFailures int) {
	r.hub.PublishPipeline(EventPipelineDegraded,
		"worker recreation ceiling reached after "+strconv.Itoa(consecutiveFailures)+" consecutive failures")
	r.push("pipeline degraded", func(ctx context.Context) error {
		return r.service.NotifyPipelineDegraded(ctx, consecutiveFailures)
	})
}

// PipelineRecovered publishes the recovery event after a resume brings the
// worker back.
func (r *Router) PipelineRecovered() {
	r.hub.PublishPipeline(EventPipelineRecovered, "worker available again")
	if r.errors {
		r.push("pipeline recovered", func(ctx context.Context) error {
			return r.service.NotifyPipelineRecovered(ctx)
		})
	}
}

// push delivers one notification asynchronously. The HTTP client's timeout
// bounds the call.
func (r *Router) push(name string, fn func(context.Context) error) {
	go func() {
		if err := fn(context.Background()); err != nil {
			r.logger.Warn("push notification failed",
				logging.String("notification", name),
				logging.Error(err))
		}
	}()
}
