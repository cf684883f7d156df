package queue

import (
	"context"

	"scribe/internal/transcription"
)

// Worker is the Manager's handle on the background execution context. The
// real implementation lives in the worker package; tests substitute fakes to
// simulate faults and exits.
type Worker interface {
	// Submit hands over a job without blocking; false means the worker could
	// not accept it and is treated as faulted.
	Submit(job transcription.Job) bool
	// Messages carries ready signals and status updates in emission order.
	Messages() <-chan transcription.Message
	// Done is closed when the worker has exited.
	Done() <-chan struct{}
	// ExitErr is the exit indicator, meaningful once Done is closed. Nil
	// means a clean, intentional exit that must not trigger recreation.
	ExitErr() error
	// Terminate forcibly stops the worker.
	Terminate()
}

// WorkerFactory builds and starts a Worker. Factories validate the runtime
// environment first and return an error instead of a half-built worker when
// it is incomplete; the Manager schedules recovery on factory errors.
type WorkerFactory func() (Worker, error)

// Publisher receives job lifecycle events for the UI notification channel.
// Calls arrive while the Manager holds its internal lock: implementations
// must return promptly and must not call back into the Manager.
type Publisher interface {
	JobQueued(job transcription.Job)
	JobUpdated(job transcription.Job)
	PipelineDegraded(consecutiveFailures int)
	PipelineRecovered()
}

// Recorder persists transcription outcomes. The Manager calls it on its own
// goroutine, fire-and-forget; errors are logged, never surfaced to jobs.
type Recorder interface {
	RecordTranscriptionResult(ctx context.Context, eventID string, status transcription.Status, fields transcription.ResultFields) error
}

type nopPublisher struct{}

func (nopPublisher) JobQueued(transcription.Job)  {}
func (nopPublisher) JobUpdated(transcription.Job) {}
func (nopPublisher) PipelineDegraded(int)         {}
func (nopPublisher) PipelineRecovered()           {}

type nopRecorder struct{}

func (nopRecorder) RecordTranscriptionResult(context.Context, string, transcription.Status, transcription.ResultFields) error {
	return nil
}
