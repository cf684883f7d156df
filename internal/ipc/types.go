package ipc

import (
	"time"

	"scribe/internal/notifications"
	"scribe/internal/store"
	"scribe/internal/transcription"
)

// Job is the wire form of a transcription job snapshot.
type Job struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	SystemAudioPath string    `json:"system_audio_path"`
	MicAudioPath    string    `json:"mic_audio_path"`
	MixedAudioPath  string    `json:"mixed_audio_path,omitempty"`
	Status          string    `json:"status"`
	Progress        *int      `json:"progress,omitempty"`
	Transcript      string    `json:"transcript,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	ModelName       string    `json:"model_name,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// FromJob converts a job snapshot to its wire form.
func FromJob(job transcription.Job) Job {
	dto := Job{
		ID:              job.ID,
		EventID:         job.EventID,
		SystemAudioPath: job.SystemAudioPath,
		MicAudioPath:    job.MicAudioPath,
		MixedAudioPath:  job.MixedAudioPath,
		Status:          string(job.Status),
		Transcript:      job.Transcript,
		ErrorMessage:    job.ErrorMessage,
		ModelName:       job.ModelName,
		CreatedAt:       job.CreatedAt,
	}
	if job.Progress != nil {
		p := *job.Progress
		dto.Progress = &p
	}
	return dto
}

// Event is the wire form of a pipeline event.
type Event struct {
	Seq       uint64    `json:"seq"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
	Job       *Job      `json:"job,omitempty"`
}

// FromEvent converts a hub event to its wire form.
func FromEvent(ev notifications.Event) Event {
	dto := Event{
		Seq:       ev.Seq,
		Kind:      ev.Kind,
		Timestamp: ev.Timestamp,
		Detail:    ev.Detail,
	}
	if ev.Job != nil {
		job := FromJob(*ev.Job)
		dto.Job = &job
	}
	return dto
}

// Result is the wire form of a persisted transcription result.
type Result struct {
	EventID      string    `json:"event_id"`
	Status       string    `json:"status"`
	Transcript   string    `json:"transcript,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Progress     *int      `json:"progress,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromResult converts a stored result to its wire form.
func FromResult(res store.Result) Result {
	dto := Result{
		EventID:      res.EventID,
		Status:       string(res.Status),
		Transcript:   res.Transcript,
		ErrorMessage: res.ErrorMessage,
		UpdatedAt:    res.UpdatedAt,
	}
	if res.Progress != nil {
		p := *res.Progress
		dto.Progress = &p
	}
	return dto
}

// Check is the wire form of an environment check result.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Pipeline is the wire form of the queue manager's status counters.
type Pipeline struct {
	QueuedJobs    int    `json:"queued_jobs"`
	TotalJobs     int    `json:"total_jobs"`
	ActiveJobID   string `json:"active_job_id,omitempty"`
	WorkerAlive   bool   `json:"worker_alive"`
	Busy          bool   `json:"busy"`
	Paused        bool   `json:"paused"`
	Degraded      bool   `json:"degraded"`
	Failures      int    `json:"failures"`
	RecreateArmed bool   `json:"recreate_armed"`
}

// StartRequest asks a running daemon process to start its pipeline.
type StartRequest struct{}

// StartResponse indicates whether the pipeline was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest asks the daemon to stop its pipeline.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and pipeline status.
type StatusResponse struct {
	Running      bool      `json:"running"`
	PID          int       `json:"pid"`
	StartedAt    time.Time `json:"started_at"`
	LockPath     string    `json:"lock_path"`
	DatabasePath string    `json:"database_path"`
	SocketPath   string    `json:"socket_path"`
	LogPath      string    `json:"log_path"`
	Pipeline     Pipeline  `json:"pipeline"`
	StagingFiles int       `json:"staging_files"`
	StagingBytes int64     `json:"staging_bytes"`
	LastEventSeq uint64    `json:"last_event_seq"`
	Checks       []Check   `json:"checks,omitempty"`
}

// SubmitRequest queues a transcription job for an event recording.
type SubmitRequest struct {
	EventID         string `json:"event_id"`
	SystemAudioPath string `json:"system_audio_path"`
	MicAudioPath    string `json:"mic_audio_path"`
	ModelName       string `json:"model_name,omitempty"`
}

// SubmitResponse returns the queued job snapshot.
type SubmitResponse struct {
	Job Job `json:"job"`
}

// JobsRequest filters the job listing by status.
type JobsRequest struct {
	Statuses []string `json:"statuses,omitempty"`
}

// JobsResponse contains job snapshots.
type JobsResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobRequest fetches a single job by ID.
type JobRequest struct {
	ID string `json:"id"`
}

// JobResponse contains a single job snapshot.
type JobResponse struct {
	Job Job `json:"job"`
}

// JobsForEventRequest fetches the jobs submitted for an event.
type JobsForEventRequest struct {
	EventID string `json:"event_id"`
}

// JobsForEventResponse contains the event's job snapshots.
type JobsForEventResponse struct {
	Jobs []Job `json:"jobs"`
}

// RetryRequest requeues a prior job for an event. An empty JobID
// selects the event's most recent job.
type RetryRequest struct {
	EventID string `json:"event_id"`
	JobID   string `json:"job_id,omitempty"`
}

// RetryResponse returns the new job snapshot.
type RetryResponse struct {
	Job Job `json:"job"`
}

// PauseRequest halts dispatch. Terminate also kills the in-flight job.
type PauseRequest struct {
	Terminate bool `json:"terminate"`
}

// PauseResponse acknowledges the pause.
type PauseResponse struct {
	Paused bool `json:"paused"`
}

// ResumeRequest restarts dispatch after a pause.
type ResumeRequest struct{}

// ResumeResponse acknowledges the resume.
type ResumeResponse struct {
	Resumed bool `json:"resumed"`
}

// PurgeRequest removes completed and failed jobs from memory.
type PurgeRequest struct{}

// PurgeResponse reports how many jobs were removed.
type PurgeResponse struct {
	Removed int `json:"removed"`
}

// ResultRequest fetches the persisted result for an event.
type ResultRequest struct {
	EventID string `json:"event_id"`
}

// ResultResponse contains the persisted result when one exists.
type ResultResponse struct {
	Found  bool   `json:"found"`
	Result Result `json:"result"`
}

// ResultsRequest lists persisted results, newest first.
type ResultsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// ResultsResponse contains persisted results.
type ResultsResponse struct {
	Results []Result `json:"results"`
}

// EventsRequest fetches hub events newer than AfterSeq.
type EventsRequest struct {
	AfterSeq uint64 `json:"after_seq"`
	Max      int    `json:"max,omitempty"`
}

// EventsResponse returns events and the cursor for the next poll.
type EventsResponse struct {
	Events  []Event `json:"events"`
	NextSeq uint64  `json:"next_seq"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
