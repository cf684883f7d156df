package transcription

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of a transcription job.
type Status string

const (
	StatusQueued       Status = "queued"
	StatusMixing       Status = "mixing"
	StatusTranscribing Status = "transcribing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusMixing,
	StatusTranscribing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsActive reports whether a status reflects in-flight pipeline work. At most
// one job across the system holds an active status at any instant.
func (s Status) IsActive() bool {
	return s == StatusMixing || s == StatusTranscribing
}

// IsTerminal reports whether a status ends a job's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job represents one request to mix and transcribe a pair of audio tracks.
type Job struct {
	// ID uniquely identifies the job.
	ID string
	// EventID names the owning meeting. Not unique across jobs: a meeting
	// accumulates one job per retry.
	EventID string
	// SystemAudioPath and MicAudioPath are the recorded input tracks,
	// immutable after creation.
	SystemAudioPath string
	MicAudioPath    string
	// MixedAudioPath is set once mixing succeeds.
	MixedAudioPath string
	Status         Status
	// Progress is the transcription percentage, present only while the job
	// is transcribing.
	Progress *int
	// Transcript holds the engine's stdout verbatim, present only when
	// completed.
	Transcript string
	// ErrorMessage is the human-readable failure reason, present only when
	// failed.
	ErrorMessage string
	// ModelName optionally overrides the configured speech-to-text model.
	ModelName string
	CreatedAt time.Time
}

// NewJob constructs a queued job with a fresh identifier.
func NewJob(eventID, systemAudioPath, micAudioPath, modelName string) Job {
	return Job{
		ID:              uuid.NewString(),
		EventID:         strings.TrimSpace(eventID),
		SystemAudioPath: systemAudioPath,
		MicAudioPath:    micAudioPath,
		ModelName:       strings.TrimSpace(modelName),
		Status:          StatusQueued,
		CreatedAt:       time.Now().UTC(),
	}
}

// Clone returns a defensive copy of the job. Progress is duplicated so the
// copy shares no mutable state with the original.
func (j Job) Clone() Job {
	cp := j
	if j.Progress != nil {
		v := *j.Progress
		cp.Progress = &v
	}
	return cp
}

// IsTerminal reports whether the job finished, successfully or not.
func (j Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// ResultFields is the persisted subset of a job snapshot: transcript on
// completion, error on failure, progress while transcribing. Absent fields
// stay zero.
type ResultFields struct {
	Transcript   string
	ErrorMessage string
	Progress     *int
}

// PersistedFields extracts the subset of the job worth recording for its
// current status.
func (j Job) PersistedFields() ResultFields {
	fields := ResultFields{}
	switch j.Status {
	case StatusCompleted:
		fields.Transcript = j.Transcript
	case StatusFailed:
		fields.ErrorMessage = j.ErrorMessage
	case StatusTranscribing:
		if j.Progress != nil {
			v := *j.Progress
			fields.Progress = &v
		}
	}
	return fields
}

// ProgressValue returns the current progress percentage, or -1 when absent.
func (j Job) ProgressValue() int {
	if j.Progress == nil {
		return -1
	}
	return *j.Progress
}
