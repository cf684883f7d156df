package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID is the standardized structured logging key for transcription job identifiers.
	FieldJobID = "job_id"
	// FieldEventID is the standardized structured logging key for the owning meeting event.
	FieldEventID = "event_id"
	// FieldStatus is the standardized structured logging key for job statuses.
	FieldStatus = "status"
	// FieldProgress is the standardized structured logging key for transcription progress percentages.
	FieldProgress = "progress"
	// FieldRequestID is the standardized structured logging key for IPC request correlation.
	FieldRequestID = "request_id"
	// FieldEventType tags log lines with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact carries the user-facing consequence of a warning.
	FieldImpact = "impact"
)
