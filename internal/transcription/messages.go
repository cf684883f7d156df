package transcription

// MessageKind discriminates worker-to-manager messages.
type MessageKind string

const (
	// MessageReady signals the worker is idle and able to accept a job. It
	// is sent once immediately after worker creation and exactly once after
	// each processed job.
	MessageReady MessageKind = "ready"
	// MessageStatusUpdate carries a job status transition.
	MessageStatusUpdate MessageKind = "statusUpdate"
)

// Message is the single unit of worker-to-manager communication. Ready
// messages carry no payload; status updates identify the job and the fields
// that changed. Messages for one job arrive in emission order.
type Message struct {
	Kind   MessageKind
	JobID  string
	Status Status
	// Progress accompanies transcribing updates; nil means unchanged/absent.
	Progress *int
	// MixedAudioPath is set on the first transcribing update, once mixing
	// has produced the combined track.
	MixedAudioPath string
	// Transcript accompanies completed updates.
	Transcript string
	// ErrorMessage accompanies failed updates.
	ErrorMessage string
}

// NewReady constructs a ready message.
func NewReady() Message {
	return Message{Kind: MessageReady}
}

// NewStatusUpdate constructs a status update for the given job.
func NewStatusUpdate(jobID string, status Status) Message {
	return Message{Kind: MessageStatusUpdate, JobID: jobID, Status: status}
}

// WithProgress attaches a progress percentage to a status update.
func (m Message) WithProgress(percent int) Message {
	m.Progress = &percent
	return m
}

// WithMixedAudioPath records the generated mixed-audio location.
func (m Message) WithMixedAudioPath(path string) Message {
	m.MixedAudioPath = path
	return m
}

// WithTranscript attaches the accumulated transcript text.
func (m Message) WithTranscript(text string) Message {
	m.Transcript = text
	return m
}

// WithError attaches a failure reason.
func (m Message) WithError(message string) Message {
	m.ErrorMessage = message
	return m
}
