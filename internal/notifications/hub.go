package notifications

import (
	"sync"
	"time"

	"scribe/internal/transcription"
)

// Event kinds observed by the desktop app.
const (
	EventJobQueued         = "job queued"
	EventJobUpdated        = "job updated"
	EventPipelineDegraded  = "pipeline degraded"
	EventPipelineRecovered = "pipeline recovered"
)

// defaultHubCapacity bounds the retained event log. Subscribers that poll
// slower than the pipeline produces simply miss the oldest events.
const defaultHubCapacity = 512

// Event is one entry in the notification channel. Job events carry the full
// snapshot taken at publish time; pipeline events carry a detail string
// instead.
type Event struct {
	Seq       uint64
	Kind      string
	Timestamp time.Time
	Job       *transcription.Job
	Detail    string
}

// Hub is a bounded in-memory event log with monotonically increasing
// sequence numbers. Publishing never blocks; readers poll with Since.
type Hub struct {
	mu       sync.Mutex
	events   []Event
	nextSeq  uint64
	capacity int
}

// NewHub constructs a Hub with the default capacity.
func NewHub() *Hub {
	return &Hub{nextSeq: 1, capacity: defaultHubCapacity}
}

func (h *Hub) publish(kind string, job *transcription.Job, detail string) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	event := Event{
		Seq:       h.nextSeq,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Job:       job,
		Detail:    detail,
	}
	h.nextSeq++
	h.events = append(h.events, event)
	if len(h.events) > h.capacity {
		h.events = h.events[len(h.events)-h.capacity:]
	}
	return event
}

// PublishJob records a job event, snapshotting the job so later mutations
// never leak into subscribers.
func (h *Hub) PublishJob(kind string, job transcription.Job) Event {
	snapshot := job.Clone()
	return h.publish(kind, &snapshot, "")
}

// PublishPipeline records a pipeline-level event.
func (h *Hub) PublishPipeline(kind, detail string) Event {
	return h.publish(kind, nil, detail)
}

// Since returns events with sequence numbers greater than seq, oldest first,
// capped at max when max is positive. The second return is the sequence
// number to poll from next; after a hub restart it snaps callers back to the
// current head.
func (h *Hub) Since(seq uint64, max int) ([]Event, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Event
	for _, event := range h.events {
		if event.Seq <= seq {
			continue
		}
		out = append(out, event)
		if max > 0 && len(out) >= max {
			break
		}
	}
	next := h.nextSeq - 1
	if n := len(out); n > 0 {
		next = out[n-1].Seq
	}
	return out, next
}

// LastSeq reports the newest published sequence number, zero when empty.
func (h *Hub) LastSeq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nextSeq - 1
}
