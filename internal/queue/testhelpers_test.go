package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/transcription"
)

// fakeWorker stands in for the background execution context. Tests drive it
// by emitting messages and closing it with exit.
type fakeWorker struct {
	messages chan transcription.Message
	done     chan struct{}
	exitOnce sync.Once

	mu         sync.Mutex
	exitErr    error
	submitted  []transcription.Job
	rejectNext bool
	terminated bool
}

func newFakeWorker() *fakeWorker {
	return &fakeWorker{
		messages: make(chan transcription.Message, 16),
		done:     make(chan struct{}),
	}
}

func (w *fakeWorker) Submit(job transcription.Job) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rejectNext {
		w.rejectNext = false
		return false
	}
	w.submitted = append(w.submitted, job)
	return true
}

func (w *fakeWorker) Messages() <-chan transcription.Message { return w.messages }

func (w *fakeWorker) Done() <-chan struct{} { return w.done }

func (w *fakeWorker) ExitErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exitErr
}

func (w *fakeWorker) Terminate() {
	w.mu.Lock()
	w.terminated = true
	w.mu.Unlock()
	w.exit(nil)
}

func (w *fakeWorker) exit(err error) {
	w.exitOnce.Do(func() {
		w.mu.Lock()
		w.exitErr = err
		w.mu.Unlock()
		close(w.done)
	})
}

func (w *fakeWorker) emit(msg transcription.Message) {
	w.messages <- msg
}

func (w *fakeWorker) emitReady() {
	w.emit(transcription.NewReady())
}

func (w *fakeWorker) submittedJobs() []transcription.Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]transcription.Job, len(w.submitted))
	copy(out, w.submitted)
	return out
}

func (w *fakeWorker) isTerminated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.terminated
}

func (w *fakeWorker) setRejectNext() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rejectNext = true
}

// workerFixture is a WorkerFactory that tracks every invocation and can be
// switched into a failing mode.
type workerFixture struct {
	mu      sync.Mutex
	workers []*fakeWorker
	calls   int
	failErr error
}

func (f *workerFixture) factory() (queue.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failErr != nil {
		return nil, f.failErr
	}
	w := newFakeWorker()
	f.workers = append(f.workers, w)
	return w, nil
}

func (f *workerFixture) setFailErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failErr = err
}

func (f *workerFixture) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *workerFixture) workerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.workers)
}

func (f *workerFixture) worker(t *testing.T, index int) *fakeWorker {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		if len(f.workers) > index {
			w := f.workers[index]
			f.mu.Unlock()
			return w
		}
		f.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("worker %d was never created", index)
	return nil
}

// stubPublisher records manager events. Methods run while the manager holds
// its lock, so they only touch local state.
type stubPublisher struct {
	mu        sync.Mutex
	queued    []transcription.Job
	updates   []transcription.Job
	degraded  []int
	recovered int
}

func (p *stubPublisher) JobQueued(job transcription.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queued = append(p.queued, job)
}

func (p *stubPublisher) JobUpdated(job transcription.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, job)
}

func (p *stubPublisher) PipelineDegraded(consecutiveFailures int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.degraded = append(p.degraded, consecutiveFailures)
}

func (p *stubPublisher) PipelineRecovered() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recovered++
}

func (p *stubPublisher) queuedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queued)
}

func (p *stubPublisher) updateCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.updates)
}

func (p *stubPublisher) statusSequence(jobID string) []transcription.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	var seq []transcription.Status
	for _, job := range p.updates {
		if job.ID == jobID {
			seq = append(seq, job.Status)
		}
	}
	return seq
}

func (p *stubPublisher) degradedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.degraded)
}

func (p *stubPublisher) recoveredCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recovered
}

type recordedResult struct {
	eventID string
	status  transcription.Status
	fields  transcription.ResultFields
}

type stubRecorder struct {
	mu      sync.Mutex
	results []recordedResult
}

func (r *stubRecorder) RecordTranscriptionResult(_ context.Context, eventID string, status transcription.Status, fields transcription.ResultFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, recordedResult{eventID: eventID, status: status, fields: fields})
	return nil
}

func (r *stubRecorder) find(eventID string, status transcription.Status) (recordedResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.eventID == eventID && res.status == status {
			return res, true
		}
	}
	return recordedResult{}, false
}

func newTestManager(t *testing.T, fixture *workerFixture, publisher queue.Publisher, recorder queue.Recorder) *queue.Manager {
	t.Helper()
	mgr := queue.NewManager(queue.Options{
		Factory:       fixture.factory,
		Publisher:     publisher,
		Recorder:      recorder,
		Logger:        logging.NewNop(),
		RecreateDelay: 5 * time.Millisecond,
	})
	t.Cleanup(mgr.Shutdown)
	return mgr
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}
