package queue

import (
	"time"

	"scribe/internal/logging"
	"scribe/internal/transcription"
)

// Pause halts dispatch until Resume. With terminate set, the running worker
// is forcibly stopped and automatic recreation is suppressed by saturating
// the failure counter; anything mid-flight is abandoned.
func (m *Manager) Pause(terminate bool) {
	m.mu.Lock()
	m.paused = true
	var w Worker
	if terminate {
		m.failures = m.maxFailures
		m.stopRecreateTimerLocked()
		w = m.worker
		m.worker = nil
		if m.activeJobID != "" {
			m.logger.Warn("pausing with a job in flight; job abandoned in its last reported status",
				logging.String(logging.FieldJobID, m.activeJobID),
				logging.String(logging.FieldErrorHint, "retry the event to transcribe it again"),
			)
		}
		m.busy = false
		m.activeJobID = ""
	}
	m.mu.Unlock()

	if w != nil {
		w.Terminate()
		m.logger.Info("queue paused and worker terminated")
		return
	}
	m.logger.Info("queue paused")
}

// Resume clears the pause, resets the failure counter, and brings the worker
// back if it is gone.
func (m *Manager) Resume() {
	m.mu.Lock()
	m.paused = false
	m.failures = 0
	if m.worker == nil {
		m.ensureWorkerLocked()
	} else {
		m.dispatchLocked()
	}
	m.mu.Unlock()
	m.logger.Info("queue resumed")
}

// Shutdown terminates the worker unconditionally, disables recreation, and
// clears the queue. Intended for process exit only.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopRecreateTimerLocked()
	w := m.worker
	m.worker = nil
	m.jobs = nil
	m.busy = false
	m.activeJobID = ""
	m.mu.Unlock()

	if w != nil {
		w.Terminate()
		select {
		case <-w.Done():
		case <-time.After(5 * time.Second):
			m.logger.Warn("worker did not exit within the shutdown grace period")
		}
	}
	m.logger.Info("queue manager shut down")
}

// dispatchLocked sends the oldest queued job to the worker when nothing is
// in flight and dispatch is not held. The worker must have signaled ready
// since its last job; without that gate a submission racing the
// creation-time ready could put a second job in flight. A rejected send is a
// worker fault: the job stays queued and recovery takes over.
func (m *Manager) dispatchLocked() {
	if m.closed || m.paused || m.busy || m.worker == nil || !m.workerReady {
		return
	}
	var next *transcription.Job
	for _, job := range m.jobs {
		if job.Status == transcription.StatusQueued {
			next = job
			break
		}
	}
	if next == nil {
		return
	}

	m.busy = true
	m.workerReady = false
	m.activeJobID = next.ID
	if !m.worker.Submit(next.Clone()) {
		m.busy = false
		m.activeJobID = ""
		w := m.worker
		m.worker = nil
		w.Terminate()
		m.logger.Error("worker rejected dispatch",
			logging.String(logging.FieldJobID, next.ID),
			logging.String(logging.FieldEventType, "worker_fault"),
			logging.String(logging.FieldImpact, "job stays queued until a replacement worker is ready"),
		)
		m.recoverLocked("dispatch send failed")
		return
	}
	m.logger.Info("job dispatched",
		logging.String(logging.FieldJobID, next.ID),
		logging.String(logging.FieldEventID, next.EventID),
	)
}

// ensureWorkerLocked creates the worker when none exists and nothing blocks
// creation: not paused, not shut down, no recreation pending, and the
// failure ceiling not yet passed.
func (m *Manager) ensureWorkerLocked() {
	if m.worker != nil || m.closed || m.paused || m.recreateTimer != nil || m.failures > m.maxFailures {
		return
	}
	m.createWorkerLocked()
}

// createWorkerLocked runs the factory and starts consuming the new worker's
// messages. Factory errors count as failures and schedule recovery.
func (m *Manager) createWorkerLocked() {
	w, err := m.factory()
	if err != nil {
		m.logger.Error("worker creation failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "worker_creation_failed"),
			logging.String(logging.FieldErrorHint, "check the engine, model, and ffmpeg installation"),
		)
		m.recoverLocked("worker creation failed: " + err.Error())
		return
	}
	m.worker = w
	m.busy = false
	m.workerReady = false
	m.logger.Info("worker created")
	go m.consume(w)
}

// consume forwards one worker generation's messages into the manager. On
// exit it drains buffered messages first so terminal status updates are not
// lost to the exit race.
func (m *Manager) consume(w Worker) {
	for {
		select {
		case msg := <-w.Messages():
			m.handleMessage(w, msg)
		case <-w.Done():
			for {
				select {
				case msg := <-w.Messages():
					m.handleMessage(w, msg)
				default:
					m.handleExit(w)
					return
				}
			}
		}
	}
}

func (m *Manager) handleMessage(w Worker, msg transcription.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.worker != w {
		// A replaced worker's leftovers must not touch current state: a
		// stray ready would clear the busy flag or undo a saturated counter.
		m.logger.Debug("dropping message from replaced worker",
			logging.String("kind", string(msg.Kind)))
		return
	}

	switch msg.Kind {
	case transcription.MessageReady:
		m.handleReadyLocked()
	case transcription.MessageStatusUpdate:
		m.handleStatusUpdateLocked(msg)
	default:
		m.logger.Warn("unknown worker message kind", logging.String("kind", string(msg.Kind)))
	}
}

// handleReadyLocked marks the worker known-good: the busy flag clears, the
// failure counter resets, any pending recreation is cancelled, and the next
// queued job is dispatched.
func (m *Manager) handleReadyLocked() {
	m.busy = false
	m.workerReady = true
	m.activeJobID = ""
	m.failures = 0
	m.stopRecreateTimerLocked()
	if m.degraded {
		m.degraded = false
		m.publisher.PipelineRecovered()
		m.logger.Info("pipeline recovered; dispatch resumes")
	}
	m.dispatchLocked()
}

func (m *Manager) handleStatusUpdateLocked(msg transcription.Message) {
	job := m.findJobLocked(msg.JobID)
	if job == nil {
		// Possible when PurgeTerminal raced an in-flight job.
		m.logger.Warn("status update for unknown job dropped",
			logging.String(logging.FieldJobID, msg.JobID),
			logging.String(logging.FieldStatus, string(msg.Status)),
		)
		return
	}

	job.Status = msg.Status
	if msg.MixedAudioPath != "" {
		job.MixedAudioPath = msg.MixedAudioPath
	}
	switch msg.Status {
	case transcription.StatusTranscribing:
		if msg.Progress != nil {
			v := *msg.Progress
			job.Progress = &v
		}
	case transcription.StatusCompleted:
		job.Transcript = msg.Transcript
		job.Progress = nil
	case transcription.StatusFailed:
		job.ErrorMessage = msg.ErrorMessage
		job.Progress = nil
	default:
		job.Progress = nil
	}

	snapshot := job.Clone()
	m.publisher.JobUpdated(snapshot)
	m.persistAsync(snapshot)
	m.logger.Info("job status updated",
		logging.String(logging.FieldJobID, snapshot.ID),
		logging.String(logging.FieldEventID, snapshot.EventID),
		logging.String(logging.FieldStatus, string(snapshot.Status)),
		logging.Int(logging.FieldProgress, snapshot.ProgressValue()),
	)
}

// handleExit reacts to the current worker generation going away. A clean
// exit clears the reference and resets the counter; anything else runs
// recovery. Exits from already-replaced workers are ignored.
func (m *Manager) handleExit(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.worker != w {
		m.logger.Debug("exit from replaced worker ignored")
		return
	}

	m.worker = nil
	if m.activeJobID != "" {
		m.logger.Warn("worker exited with a job in flight; job abandoned in its last reported status",
			logging.String(logging.FieldJobID, m.activeJobID),
			logging.String(logging.FieldErrorHint, "retry the event to transcribe it again"),
		)
		m.activeJobID = ""
	}
	m.busy = false

	if err := w.ExitErr(); err != nil {
		m.logger.Warn("worker exited abnormally",
			logging.Error(err),
			logging.String(logging.FieldEventType, "worker_exit"),
		)
		m.recoverLocked(err.Error())
		return
	}
	m.failures = 0
	m.logger.Info("worker exited cleanly; not recreating")
}

// recoverLocked counts a failure and either schedules one recreation attempt
// or, past the ceiling, declares the pipeline degraded. Queued jobs then
// stall until Resume; that stall is published, not silent.
func (m *Manager) recoverLocked(reason string) {
	m.failures++
	if m.failures > m.maxFailures {
		if !m.degraded {
			m.degraded = true
			m.logger.Error("worker recreation ceiling reached",
				logging.Int("consecutive_failures", m.failures),
				logging.String(logging.FieldEventType, "pipeline_degraded"),
				logging.String(logging.FieldErrorHint, "fix the environment and run resume"),
				logging.String(logging.FieldImpact, "queued jobs stall until resume"),
			)
			m.publisher.PipelineDegraded(m.failures)
		}
		return
	}
	m.scheduleRecreateLocked(reason)
}

// scheduleRecreateLocked arms the single recreation timer. A pending timer
// wins: recovery attempts are never stacked.
func (m *Manager) scheduleRecreateLocked(reason string) {
	if m.recreateTimer != nil {
		m.logger.Debug("worker recreation already scheduled")
		return
	}
	m.logger.Warn("scheduling worker recreation",
		logging.String("reason", reason),
		logging.Int("attempt", m.failures),
		logging.Duration("delay", m.recreateDelay),
	)
	m.recreateTimer = time.AfterFunc(m.recreateDelay, m.recreateWorker)
}

func (m *Manager) recreateWorker() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recreateTimer = nil
	if m.closed || m.worker != nil {
		return
	}
	m.createWorkerLocked()
}

func (m *Manager) stopRecreateTimerLocked() {
	if m.recreateTimer != nil {
		m.recreateTimer.Stop()
		m.recreateTimer = nil
	}
}
