package queue

import "scribe/internal/transcription"

// PipelineStatus is a point-in-time snapshot of the manager for status
// surfaces. It carries no job payloads; use ListJobs for those.
type PipelineStatus struct {
	QueuedJobs    int
	ActiveJobID   string
	TotalJobs     int
	WorkerAlive   bool
	Busy          bool
	Paused        bool
	Degraded      bool
	Failures      int
	RecreateArmed bool
}

// Status reports the manager's current state.
func (m *Manager) Status() PipelineStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	queued := 0
	for _, job := range m.jobs {
		if job.Status == transcription.StatusQueued {
			queued++
		}
	}
	return PipelineStatus{
		QueuedJobs:    queued,
		ActiveJobID:   m.activeJobID,
		TotalJobs:     len(m.jobs),
		WorkerAlive:   m.worker != nil,
		Busy:          m.busy,
		Paused:        m.paused,
		Degraded:      m.degraded,
		Failures:      m.failures,
		RecreateArmed: m.recreateTimer != nil,
	}
}
