// Package queue owns the in-memory transcription job list and the Worker's
// lifecycle. The Manager is the single writer of job state: jobs enter
// through Submit, leave through PurgeTerminal, and mutate only when the
// Worker reports a status update. Dispatch is FIFO over queued jobs, one job
// in flight at a time, gated by a busy flag the Worker's ready signal clears.
//
// Worker failures are absorbed by bounded recreation: an explicit
// consecutive-failure counter plus a single cancellable timer. Once the
// counter passes its ceiling the pipeline goes degraded — queued jobs hold
// until Resume — and the degradation is published rather than inferred.
//
// Everything the pipeline needs from the outside world (worker construction,
// persistence, the UI event channel) enters through the small interfaces in
// ports.go, so tests substitute all of it.
package queue
