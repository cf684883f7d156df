// Package daemon ties the transcription pipeline together behind a
// single long-running process. It enforces single-instance execution
// with a lock file, owns the queue manager and result store, and
// exposes the operations the control socket serves.
package daemon
