// Package notifications carries job lifecycle events out of the pipeline.
// The Hub is the in-process channel the desktop app observes through IPC
// polling: every queued job and every status change lands there as a full
// job snapshot. The Service interface pushes a smaller set of externally
// interesting transitions (completion, failure, pipeline degradation) to an
// ntfy topic when one is configured.
package notifications
