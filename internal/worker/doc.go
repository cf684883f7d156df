// Package worker runs the transcription pipeline for one job at a time on a
// dedicated goroutine. A Worker owns no queue: the manager sends it a job
// only after receiving ready, and the Worker walks that job through mixing
// and engine transcription, emitting status updates over its message channel
// as it goes. Worker faults surface as a non-zero exit indicator; the
// manager, not the Worker, decides whether to build a replacement.
package worker
