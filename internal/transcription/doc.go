// Package transcription defines the job model and the message protocol
// shared by the queue manager and the worker.
//
// A Job records one request to mix a meeting's two audio tracks and run the
// speech-to-text engine over the result. Jobs are owned by the queue manager
// for their entire lifetime; the worker only ever receives copies and reports
// back through Message values, never by touching manager state.
package transcription
