// Package preflight verifies the daemon's runtime environment: required
// directories, the transcription engine and its default model, ffmpeg, and
// the ntfy server when push notifications are configured. Checks are
// advisory — the daemon reports failures at startup and through status
// output instead of refusing to run, since a missing binary only matters
// once a job needs it.
package preflight
