// Package store persists transcription outcomes in SQLite. It keeps one row
// per meeting event, upserted as the owning job advances, so the desktop app
// can recover results after a daemon restart. The queue manager consumes the
// store through its own recorder port; nothing in here reaches back into the
// pipeline.
package store
