// Package whispercli drives the whisper.cpp command-line engine.
//
// The engine contract: transcript text is written to stdout, progress and
// diagnostic lines to stderr, and a zero exit code signals success. The
// client accumulates stdout verbatim, surfaces stderr progress percentages
// through a callback, and folds non-zero exits into errors that carry the
// exit code plus the captured diagnostic tail.
package whispercli
