// Package services defines shared utilities consumed by the transcription
// pipeline and its external tool integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failures from
//     the mixer, the engine, and the resolver classifiable with errors.Is.
//   - Context helpers that stamp job IDs, meeting event IDs, and correlation
//     identifiers for logging.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across components.
package services
