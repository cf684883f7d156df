// Package language normalizes language identifiers for the
// transcription engine. Configuration accepts ISO 639-1 codes, ISO
// 639-2 codes, or full English names; the engine flag always receives
// the 2-letter form.
package language
