// Package audiomix combines a meeting's system-audio and microphone tracks
// into a single mono 16 kHz WAV suitable for the speech-to-text engine.
//
// Mixing is delegated to ffmpeg's amix filter; the package owns argument
// construction and error surfacing, not the mixing math.
package audiomix
