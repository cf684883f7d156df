// Package paths resolves filesystem locations for the transcription engine,
// its model files, and the ffmpeg binary used for mixing. Resolution differs
// between a development checkout of whisper.cpp and an installed layout, so
// the rest of the daemon depends on the Resolver interface rather than on
// configuration fields. Resolvers are pure: they compute paths without
// touching the filesystem, leaving existence checks to callers that care.
package paths
