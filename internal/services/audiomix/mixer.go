package audiomix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

// Mixer combines two recorded audio tracks into one file for transcription.
type Mixer interface {
	Mix(ctx context.Context, systemAudioPath, micAudioPath, outputPath string) error
}

// Option configures the ffmpeg mixer.
type Option func(*FFmpeg)

// WithBinary overrides the default ffmpeg binary.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if strings.TrimSpace(binary) != "" {
			f.binary = binary
		}
	}
}

// FFmpeg mixes tracks by shelling out to ffmpeg.
type FFmpeg struct {
	binary string
}

// NewFFmpeg constructs a mixer using defaults.
func NewFFmpeg(opts ...Option) *FFmpeg {
	mixer := &FFmpeg{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(mixer)
	}
	return mixer
}

// Mix overlays the two input tracks into a mono 16 kHz WAV at outputPath.
// Both inputs must exist; the output directory is created as needed.
func (f *FFmpeg) Mix(ctx context.Context, systemAudioPath, micAudioPath, outputPath string) error {
	if strings.TrimSpace(systemAudioPath) == "" || strings.TrimSpace(micAudioPath) == "" {
		return errors.New("both input tracks required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}
	for _, input := range []string{systemAudioPath, micAudioPath} {
		if _, err := os.Stat(input); err != nil {
			return fmt.Errorf("input track %s: %w", input, err)
		}
	}
	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", systemAudioPath,
		"-i", micAudioPath,
		"-filter_complex", "amix=inputs=2:duration=longest:dropout_transition=2",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outputPath,
	}
	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			return fmt.Errorf("ffmpeg mix: %w", err)
		}
		return fmt.Errorf("ffmpeg mix: %w: %s", err, detail)
	}
	return nil
}

var _ Mixer = (*FFmpeg)(nil)
