package paths

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"scribe/internal/config"
)

const (
	engineBinaryName = "whisper-cli"
	ffmpegBinaryName = "ffmpeg"
)

// Resolver supplies the executable and model locations the worker needs.
type Resolver interface {
	// EngineBinary returns the whisper binary path, or a bare command name
	// when resolution should fall back to PATH.
	EngineBinary() string
	// ModelFile maps a model name such as "base.en" to the full path of its
	// ggml weights file. An empty name resolves the configured default.
	ModelFile(name string) string
	// FFmpegBinary returns the mixer binary path or bare command name.
	FFmpegBinary() string
}

// Layout resolves paths from configuration. When a whisper.cpp development
// root is configured the binary and models are taken from the checkout's
// build/bin and models directories; otherwise the installed locations apply.
type Layout struct {
	engineBinary string
	devRoot      string
	modelsDir    string
	defaultModel string
	ffmpegBinary string
}

// NewLayout builds a Layout from the loaded configuration.
func NewLayout(cfg *config.Config) *Layout {
	return &Layout{
		engineBinary: strings.TrimSpace(cfg.Engine.Binary),
		devRoot:      strings.TrimSpace(cfg.Engine.DevRoot),
		modelsDir:    strings.TrimSpace(cfg.Paths.ModelsDir),
		defaultModel: strings.TrimSpace(cfg.Engine.Model),
		ffmpegBinary: cfg.FFmpegBinary(),
	}
}

func (l *Layout) EngineBinary() string {
	if l.engineBinary != "" {
		return l.engineBinary
	}
	if l.devRoot != "" {
		return filepath.Join(l.devRoot, "build", "bin", engineBinaryName)
	}
	return engineBinaryName
}

func (l *Layout) ModelFile(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = l.defaultModel
	}
	dir := l.modelsDir
	if l.devRoot != "" {
		dir = filepath.Join(l.devRoot, "models")
	}
	return filepath.Join(dir, ModelFileName(name))
}

func (l *Layout) FFmpegBinary() string {
	if l.ffmpegBinary != "" {
		return l.ffmpegBinary
	}
	return ffmpegBinaryName
}

// ModelFileName maps a model name to its ggml weights filename. Names that
// already carry the .bin suffix are treated as literal filenames.
func ModelFileName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, ".bin") {
		return name
	}
	return "ggml-" + name + ".bin"
}

// ValidateRuntime confirms the engine and mixer binaries resolve to
// executable files. The queue manager calls this before creating a worker so
// an incomplete environment schedules recovery instead of a doomed worker.
func ValidateRuntime(r Resolver) error {
	if err := CheckExecutable(r.EngineBinary()); err != nil {
		return fmt.Errorf("engine binary: %w", err)
	}
	if err := CheckExecutable(r.FFmpegBinary()); err != nil {
		return fmt.Errorf("ffmpeg binary: %w", err)
	}
	return nil
}

// CheckExecutable verifies that command names resolve on PATH and that
// explicit paths point at executable files.
func CheckExecutable(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Errorf("command not configured")
	}
	if !strings.ContainsRune(command, os.PathSeparator) {
		if _, err := exec.LookPath(command); err != nil {
			return fmt.Errorf("binary %q not found: %w", command, err)
		}
		return nil
	}
	info, err := os.Stat(command)
	if err != nil {
		return fmt.Errorf("binary %q not found: %w", command, err)
	}
	if !isExecutable(info) {
		return fmt.Errorf("binary %q is not executable", command)
	}
	return nil
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

var _ Resolver = (*Layout)(nil)
