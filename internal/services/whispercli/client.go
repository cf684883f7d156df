package whispercli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var commandContext = exec.CommandContext

// progressPattern matches the engine's stderr progress lines, e.g.
// "whisper_print_progress_callback: progress = 42%".
var progressPattern = regexp.MustCompile(`progress\s*=\s*(\d+)%`)

// maxDiagnosticLines bounds the stderr tail carried into failure messages.
const maxDiagnosticLines = 10

// Request describes one engine invocation. Paths are resolved by the caller;
// the client does not consult configuration.
type Request struct {
	BinaryPath string
	ModelPath  string
	AudioPath  string
	// Language is the ISO-639-1 hint passed via -l. Empty omits the flag.
	Language string
}

// Result carries the outcome of a successful invocation.
type Result struct {
	// Transcript is the engine's stdout, verbatim.
	Transcript string
}

// Engine defines the speech-to-text behaviour required by the worker.
type Engine interface {
	Transcribe(ctx context.Context, req Request, onProgress func(percent int)) (Result, error)
}

// CLI invokes the whisper binary directly.
type CLI struct{}

// NewCLI constructs a CLI engine client.
func NewCLI() *CLI {
	return &CLI{}
}

// Transcribe runs the engine over the request's audio file. Progress
// percentages parsed from stderr are forwarded to onProgress in arrival
// order; they are not guaranteed to be monotonic.
func (c *CLI) Transcribe(ctx context.Context, req Request, onProgress func(int)) (Result, error) {
	if strings.TrimSpace(req.BinaryPath) == "" {
		return Result{}, errors.New("engine binary path required")
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return Result{}, errors.New("model path required")
	}
	if strings.TrimSpace(req.AudioPath) == "" {
		return Result{}, errors.New("audio path required")
	}

	cmd := commandContext(ctx, req.BinaryPath, buildArgs(req)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", filepath.Base(req.BinaryPath), err)
	}

	var (
		transcript strings.Builder
		tail       diagnosticTail
		wg         sync.WaitGroup
		streamErr  error
		once       sync.Once
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := io.Copy(&transcript, stdout); err != nil {
			once.Do(func() { streamErr = fmt.Errorf("read transcript: %w", err) })
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			tail.add(line)
			if onProgress == nil {
				continue
			}
			if match := progressPattern.FindStringSubmatch(line); match != nil {
				if percent, err := strconv.Atoi(match[1]); err == nil {
					onProgress(percent)
				}
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() { streamErr = fmt.Errorf("read diagnostics: %w", err) })
		}
	}()

	wg.Wait()
	waitErr := cmd.Wait()

	name := filepath.Base(req.BinaryPath)
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			if detail := tail.String(); detail != "" {
				return Result{}, fmt.Errorf("%s exited with code %d: %s", name, exitErr.ExitCode(), detail)
			}
			return Result{}, fmt.Errorf("%s exited with code %d", name, exitErr.ExitCode())
		}
		return Result{}, fmt.Errorf("%s: %w", name, waitErr)
	}
	if streamErr != nil {
		return Result{}, streamErr
	}

	return Result{Transcript: transcript.String()}, nil
}

func buildArgs(req Request) []string {
	args := []string{"-m", req.ModelPath, "-f", req.AudioPath}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		args = append(args, "-l", lang)
	}
	return append(args, "--no-timestamps", "--print-progress")
}

// diagnosticTail retains the newest stderr lines for failure reporting.
type diagnosticTail struct {
	mu    sync.Mutex
	lines []string
}

func (t *diagnosticTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > maxDiagnosticLines {
		t.lines = t.lines[len(t.lines)-maxDiagnosticLines:]
	}
}

func (t *diagnosticTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}

var _ Engine = (*CLI)(nil)
