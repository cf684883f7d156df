package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"scribe/internal/logging"
	"scribe/internal/paths"
	"scribe/internal/services/audiomix"
	"scribe/internal/services/whispercli"
	"scribe/internal/transcription"
)

// ErrTerminated is the exit indicator of a forcibly stopped Worker. It is a
// non-zero exit: the manager's recovery path decides what happens next.
var ErrTerminated = errors.New("worker terminated")

// messageBuffer gives the Worker slack to emit updates while the manager is
// mid-handling; the manager drains the channel before acting on an exit.
const messageBuffer = 16

// Options carries the collaborators a Worker needs. All fields except Logger
// are required.
type Options struct {
	Mixer      audiomix.Mixer
	Engine     whispercli.Engine
	Resolver   paths.Resolver
	StagingDir string
	Language   string
	Logger     *slog.Logger
}

// Worker processes dispatched jobs sequentially. Create with New, then call
// Start; the zero value is not usable.
type Worker struct {
	mixer      audiomix.Mixer
	engine     whispercli.Engine
	resolver   paths.Resolver
	stagingDir string
	language   string
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	jobs     chan transcription.Job
	messages chan transcription.Message
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	exitErr error
}

// New constructs a Worker. It does not start the processing goroutine.
func New(opts Options) *Worker {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		mixer:      opts.Mixer,
		engine:     opts.Engine,
		resolver:   opts.Resolver,
		stagingDir: opts.StagingDir,
		language:   opts.Language,
		logger:     logging.WithComponent(logger, "worker"),
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(chan transcription.Job, 1),
		messages:   make(chan transcription.Message, messageBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the processing goroutine. The first message on Messages is
// always ready.
func (w *Worker) Start() {
	go w.run()
}

// Submit hands the Worker a job without blocking. A false return means the
// Worker could not accept it; the caller treats that as a fault.
func (w *Worker) Submit(job transcription.Job) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		return false
	}
}

// Messages is the Worker's outbound channel: ready signals and per-job
// status updates, in emission order.
func (w *Worker) Messages() <-chan transcription.Message {
	return w.messages
}

// Done is closed once the processing goroutine has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// ExitErr reports the exit indicator. It is meaningful only after Done is
// closed; nil means a clean, intentional exit.
func (w *Worker) ExitErr() error {
	select {
	case <-w.done:
		return w.exitErr
	default:
		return nil
	}
}

// Terminate forcibly stops the Worker, killing any in-flight subprocess. The
// Worker exits with ErrTerminated.
func (w *Worker) Terminate() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.cancel()
	})
}

// Close asks the Worker to finish its current job and exit cleanly. Unlike
// Terminate, in-flight work completes and the exit indicator stays nil.
func (w *Worker) Close() {
	close(w.jobs)
}

func (w *Worker) run() {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			w.exitErr = fmt.Errorf("worker fault: %v", r)
			w.logger.Error("worker goroutine faulted",
				logging.Any("panic", r),
				logging.String(logging.FieldEventType, "worker_fault"),
				logging.String(logging.FieldErrorHint, "the manager recreates the worker automatically"),
				logging.String(logging.FieldImpact, "in-flight job abandoned"),
			)
		}
	}()

	w.emit(transcription.NewReady())
	for {
		select {
		case <-w.stop:
			w.exitErr = ErrTerminated
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			w.process(job)
			select {
			case <-w.stop:
				w.exitErr = ErrTerminated
				return
			default:
			}
			w.emit(transcription.NewReady())
		}
	}
}

// process walks one job through the pipeline. Every outcome ends in a
// terminal status update; the caller emits the follow-up ready.
func (w *Worker) process(job transcription.Job) {
	logger := w.logger.With(
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldEventID, job.EventID),
	)
	logger.Info("processing transcription job")

	w.emit(transcription.NewStatusUpdate(job.ID, transcription.StatusMixing))

	mixedPath := filepath.Join(w.stagingDir, job.ID+"-mixed.wav")
	if err := w.mixer.Mix(w.ctx, job.SystemAudioPath, job.MicAudioPath, mixedPath); err != nil {
		logger.Warn("mixing failed", logging.Error(err))
		w.emit(transcription.NewStatusUpdate(job.ID, transcription.StatusFailed).
			WithError("Mixing failed: " + err.Error()))
		return
	}

	w.emit(transcription.NewStatusUpdate(job.ID, transcription.StatusTranscribing).
		WithProgress(0).
		WithMixedAudioPath(mixedPath))

	enginePath := w.resolver.EngineBinary()
	modelPath := w.resolver.ModelFile(job.ModelName)
	if err := paths.CheckExecutable(enginePath); err != nil {
		logger.Warn("engine binary unavailable", logging.Error(err))
		w.emit(transcription.NewStatusUpdate(job.ID, transcription.StatusFailed).
			WithError(fmt.Sprintf("transcription engine unavailable: %v", err)))
		return
	}
	if _, err := os.Stat(modelPath); err != nil {
		logger.Warn("model file missing", logging.String("model_path", modelPath))
		w.emit(transcription.NewStatusUpdate(job.ID, transcription.StatusFailed).
			WithError(fmt.Sprintf("model file missing: %s", modelPath)))
		return
	}

	result, err := w.engine.Transcribe(w.ctx, whispercli.Request{
		BinaryPath: enginePath,
		ModelPath:  modelPath,
		AudioPath:  mixedPath,
		Language:   w.language,
	}, func(percent int) {
		w.emit(transcription.NewStatusUpdate(job.ID, transcription.StatusTranscribing).
			WithProgress(percent))
	})
	if err != nil {
		logger.Warn("transcription failed", logging.Error(err))
		w.emit(transcription.NewStatusUpdate(job.ID, transcription.StatusFailed).
			WithError(err.Error()))
		return
	}

	logger.Info("transcription complete",
		logging.Int("transcript_bytes", len(result.Transcript)))
	w.emit(transcription.NewStatusUpdate(job.ID, transcription.StatusCompleted).
		WithTranscript(result.Transcript))
}

// emit blocks until the manager can take the message; the manager drains this
// channel for as long as the Worker lives, so the send always completes.
func (w *Worker) emit(msg transcription.Message) {
	w.messages <- msg
}
