package queue

import (
	"fmt"
	"log/slog"

	"scribe/internal/config"
	"scribe/internal/language"
	"scribe/internal/paths"
	"scribe/internal/services/audiomix"
	"scribe/internal/services/whispercli"
	"scribe/internal/worker"
)

// PipelineWorkerFactory builds workers wired to the real ffmpeg mixer and
// whisper CLI engine. Each invocation re-validates that the binaries resolve,
// so a broken installation aborts creation instead of producing a worker
// that fails every job.
func PipelineWorkerFactory(cfg *config.Config, resolver paths.Resolver, logger *slog.Logger) WorkerFactory {
	mixer := audiomix.NewFFmpeg(audiomix.WithBinary(resolver.FFmpegBinary()))
	engine := whispercli.NewCLI()

	return func() (Worker, error) {
		if err := paths.ValidateRuntime(resolver); err != nil {
			return nil, fmt.Errorf("validate runtime: %w", err)
		}
		w := worker.New(worker.Options{
			Mixer:      mixer,
			Engine:     engine,
			Resolver:   resolver,
			StagingDir: cfg.Paths.StagingDir,
			Language:   language.EngineCode(cfg.Engine.Language),
			Logger:     logger,
		})
		w.Start()
		return w, nil
	}
}
