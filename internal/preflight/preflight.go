package preflight

import (
	"context"
	"strings"

	"scribe/internal/config"
	"scribe/internal/paths"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunLocal executes the filesystem and binary checks. It never touches
// the network, so it is safe to run on every status request.
func RunLocal(cfg *config.Config, resolver paths.Resolver) []Result {
	if cfg == nil || resolver == nil {
		return nil
	}

	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckExecutable("Transcription engine", resolver.EngineBinary()),
		CheckModelFile("Default model", resolver.ModelFile("")),
		CheckExecutable("FFmpeg", resolver.FFmpegBinary()),
	}
}

// RunAll executes every applicable check for the given configuration. The
// ntfy check only runs when a topic is configured.
func RunAll(ctx context.Context, cfg *config.Config, resolver paths.Resolver) []Result {
	results := RunLocal(cfg, resolver)
	if results == nil {
		return nil
	}

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyServer))
	}
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, result := range results {
		if !result.Passed {
			out = append(out, result)
		}
	}
	return out
}
