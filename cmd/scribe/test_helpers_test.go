package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/daemon"
	"scribe/internal/ipc"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/paths"
	"scribe/internal/queue"
	"scribe/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	baseDir    string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	enginePath := filepath.Join(testsupport.BaseDir(cfg), "bin", "whisper-cli")
	testsupport.WriteScript(t, enginePath,
		"#!/bin/sh\necho 'whisper_print_progress_callback: progress = 50%' >&2\nprintf 'stub transcript'\n")
	ffmpegPath := filepath.Join(testsupport.BaseDir(cfg), "bin", "ffmpeg")
	testsupport.WriteScript(t, ffmpegPath,
		"#!/bin/sh\nfor last; do :; done\nprintf 'RIFF' > \"$last\"\n")
	cfg.Engine.Binary = enginePath
	cfg.Mixing.FFmpegBinary = ffmpegPath
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ModelsDir, "ggml-base.en.bin"), 64)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	hub := notifications.NewHub()
	router := notifications.NewRouter(hub, notifications.NewService(cfg), cfg, logger)
	manager := queue.NewManager(queue.Options{
		Factory:   queue.PipelineWorkerFactory(cfg, paths.NewLayout(cfg), logger),
		Recorder:  st,
		Publisher: router,
		Logger:    logger,
	})

	d, err := daemon.New(cfg, st, logger, manager, router)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		baseDir:    base,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
staging_dir = %q
log_dir = %q
models_dir = %q

[engine]
binary = %q
model = "base.en"
language = "en"

[mixing]
ffmpeg_binary = %q
`,
		cfg.Paths.DataDir,
		cfg.Paths.StagingDir,
		cfg.Paths.LogDir,
		cfg.Paths.ModelsDir,
		cfg.Engine.Binary,
		cfg.Mixing.FFmpegBinary,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
