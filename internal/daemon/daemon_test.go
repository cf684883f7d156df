package daemon_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/daemon"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/paths"
	"scribe/internal/queue"
	"scribe/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()

	st := testsupport.MustOpenStore(t, cfg)
	hub := notifications.NewHub()
	router := notifications.NewRouter(hub, notifications.NewService(cfg), cfg, logging.NewNop())
	manager := queue.NewManager(queue.Options{
		Factory:  queue.PipelineWorkerFactory(cfg, paths.NewLayout(cfg), logging.NewNop()),
		Recorder: st,
		Logger:   logging.NewNop(),
	})

	d, err := daemon.New(cfg, st, logging.NewNop(), manager, router)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	if _, err := daemon.New(nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
	st := testsupport.MustOpenStore(t, cfg)
	if _, err := daemon.New(cfg, st, logging.NewNop(), nil, nil); err == nil {
		t.Fatal("expected error for missing queue manager")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	if d.Status().Running {
		t.Fatal("expected daemon stopped before Start")
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status()
	if !status.Running {
		t.Fatal("expected running daemon after Start")
	}
	if status.StartedAt.IsZero() {
		t.Fatal("expected start timestamp")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("unexpected pid: %d", status.PID)
	}

	if err := d.Start(context.Background()); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected already-running error, got %v", err)
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon stopped after Stop")
	}
	// Stop on a stopped daemon is a no-op.
	d.Stop()
}

func TestStartRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first := newDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	second := newDaemon(t, cfg)
	err := second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "another scribe daemon instance is already running") {
		t.Fatalf("expected lock contention error, got %v", err)
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("expected lock available after Stop, got %v", err)
	}
}

func TestStartPrunesStaleMixedAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	stale := filepath.Join(cfg.Paths.StagingDir, "old-job-mixed.wav")
	testsupport.WriteFile(t, stale, 16)
	aged := time.Now().Add(-time.Duration(cfg.Workflow.StagingRetentionHours+1) * time.Hour)
	if err := os.Chtimes(stale, aged, aged); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	fresh := filepath.Join(cfg.Paths.StagingDir, "new-job-mixed.wav")
	testsupport.WriteFile(t, fresh, 16)

	d := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(stale); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stale mixed audio was never pruned")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh mixed audio should survive cleanup: %v", err)
	}
}

func TestStatusReportsStagingUsage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.StagingDir, "job-1-mixed.wav"), 512)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.StagingDir, "job-2-mixed.wav"), 256)

	d := newDaemon(t, cfg)
	status := d.Status()
	if status.StagingFiles != 2 {
		t.Fatalf("expected 2 staging files, got %d", status.StagingFiles)
	}
	if status.StagingBytes != 768 {
		t.Fatalf("expected 768 staging bytes, got %d", status.StagingBytes)
	}
	if status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("unexpected database path: %s", status.DatabasePath)
	}
	if status.SocketPath != cfg.SocketPath() {
		t.Fatalf("unexpected socket path: %s", status.SocketPath)
	}
	if status.LogPath != d.LogPath() {
		t.Fatalf("log path mismatch: %s vs %s", status.LogPath, d.LogPath())
	}
	if !strings.HasSuffix(d.LogPath(), "scribe.log") {
		t.Fatalf("unexpected log path: %s", d.LogPath())
	}
}

func TestTestNotificationVariants(t *testing.T) {
	t.Run("no topic configured", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		d := newDaemon(t, cfg)

		sent, message, err := d.TestNotification(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sent {
			t.Fatal("expected notification skipped")
		}
		if message != "ntfy topic not configured" {
			t.Fatalf("unexpected message: %q", message)
		}
	})

	t.Run("delivers to configured server", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg := testsupport.NewConfig(t,
			testsupport.WithNtfyTopic("scribe-test"),
			testsupport.WithNtfyServer(server.URL))
		d := newDaemon(t, cfg)

		sent, message, err := d.TestNotification(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sent {
			t.Fatal("expected notification sent")
		}
		if message != "test notification sent" {
			t.Fatalf("unexpected message: %q", message)
		}
		if gotPath != "/scribe-test" {
			t.Fatalf("expected topic path, got %q", gotPath)
		}
	})

	t.Run("reports delivery failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "server exploded", http.StatusInternalServerError)
		}))
		defer server.Close()

		cfg := testsupport.NewConfig(t,
			testsupport.WithNtfyTopic("scribe-test"),
			testsupport.WithNtfyServer(server.URL))
		d := newDaemon(t, cfg)

		sent, message, err := d.TestNotification(context.Background())
		if err == nil {
			t.Fatal("expected delivery error")
		}
		if sent {
			t.Fatal("expected sent=false on failure")
		}
		if message != "failed to send notification" {
			t.Fatalf("unexpected message: %q", message)
		}
	})
}
