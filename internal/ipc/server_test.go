package ipc_test

import (
	"context"
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
	"scribe/internal/transcription"
)

// startDaemon boots the full pipeline behind a real control socket: stub
// engine and mixer binaries, SQLite store, queue manager, and the JSON-RPC
// server. Returned client talks over the socket like the CLI does.
func startDaemon(t *testing.T) (*ipc.Client, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)

	enginePath := filepath.Join(base, "bin", "whisper-cli")
	testsupport.WriteScript(t, enginePath,
		"#!/bin/sh\necho 'whisper_print_progress_callback: progress = 50%' >&2\nprintf 'stub transcript'\n")
	ffmpegPath := filepath.Join(base, "bin", "ffmpeg")
	testsupport.WriteScript(t, ffmpegPath,
		"#!/bin/sh\nfor last; do :; done\nprintf 'RIFF' > \"$last\"\n")
	cfg.Engine.Binary = enginePath
	cfg.Mixing.FFmpegBinary = ffmpegPath
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ModelsDir, "ggml-base.en.bin"), 64)

	st := testsupport.MustOpenStore(t, cfg)
	hub := notifications.NewHub()
	router := notifications.NewRouter(hub, notifications.NewService(cfg), cfg, logging.NewNop())
	manager := queue.NewManager(queue.Options{
		Factory:       queue.PipelineWorkerFactory(cfg, paths.NewLayout(cfg), logging.NewNop()),
		Recorder:      st,
		Publisher:     router,
		Logger:        logging.NewNop(),
		RecreateDelay: 10 * time.Millisecond,
	})

	d, err := daemon.New(cfg, st, logging.NewNop(), manager, router)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer failed: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start failed: %v", err)
	}

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, cfg
}

func waitForJobStatus(t *testing.T, client *ipc.Client, jobID, status string) ipc.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	var last ipc.Job
	for time.Now().Before(deadline) {
		resp, err := client.Job(jobID)
		if err == nil {
			last = resp.Job
			if last.Status == status {
				return last
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s, last seen %+v", jobID, status, last)
	return ipc.Job{}
}

func TestSubmitRunsJobToCompletionOverSocket(t *testing.T) {
	client, cfg := startDaemon(t)
	systemPath, micPath := testsupport.AudioPair(t, testsupport.BaseDir(cfg))

	resp, err := client.Submit(ipc.SubmitRequest{
		EventID:         "weekly-sync",
		SystemAudioPath: systemPath,
		MicAudioPath:    micPath,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if resp.Job.ID == "" {
		t.Fatal("expected job id in submit response")
	}
	if resp.Job.Status != string(transcription.StatusQueued) {
		t.Fatalf("expected immediate queued snapshot, got %s", resp.Job.Status)
	}
	if resp.Job.EventID != "weekly-sync" {
		t.Fatalf("unexpected event id: %s", resp.Job.EventID)
	}

	job := waitForJobStatus(t, client, resp.Job.ID, string(transcription.StatusCompleted))
	if job.Transcript != "stub transcript" {
		t.Fatalf("expected engine stdout as transcript, got %q", job.Transcript)
	}
	if job.MixedAudioPath == "" {
		t.Fatal("expected mixed audio path recorded")
	}
	if job.Progress != nil {
		t.Fatalf("expected progress cleared on completion, got %v", *job.Progress)
	}

	// The persisted result lands asynchronously.
	deadline := time.Now().Add(5 * time.Second)
	for {
		result, err := client.Result("weekly-sync")
		if err != nil {
			t.Fatalf("Result failed: %v", err)
		}
		if result.Found && result.Result.Status == string(transcription.StatusCompleted) {
			if result.Result.Transcript != "stub transcript" {
				t.Fatalf("unexpected persisted transcript: %q", result.Result.Transcript)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("persisted result never appeared, last %+v", result)
		}
		time.Sleep(5 * time.Millisecond)
	}

	results, err := client.Results(10)
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if len(results.Results) != 1 || results.Results[0].EventID != "weekly-sync" {
		t.Fatalf("unexpected results listing: %+v", results.Results)
	}
}

func TestJobsFilterAndJobsForEvent(t *testing.T) {
	client, cfg := startDaemon(t)
	systemPath, micPath := testsupport.AudioPair(t, testsupport.BaseDir(cfg))

	first, err := client.Submit(ipc.SubmitRequest{EventID: "event-a", SystemAudioPath: systemPath, MicAudioPath: micPath})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	second, err := client.Submit(ipc.SubmitRequest{EventID: "event-b", SystemAudioPath: systemPath, MicAudioPath: micPath})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitForJobStatus(t, client, first.Job.ID, string(transcription.StatusCompleted))
	waitForJobStatus(t, client, second.Job.ID, string(transcription.StatusCompleted))

	all, err := client.Jobs(nil)
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	if len(all.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all.Jobs))
	}

	completed, err := client.Jobs([]string{"completed"})
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	if len(completed.Jobs) != 2 {
		t.Fatalf("expected both jobs completed, got %d", len(completed.Jobs))
	}

	queued, err := client.Jobs([]string{"queued"})
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	if len(queued.Jobs) != 0 {
		t.Fatalf("expected no queued jobs, got %d", len(queued.Jobs))
	}

	forEvent, err := client.JobsForEvent("event-a")
	if err != nil {
		t.Fatalf("JobsForEvent failed: %v", err)
	}
	if len(forEvent.Jobs) != 1 || forEvent.Jobs[0].ID != first.Job.ID {
		t.Fatalf("unexpected jobs for event-a: %+v", forEvent.Jobs)
	}
}

func TestJobLookupErrors(t *testing.T) {
	client, _ := startDaemon(t)

	if _, err := client.Job(""); err == nil || !strings.Contains(err.Error(), "job id is required") {
		t.Fatalf("expected id-required error, got %v", err)
	}
	if _, err := client.Job("missing-job"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if _, err := client.Submit(ipc.SubmitRequest{EventID: ""}); err == nil {
		t.Fatal("expected validation error for empty submission")
	}
}

func TestPauseResumePurgeOverSocket(t *testing.T) {
	client, cfg := startDaemon(t)
	systemPath, micPath := testsupport.AudioPair(t, testsupport.BaseDir(cfg))

	pause, err := client.Pause(false)
	if err != nil || !pause.Paused {
		t.Fatalf("Pause failed: resp=%+v err=%v", pause, err)
	}

	resp, err := client.Submit(ipc.SubmitRequest{EventID: "held-event", SystemAudioPath: systemPath, MicAudioPath: micPath})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	held, err := client.Job(resp.Job.ID)
	if err != nil {
		t.Fatalf("Job failed: %v", err)
	}
	if held.Job.Status != string(transcription.StatusQueued) {
		t.Fatalf("expected job held in queue while paused, got %s", held.Job.Status)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Pipeline.Paused {
		t.Fatal("expected paused pipeline status")
	}
	if status.Pipeline.QueuedJobs != 1 {
		t.Fatalf("expected 1 queued job, got %d", status.Pipeline.QueuedJobs)
	}

	resume, err := client.Resume()
	if err != nil || !resume.Resumed {
		t.Fatalf("Resume failed: resp=%+v err=%v", resume, err)
	}
	waitForJobStatus(t, client, resp.Job.ID, string(transcription.StatusCompleted))

	purge, err := client.Purge()
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if purge.Removed != 1 {
		t.Fatalf("expected 1 purged job, got %d", purge.Removed)
	}
	remaining, err := client.Jobs(nil)
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	if len(remaining.Jobs) != 0 {
		t.Fatalf("expected empty job list after purge, got %d", len(remaining.Jobs))
	}
}

func TestRetryCreatesFreshJobOverSocket(t *testing.T) {
	client, cfg := startDaemon(t)
	systemPath, micPath := testsupport.AudioPair(t, testsupport.BaseDir(cfg))

	first, err := client.Submit(ipc.SubmitRequest{EventID: "retry-event", SystemAudioPath: systemPath, MicAudioPath: micPath, ModelName: "base.en"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitForJobStatus(t, client, first.Job.ID, string(transcription.StatusCompleted))

	retried, err := client.Retry("retry-event", "")
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if retried.Job.ID == first.Job.ID {
		t.Fatal("expected a fresh job id on retry")
	}
	if retried.Job.SystemAudioPath != systemPath || retried.Job.MicAudioPath != micPath {
		t.Fatalf("expected original inputs reused, got %+v", retried.Job)
	}
	if retried.Job.ModelName != "base.en" {
		t.Fatalf("expected model carried over, got %q", retried.Job.ModelName)
	}
	waitForJobStatus(t, client, retried.Job.ID, string(transcription.StatusCompleted))

	forEvent, err := client.JobsForEvent("retry-event")
	if err != nil {
		t.Fatalf("JobsForEvent failed: %v", err)
	}
	if len(forEvent.Jobs) != 2 {
		t.Fatalf("expected both attempts listed, got %d", len(forEvent.Jobs))
	}

	if _, err := client.Retry("never-submitted", ""); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestEventsStreamOverSocket(t *testing.T) {
	client, cfg := startDaemon(t)
	systemPath, micPath := testsupport.AudioPair(t, testsupport.BaseDir(cfg))

	resp, err := client.Submit(ipc.SubmitRequest{EventID: "stream-event", SystemAudioPath: systemPath, MicAudioPath: micPath})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitForJobStatus(t, client, resp.Job.ID, string(transcription.StatusCompleted))

	events, err := client.Events(0, 0)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events.Events) == 0 {
		t.Fatal("expected events after a completed job")
	}
	if events.Events[0].Kind != notifications.EventJobQueued {
		t.Fatalf("expected queued event first, got %q", events.Events[0].Kind)
	}
	var sawCompleted bool
	for _, ev := range events.Events {
		if ev.Kind != notifications.EventJobUpdated || ev.Job == nil {
			continue
		}
		if ev.Job.Status == string(transcription.StatusCompleted) {
			sawCompleted = true
		}
	}
	if !sawCompleted {
		t.Fatal("expected a completed job update event")
	}
	if events.NextSeq == 0 {
		t.Fatal("expected advancing cursor")
	}

	tail, err := client.Events(events.NextSeq, 0)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(tail.Events) != 0 {
		t.Fatalf("expected no events past cursor, got %d", len(tail.Events))
	}
	if tail.NextSeq != events.NextSeq {
		t.Fatalf("expected cursor unchanged, got %d", tail.NextSeq)
	}
}

func TestLogTailOverSocket(t *testing.T) {
	client, cfg := startDaemon(t)

	logPath := filepath.Join(cfg.Paths.LogDir, "scribe.log")
	if err := os.WriteFile(logPath, []byte("line one\nline two\nline three\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	resp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("LogTail failed: %v", err)
	}
	if len(resp.Lines) != 2 || resp.Lines[0] != "line two" || resp.Lines[1] != "line three" {
		t.Fatalf("expected last two lines, got %v", resp.Lines)
	}
	if resp.Offset == 0 {
		t.Fatal("expected end offset for follower")
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString("line four\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	f.Close()

	next, err := client.LogTail(ipc.LogTailRequest{Offset: resp.Offset, Limit: 10})
	if err != nil {
		t.Fatalf("LogTail failed: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "line four" {
		t.Fatalf("expected appended line, got %v", next.Lines)
	}
}

func TestStatusAndNotificationOverSocket(t *testing.T) {
	client, cfg := startDaemon(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("unexpected pid: %d", status.PID)
	}
	if status.SocketPath != cfg.SocketPath() {
		t.Fatalf("unexpected socket path: %s", status.SocketPath)
	}
	if status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("unexpected database path: %s", status.DatabasePath)
	}
	if len(status.Checks) != 6 {
		t.Fatalf("expected 6 environment checks, got %d", len(status.Checks))
	}
	for _, check := range status.Checks {
		if !check.Passed {
			t.Fatalf("expected passing check, got %+v", check)
		}
	}

	notify, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notify.Sent {
		t.Fatal("expected notification skipped without a topic")
	}
	if notify.Message != "ntfy topic not configured" {
		t.Fatalf("unexpected message: %q", notify.Message)
	}
}
