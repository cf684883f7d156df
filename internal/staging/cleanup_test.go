package staging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"scribe/internal/logging"
	"scribe/internal/staging"
	"scribe/internal/testsupport"
)

func writeAged(t *testing.T, path string, size int64, age time.Duration) {
	t.Helper()
	testsupport.WriteFile(t, path, size)
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("age %s: %v", path, err)
	}
}

func TestCleanStaleRemovesOnlyExpiredMixedAudio(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "job-1-mixed.wav")
	fresh := filepath.Join(dir, "job-2-mixed.wav")
	scratch := filepath.Join(dir, "operator-notes.txt")
	staleScratch := filepath.Join(dir, "raw-capture.wav")

	writeAged(t, stale, 512, 48*time.Hour)
	writeAged(t, fresh, 512, time.Hour)
	writeAged(t, scratch, 64, 48*time.Hour)
	writeAged(t, staleScratch, 64, 48*time.Hour)

	result, err := staging.CleanStale(dir, 24*time.Hour, logging.NewNop())
	if err != nil {
		t.Fatalf("CleanStale failed: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected cleanup errors: %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != stale {
		t.Fatalf("expected only stale mixed file removed, got %v", result.Removed)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err=%v", stale, err)
	}
	for _, keep := range []string{fresh, scratch, staleScratch} {
		if _, err := os.Stat(keep); err != nil {
			t.Fatalf("expected %s kept: %v", keep, err)
		}
	}
}

func TestCleanStaleToleratesMissingDirectory(t *testing.T) {
	result, err := staging.CleanStale(filepath.Join(t.TempDir(), "absent"), time.Hour, logging.NewNop())
	if err != nil {
		t.Fatalf("expected missing directory tolerated: %v", err)
	}
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestCleanStaleIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "archive-mixed.wav")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stamp := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(sub, stamp, stamp); err != nil {
		t.Fatalf("age dir: %v", err)
	}

	result, err := staging.CleanStale(dir, 24*time.Hour, logging.NewNop())
	if err != nil {
		t.Fatalf("CleanStale failed: %v", err)
	}
	if len(result.Removed) != 0 {
		t.Fatalf("expected directory skipped, got %v", result.Removed)
	}
	if _, err := os.Stat(sub); err != nil {
		t.Fatalf("expected directory untouched: %v", err)
	}
}

func TestUsageCountsMixedAudioOnly(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a-mixed.wav"), 1000)
	testsupport.WriteFile(t, filepath.Join(dir, "b-mixed.wav"), 500)
	testsupport.WriteFile(t, filepath.Join(dir, "unrelated.wav"), 9999)

	count, total, err := staging.Usage(dir)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 mixed files, got %d", count)
	}
	if total != 1500 {
		t.Fatalf("expected 1500 bytes, got %d", total)
	}
}

func TestUsageMissingDirectory(t *testing.T) {
	count, total, err := staging.Usage(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("expected missing directory tolerated: %v", err)
	}
	if count != 0 || total != 0 {
		t.Fatalf("expected zero usage, got %d files %d bytes", count, total)
	}
}
