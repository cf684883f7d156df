// Package staging manages the scratch directory where the worker
// writes mixed audio files. Mixed tracks are inputs to the engine and
// have no value once a job reaches a terminal status, but they are
// kept for a retention window so failed jobs can be inspected and
// retried without re-mixing surprises.
package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/logging"
)

const mixedSuffix = "-mixed.wav"

// CleanupError records a single file that could not be removed.
type CleanupError struct {
	Path  string
	Error string
}

// CleanStaleResult reports what a cleanup pass removed and what it
// could not.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanStale removes mixed audio files in stagingDir whose
// modification time is older than maxAge. Files that do not carry the
// mixed-audio suffix are left alone; the directory may hold operator
// scratch files.
func CleanStale(stagingDir string, maxAge time.Duration, logger *slog.Logger) (CleanStaleResult, error) {
	result := CleanStaleResult{}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("read staging directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), mixedSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(stagingDir, entry.Name())
		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err.Error()})
			if logger != nil {
				logger.Warn("failed to remove stale mixed audio",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "staging_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"))
			}
			continue
		}
		result.Removed = append(result.Removed, path)
	}

	if logger != nil && len(result.Removed) > 0 {
		logger.Info("removed stale mixed audio",
			logging.Int("removed", len(result.Removed)),
			logging.String("staging_dir", stagingDir),
			logging.String(logging.FieldEventType, "staging_cleanup"))
	}
	return result, nil
}

// Usage reports how many mixed audio files sit in stagingDir and their
// combined size in bytes.
func Usage(stagingDir string) (count int, totalBytes int64, err error) {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("read staging directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), mixedSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		totalBytes += info.Size()
	}
	return count, totalBytes, nil
}
