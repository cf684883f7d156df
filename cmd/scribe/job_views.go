package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"scribe/internal/ipc"
	"scribe/internal/textutil"
	"scribe/internal/transcription"
)

const shortIDLength = 8

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatJobProgress(job ipc.Job) string {
	switch transcription.Status(job.Status) {
	case transcription.StatusTranscribing:
		if job.Progress != nil {
			return fmt.Sprintf("%d%%", *job.Progress)
		}
		return "0%"
	case transcription.StatusCompleted:
		return "100%"
	default:
		return "-"
	}
}

func truncate(value string, max int) string {
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}

func buildJobRows(jobs []ipc.Job) [][]string {
	if len(jobs) == 0 {
		return nil
	}
	sorted := make([]ipc.Job, len(jobs))
	copy(sorted, jobs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	rows := make([][]string, 0, len(sorted))
	for _, job := range sorted {
		rows = append(rows, []string{
			shortID(job.ID),
			truncate(job.EventID, 28),
			textutil.StatusLabel(job.Status),
			formatJobProgress(job),
			job.ModelName,
			formatDisplayTime(job.CreatedAt),
		})
	}
	return rows
}

var jobTableHeaders = []string{"ID", "Event", "Status", "Progress", "Model", "Created"}

var jobTableAligns = []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}

func statusKindForJob(status string) statusKind {
	switch transcription.Status(status) {
	case transcription.StatusCompleted:
		return statusOK
	case transcription.StatusFailed:
		return statusError
	case transcription.StatusQueued:
		return statusInfo
	default:
		return statusWarn
	}
}
