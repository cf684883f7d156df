package main

import (
	"strings"
	"testing"
	"time"

	"scribe/internal/ipc"
)

func intPtr(v int) *int { return &v }

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("short input should pass through, got %q", got)
	}
	if got := shortID("  padded-id  "); got != "padded-i" {
		t.Fatalf("expected trimmed prefix, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("a-rather-long-event-name", 10); got != "a-rathe..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdef", 3); got != "abcdef" {
		t.Fatalf("tiny widths should not truncate, got %q", got)
	}
}

func TestFormatJobProgress(t *testing.T) {
	tests := []struct {
		name string
		job  ipc.Job
		want string
	}{
		{"queued", ipc.Job{Status: "queued"}, "-"},
		{"mixing", ipc.Job{Status: "mixing"}, "-"},
		{"transcribing with progress", ipc.Job{Status: "transcribing", Progress: intPtr(42)}, "42%"},
		{"transcribing without progress", ipc.Job{Status: "transcribing"}, "0%"},
		{"completed", ipc.Job{Status: "completed"}, "100%"},
		{"failed", ipc.Job{Status: "failed"}, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatJobProgress(tt.job); got != tt.want {
				t.Fatalf("formatJobProgress = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatJobStatusDetail(t *testing.T) {
	got := formatJobStatusDetail(ipc.Job{Status: "transcribing", Progress: intPtr(73)})
	if got != "Transcribing (73%)" {
		t.Fatalf("unexpected detail: %q", got)
	}
	if got := formatJobStatusDetail(ipc.Job{Status: "queued"}); got != "Queued" {
		t.Fatalf("unexpected detail: %q", got)
	}
}

func TestBuildJobRowsSortsNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	jobs := []ipc.Job{
		{ID: "aaaaaaaa-1", EventID: "oldest", Status: "completed", CreatedAt: base},
		{ID: "bbbbbbbb-2", EventID: "newest", Status: "queued", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "cccccccc-3", EventID: "middle", Status: "transcribing", Progress: intPtr(10), CreatedAt: base.Add(time.Minute)},
	}

	rows := buildJobRows(jobs)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][1] != "newest" || rows[1][1] != "middle" || rows[2][1] != "oldest" {
		t.Fatalf("unexpected ordering: %v %v %v", rows[0][1], rows[1][1], rows[2][1])
	}
	if rows[1][2] != "Transcribing" || rows[1][3] != "10%" {
		t.Fatalf("unexpected status cells: %v", rows[1])
	}
	if rows[0][0] != "bbbbbbbb" {
		t.Fatalf("expected short id in first column, got %q", rows[0][0])
	}
	if rows[2][5] != "2026-08-25 10:00" {
		t.Fatalf("unexpected created cell: %q", rows[2][5])
	}

	if got := buildJobRows(nil); got != nil {
		t.Fatalf("expected nil rows for empty input, got %v", got)
	}
}

func TestStatusKindForJob(t *testing.T) {
	tests := []struct {
		status string
		want   statusKind
	}{
		{"completed", statusOK},
		{"failed", statusError},
		{"queued", statusInfo},
		{"mixing", statusWarn},
		{"transcribing", statusWarn},
	}
	for _, tt := range tests {
		if got := statusKindForJob(tt.status); got != tt.want {
			t.Fatalf("statusKindForJob(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestRenderTableIncludesHeadersAndCells(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Event"},
		[][]string{{"abc", "standup"}, {"def"}},
		[]columnAlignment{alignLeft, alignLeft},
	)
	for _, want := range []string{"ID", "EVENT", "abc", "standup", "def"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table to contain %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty render for missing headers")
	}
}
