// Package logs reads slices of the daemon log file for the control
// socket and the CLI. The daemon appends, readers poll; there is no
// shared state beyond the file itself.
package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	defaultTailLimit = 200
	maxTailLimit     = 2000
	pollInterval     = 250 * time.Millisecond

	// Log lines carry structured fields and can run long.
	maxLineBytes = 1024 * 1024
)

// TailRequest selects which part of the log to read.
//
// A negative Offset asks for the last Limit lines of the file. A
// non-negative Offset reads forward from that byte position, which is
// how followers resume: pass back the Offset from the previous
// response. When Follow is set and no new lines exist yet, Tail polls
// the file until Wait elapses instead of returning immediately.
type TailRequest struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the byte offset just past
// them. Offset is valid even when Lines is empty.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads log lines from path according to req.
func Tail(ctx context.Context, path string, req TailRequest) (TailResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultTailLimit
	}
	if limit > maxTailLimit {
		limit = maxTailLimit
	}

	if req.Offset < 0 {
		return tailEnd(path, limit)
	}

	res, err := readAfter(path, req.Offset, limit)
	if err != nil {
		return TailResult{}, err
	}
	if len(res.Lines) > 0 || !req.Follow || req.Wait <= 0 {
		return res, nil
	}
	return pollForLines(ctx, path, res.Offset, limit, req.Wait)
}

// tailEnd returns the last limit lines of the file and the offset at
// its end, so a follower can continue from there.
func tailEnd(path string, limit int) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	// Ring of the most recent limit lines.
	ring := make([]string, limit)
	count := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		ring[count%limit] = scanner.Text()
		count++
	}
	if err := scanner.Err(); err != nil {
		return TailResult{}, fmt.Errorf("scan log: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return TailResult{}, fmt.Errorf("seek log: %w", err)
	}

	n := count
	if n > limit {
		n = limit
	}
	lines := make([]string, 0, n)
	for i := count - n; i < count; i++ {
		lines = append(lines, ring[i%limit])
	}
	return TailResult{Lines: lines, Offset: end}, nil
}

// readAfter reads up to limit lines starting at the given byte offset.
// Offsets past the end of the file (the file may have been rotated or
// truncated) clamp to the end rather than erroring.
func readAfter(path string, offset int64, limit int) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{Offset: 0}, nil
		}
		return TailResult{}, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return TailResult{}, fmt.Errorf("stat log: %w", err)
	}
	if offset > info.Size() {
		offset = info.Size()
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return TailResult{}, fmt.Errorf("seek log: %w", err)
	}

	lines := make([]string, 0, limit)
	pos := offset
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for len(lines) < limit && scanner.Scan() {
		text := scanner.Text()
		lines = append(lines, text)
		pos += int64(len(text)) + 1
	}
	if err := scanner.Err(); err != nil {
		return TailResult{}, fmt.Errorf("scan log: %w", err)
	}
	return TailResult{Lines: lines, Offset: pos}, nil
}

// pollForLines re-reads from offset until new lines appear, wait
// elapses, or ctx is cancelled. Used by followers so an idle daemon
// does not turn `logs -f` into a busy loop of empty responses.
func pollForLines(ctx context.Context, path string, offset int64, limit int, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, nil
		case <-ticker.C:
			res, err := readAfter(path, offset, limit)
			if err != nil {
				return TailResult{}, err
			}
			if len(res.Lines) > 0 || time.Now().After(deadline) {
				return res, nil
			}
		}
	}
}
