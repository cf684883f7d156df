package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/textutil"
)

const userAgent = "Scribe/0.1.0"

// Service defines the push-notification surface. Implementations must be
// safe for concurrent use.
type Service interface {
	NotifyTranscriptionCompleted(ctx context.Context, eventID string) error
	NotifyTranscriptionFailed(ctx context.Context, eventID, reason string) error
	NotifyPipelineDegraded(ctx context.Context, consecutiveFailures int) error
	NotifyPipelineRecovered(ctx context.Context) error
	TestNotification(ctx context.Context) error
}

// NewService builds a push service backed by ntfy when a topic is
// configured; otherwise a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	server := strings.TrimSpace(cfg.Notifications.NtfyServer)
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: server + "/" + topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyTranscriptionCompleted(ctx context.Context, eventID string) error {
	data := payload{
		title:   "Scribe - Transcript Ready",
		message: fmt.Sprintf("✅ Transcript ready: %s", textutil.DisplayName(eventID)),
		tags:    []string{"scribe", "transcription", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTranscriptionFailed(ctx context.Context, eventID, reason string) error {
	message := fmt.Sprintf("❌ Transcription failed: %s", textutil.DisplayName(eventID))
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\n%s", message, reason)
	}
	data := payload{
		title:    "Scribe - Transcription Failed",
		message:  message,
		tags:     []string{"scribe", "transcription", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPipelineDegraded(ctx context.Context, consecutiveFailures int) error {
	data := payload{
		title: "Scribe - Pipeline Degraded",
		message: fmt.Sprintf(
			"⚠️ Transcription worker failed %d times in a row; queued jobs are on hold until the daemon is resumed",
			consecutiveFailures,
		),
		tags:     []string{"scribe", "pipeline", "degraded"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPipelineRecovered(ctx context.Context) error {
	data := payload{
		title:   "Scribe - Pipeline Recovered",
		message: "Transcription worker is back; queued jobs are processing again",
		tags:    []string{"scribe", "pipeline", "recovered"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Scribe - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"scribe", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyTranscriptionCompleted(context.Context, string) error { return nil }
func (noopService) NotifyTranscriptionFailed(context.Context, string, string) error {
	return nil
}
func (noopService) NotifyPipelineDegraded(context.Context, int) error { return nil }
func (noopService) NotifyPipelineRecovered(context.Context) error     { return nil }
func (noopService) TestNotification(context.Context) error            { return nil }
