package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"glance/internal/config"
)

const userAgent = "Glance/0.1.0"

// Service defines the notification surface exposed to the run controller.
type Service interface {
	NotifyRunStarted(ctx context.Context, itemCount int) error
	NotifyRunCompleted(ctx context.Context, succeeded, failed int, duration time.Duration) error
	NotifyRunFailed(ctx context.Context, runErr error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Noop returns a service that discards every notification.
func Noop() Service {
	return noopService{}
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

func (n *ntfyService) NotifyRunStarted(ctx context.Context, itemCount int) error {
	data := payload{
		title:   "Glance - Run Started",
		message: fmt.Sprintf("Submitting %d media items", itemCount),
		tags:    []string{"glance", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, succeeded, failed int, duration time.Duration) error {
	data := payload{
		title:   "Glance - Run Complete",
		message: fmt.Sprintf("Described %d items (%d failed) in %s", succeeded+failed, failed, duration.Round(time.Second)),
		tags:    []string{"glance", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, runErr error) error {
	message := "Run failed"
	if runErr != nil {
		message = "Run failed: " + runErr.Error()
	}
	data := payload{
		title:    "Glance - Run Failed",
		message:  message,
		tags:     []string{"glance", "run", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "Glance - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"glance", "test"},
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

func (noopService) NotifyRunStarted(context.Context, int) error { return nil }

func (noopService) NotifyRunCompleted(context.Context, int, int, time.Duration) error { return nil }

func (noopService) NotifyRunFailed(context.Context, error) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
