package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"issuegrid/internal/config"
)

const userAgent = "issuegrid-notify/1"

// Event identifies a notification type.
type Event string

const (
	EventRefreshFailed    Event = "refresh_failed"
	EventRefreshDegraded  Event = "refresh_degraded"
	EventRefreshRecovered Event = "refresh_recovered"
	EventTest             Event = "test"
)

// Payload carries event details. Known keys: "error", "profiles",
// "refreshID".
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRefreshFailed:
		return message{
			title:    "issuegrid - Refresh Failed",
			body:     fmt.Sprintf("No issue listings could be loaded: %s", text(payload, "error")),
			tags:     []string{"issuegrid", "refresh", "failed"},
			priority: "high",
		}, true
	case EventRefreshDegraded:
		body := fmt.Sprintf("Serving cached issues for %s", text(payload, "profiles"))
		if cause := text(payload, "error"); cause != "" {
			body += "\nCause: " + cause
		}
		return message{
			title: "issuegrid - Serving Cached Issues",
			body:  body,
			tags:  []string{"issuegrid", "refresh", "stale"},
		}, true
	case EventRefreshRecovered:
		return message{
			title: "issuegrid - Refresh Recovered",
			body:  fmt.Sprintf("All profiles are current again (refresh %s)", text(payload, "refreshID")),
			tags:  []string{"issuegrid", "refresh", "recovered"},
		}, true
	case EventTest:
		return message{
			title:    "issuegrid - Test",
			body:     "Notification system test",
			tags:     []string{"issuegrid", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func text(payload Payload, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []string:
		return strings.Join(v, ", ")
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", msg.title)
	req.Header.Set("Tags", strings.Join(msg.tags, ","))
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
