package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"kiteready/internal/config"
	"kiteready/internal/logging"
	"kiteready/internal/readiness"
)

const userAgent = "kiteready/0.1.0"

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

// Ntfy mirrors notifications to an ntfy topic. Publishing happens in the
// background; Flush waits for in-flight requests.
type Ntfy struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewNtfy builds an ntfy mirror from configuration. It returns nil when no
// topic is configured.
func NewNtfy(cfg *config.Config, logger *slog.Logger) *Ntfy {
	if cfg == nil {
		return nil
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return nil
	}

	timeout := cfg.NotifyRequestTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Ntfy{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		logger:   logging.NewComponentLogger(logger, "ntfy"),
	}
}

func (n *Ntfy) ShowError(title string, opts readiness.Options) readiness.Handle {
	n.publish(payload{
		title:    title,
		message:  formatMessage(opts),
		tags:     []string{"kite", "error"},
		priority: "high",
	})
	return detached{}
}

func (n *Ntfy) ShowWarning(title string, opts readiness.Options) readiness.Handle {
	n.publish(payload{
		title:   title,
		message: formatMessage(opts),
		tags:    []string{"kite", "warning"},
	})
	return detached{}
}

// TestNotification sends a fixed low-priority message and reports the result.
func (n *Ntfy) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "kiteready - Test",
		message:  "Notification system test",
		tags:     []string{"kite", "test"},
		priority: "low",
	})
}

// Flush blocks until every background publish has finished.
func (n *Ntfy) Flush() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func formatMessage(opts readiness.Options) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(opts.Description))
	if len(opts.Buttons) > 0 {
		labels := make([]string, 0, len(opts.Buttons))
		for _, button := range opts.Buttons {
			labels = append(labels, button.Text)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Available in the editor: ")
		b.WriteString(strings.Join(labels, ", "))
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func (n *Ntfy) publish(data payload) {
	if n == nil {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.send(ctx, data); err != nil {
			logging.WarnWithContext(n.logger, "ntfy publish failed", "ntfy_publish_failed",
				logging.String("title", data.title),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
				logging.String(logging.FieldImpact, "notification not mirrored"),
			)
		}
	}()
}

func (n *Ntfy) send(ctx context.Context, data payload) error {
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
