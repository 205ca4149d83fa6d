package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"kiteready/internal/config"
	"kiteready/internal/notifications"
	"kiteready/internal/readiness"
)

func TestNewNtfyReturnsNilWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	if n := notifications.NewNtfy(&cfg, nil); n != nil {
		t.Fatal("expected nil notifier without a topic")
	}
}

func TestNtfyMirrorsNotifications(t *testing.T) {
	tests := []struct {
		name           string
		show           func(*notifications.Ntfy) readiness.Handle
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "warning with button",
			show: func(n *notifications.Ntfy) readiness.Handle {
				return n.ShowWarning(readiness.TitleNotInstalled, readiness.Options{
					Description: "Install the engine.",
					Buttons:     []readiness.Button{{Text: readiness.ButtonInstall}},
				})
			},
			expectTitle:   "Kite is not installed",
			expectMessage: "Install the engine.\nAvailable in the editor: Install Kite",
			expectTags:    "kite,warning",
		},
		{
			name: "error",
			show: func(n *notifications.Ntfy) readiness.Handle {
				return n.ShowError(readiness.TitleInstallFailed, readiness.Options{Description: `{"code":"E1"}`})
			},
			expectTitle:    "Unable to install Kite",
			expectMessage:  `{"code":"E1"}`,
			expectTags:     "kite,error",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var (
				mu       sync.Mutex
				captured struct {
					title    string
					tags     string
					priority string
					body     string
				}
			)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				mu.Lock()
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				captured.body = string(body)
				mu.Unlock()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			n := notifications.NewNtfy(&cfg, nil)
			h := tc.show(n)
			n.Flush()

			// Detached handles accept calls without effect.
			h.OnDismiss(func() { t.Error("detached handle should never fire") })
			h.Dismiss()

			mu.Lock()
			defer mu.Unlock()
			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyTestNotificationReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic locked", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewNtfy(&cfg, nil).TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from forbidden topic")
	}
}
