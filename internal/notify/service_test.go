package notify_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dennisaldea/chipseqpipe/internal/config"
	"github.com/dennisaldea/chipseqpipe/internal/notify"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notify.NewService(&cfg)
	if err := svc.RunCompleted(context.Background(), "run-1", time.Minute); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(svc notify.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "run started",
			send: func(svc notify.Service) error {
				return svc.RunStarted(context.Background(), "run-abc", "hg38", 6)
			},
			expectTitle:   "ChIP-seq - Run Started",
			expectMessage: "Started run run-abc: 6 samples against hg38",
			expectTags:    "chipseq,run,started",
		},
		{
			name: "run started with blank genome",
			send: func(svc notify.Service) error {
				return svc.RunStarted(context.Background(), "run-abc", "  ", 2)
			},
			expectTitle:   "ChIP-seq - Run Started",
			expectMessage: "Started run run-abc: 2 samples against unknown",
			expectTags:    "chipseq,run,started",
		},
		{
			name: "run completed",
			send: func(svc notify.Service) error {
				return svc.RunCompleted(context.Background(), "run-abc", 90*time.Second)
			},
			expectTitle:    "ChIP-seq - Run Complete",
			expectMessage:  "Run run-abc finished in 1m30s",
			expectTags:     "chipseq,run,completed",
			expectPriority: "high",
		},
		{
			name: "run completed with zero duration",
			send: func(svc notify.Service) error {
				return svc.RunCompleted(context.Background(), "run-abc", 0)
			},
			expectTitle:    "ChIP-seq - Run Complete",
			expectMessage:  "Run run-abc finished in 0s",
			expectTags:     "chipseq,run,completed",
			expectPriority: "high",
		},
		{
			name: "run failed",
			send: func(svc notify.Service) error {
				return svc.RunFailed(context.Background(), "run-abc", "align", 3)
			},
			expectTitle:    "ChIP-seq - Run Failed",
			expectMessage:  "Run run-abc stopped at align: 3 tasks failed",
			expectTags:     "chipseq,run,failed",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notify.NewService(&cfg)
			if err := tc.send(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

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

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("topic is read-only"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notify.NewService(&cfg)
	err := svc.RunFailed(context.Background(), "run-abc", "align", 1)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if got := err.Error(); got != "ntfy returned 403: topic is read-only" {
		t.Fatalf("unexpected error message: %q", got)
	}
}
