package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dennisaldea/chipseqpipe/internal/config"
)

const userAgent = "chipseqpipe/0.1.0"

// Service defines the notification surface exposed to the pipeline runner.
type Service interface {
	RunStarted(ctx context.Context, runID, genome string, sampleCount int) error
	RunCompleted(ctx context.Context, runID string, duration time.Duration) error
	RunFailed(ctx context.Context, runID, stage string, failures int) error
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

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
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

func (n *ntfyService) RunStarted(ctx context.Context, runID, genome string, sampleCount int) error {
	runID = strings.TrimSpace(runID)
	genome = strings.TrimSpace(genome)
	if genome == "" {
		genome = "unknown"
	}
	data := payload{
		title:   "ChIP-seq - Run Started",
		message: fmt.Sprintf("Started run %s: %d samples against %s", runID, sampleCount, genome),
		tags:    []string{"chipseq", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) RunCompleted(ctx context.Context, runID string, duration time.Duration) error {
	runID = strings.TrimSpace(runID)
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}
	data := payload{
		title:    "ChIP-seq - Run Complete",
		message:  fmt.Sprintf("Run %s finished in %s", runID, durationText),
		tags:     []string{"chipseq", "run", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) RunFailed(ctx context.Context, runID, stage string, failures int) error {
	runID = strings.TrimSpace(runID)
	stage = strings.TrimSpace(stage)
	if stage == "" {
		stage = "unknown"
	}
	data := payload{
		title:    "ChIP-seq - Run Failed",
		message:  fmt.Sprintf("Run %s stopped at %s: %d tasks failed", runID, stage, failures),
		tags:     []string{"chipseq", "run", "failed"},
		priority: "high",
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

func (noopService) RunStarted(context.Context, string, string, int) error       { return nil }
func (noopService) RunCompleted(context.Context, string, time.Duration) error   { return nil }
func (noopService) RunFailed(context.Context, string, string, int) error        { return nil }
