// Package notify posts a generation outcome to a Slack incoming
// webhook. Adapted from the teacher's pkg/slack/service.go: a service
// that wraps an HTTP client, is nil-safe so a disabled notifier never
// needs a guard at the call site, and logs delivery failures instead
// of propagating them — a failed notification must never fail the
// evolution cycle that produced it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evoctl/evo/pkg/database"
)

const defaultTimeout = 5 * time.Second

// Config configures a Service.
type Config struct {
	WebhookURL string
	Timeout    time.Duration
}

// GenerationSummary is the subset of a Generation Record a notification
// reports.
type GenerationSummary struct {
	GenerationNumber int64
	TargetName       string
	Status           database.GenerationStatus
	FitnessScore     float64
	Reasoning        string
}

// Service posts generation outcomes to a Slack incoming webhook.
// Nil-safe: all methods are no-ops when the service is nil, matching
// the teacher's slack.Service convention.
type Service struct {
	httpClient *http.Client
	webhookURL string
	logger     *slog.Logger
}

// New returns a Service posting to cfg.WebhookURL, or nil if no webhook
// is configured.
func New(cfg Config) *Service {
	if cfg.WebhookURL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Service{
		httpClient: &http.Client{Timeout: timeout},
		webhookURL: cfg.WebhookURL,
		logger:     slog.Default().With("component", "notify"),
	}
}

// slackPayload is the minimal incoming-webhook request body Slack
// accepts: a single top-level "text" field.
type slackPayload struct {
	Text string `json:"text"`
}

// shouldNotify reports whether status is one the dashboard operator
// wants surfaced in Slack: an accepted change, or a regression the
// Evolver rolled back. Neutral and validation-rejected generations
// happen too often to page anyone about.
func shouldNotify(status database.GenerationStatus) bool {
	return status == database.StatusAccepted || status == database.StatusRejectedRegression
}

// NotifyGeneration posts a summary of g if its status warrants one.
// Fail-open: delivery errors are logged, never returned.
func (s *Service) NotifyGeneration(ctx context.Context, g GenerationSummary) {
	if s == nil || !shouldNotify(g.Status) {
		return
	}

	payload := slackPayload{Text: formatMessage(g)}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("notify: encoding payload failed", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("notify: building request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("notify: delivery failed", "generation", g.GenerationNumber, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Warn("notify: webhook returned non-2xx", "generation", g.GenerationNumber, "status", resp.StatusCode)
	}
}

func formatMessage(g GenerationSummary) string {
	switch g.Status {
	case database.StatusAccepted:
		return fmt.Sprintf(":white_check_mark: evo generation %d accepted — target=%s score=%.4f\n%s",
			g.GenerationNumber, g.TargetName, g.FitnessScore, g.Reasoning)
	case database.StatusRejectedRegression:
		return fmt.Sprintf(":warning: evo generation %d rolled back (regression) — target=%s score=%.4f\n%s",
			g.GenerationNumber, g.TargetName, g.FitnessScore, g.Reasoning)
	default:
		return fmt.Sprintf("evo generation %d — target=%s status=%s", g.GenerationNumber, g.TargetName, g.Status)
	}
}
