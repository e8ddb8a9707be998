// Package proposer calls the LLM, parses its response, and attributes
// token usage. It never mutates disk.
package proposer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/evoctl/evo/pkg/evolvable/budget"
	"github.com/evoctl/evo/pkg/evolvable/router"
	"github.com/evoctl/evo/pkg/registry"
)

// codeBlockPattern extracts the first fenced code block, across lines
// (dotall), optionally tagged with a language hint like "go".
var codeBlockPattern = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9_+-]*\\n)?(.*?)```")

// reasoningPattern extracts the trailing "Reasoning:" line.
var reasoningPattern = regexp.MustCompile(`(?m)^Reasoning:\s*(.*)$`)

const fallbackReasoning = "(no reasoning provided)"

// Proposal is the immutable output of a successful Propose call.
type Proposal struct {
	Target    registry.TargetName
	OldSource string
	NewSource string
	Reasoning string
	ModelTag  string
	TokensIn  int
	TokensOut int
}

// Proposer calls the LLM endpoint to request a rewrite of one
// evolvable target.
type Proposer struct {
	budget     *budget.Budget
	router     *router.Router
	httpClient *http.Client
	endpoint   string
	apiKey     string
	maxTokens  int
}

// Config configures a Proposer.
type Config struct {
	Endpoint         string
	APIKey           string
	MaxTokensPerCall int
	ReceiveTimeout   time.Duration
}

// New returns a Proposer wired to budget and router.
func New(b *budget.Budget, r *router.Router, cfg Config) *Proposer {
	return &Proposer{
		budget:    b,
		router:    r,
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		maxTokens: cfg.MaxTokensPerCall,
		httpClient: &http.Client{
			Timeout: cfg.ReceiveTimeout,
		},
	}
}

// chatRequest is the minimal Anthropic Messages API request shape.
type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the minimal Anthropic Messages API response shape
// the Proposer needs.
type chatResponse struct {
	Content []contentBlock `json:"content"`
	Usage   usage          `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Propose reads the on-disk source for target, checks budget, sends the
// caller-built promptText to the LLM and returns a Proposal.
func (p *Proposer) Propose(ctx context.Context, target registry.Target, promptText string) (*Proposal, error) {
	oldSource, err := os.ReadFile(target.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("proposer: reading source for %s: %w", target.Name, err)
	}

	if !p.budget.HasBudget() {
		return nil, ErrBudgetExhausted
	}

	modelTag := p.router.Current()

	reqBody := chatRequest{
		Model:     modelTag,
		MaxTokens: p.maxTokens,
		Messages: []chatMessage{
			{Role: "user", Content: promptText},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("proposer: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	newSource, ok := extractCodeBlock(text)
	if !ok {
		return nil, ErrNoCodeInResponse
	}
	reasoning := extractReasoning(text)

	p.budget.Record(int64(parsed.Usage.InputTokens), int64(parsed.Usage.OutputTokens))

	slog.Info("proposer: proposal generated",
		"target", target.Name, "model", modelTag,
		"tokens_in", parsed.Usage.InputTokens, "tokens_out", parsed.Usage.OutputTokens)

	return &Proposal{
		Target:    target.Name,
		OldSource: string(oldSource),
		NewSource: newSource,
		Reasoning: reasoning,
		ModelTag:  modelTag,
		TokensIn:  parsed.Usage.InputTokens,
		TokensOut: parsed.Usage.OutputTokens,
	}, nil
}

func extractCodeBlock(text string) (string, bool) {
	match := codeBlockPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}

func extractReasoning(text string) string {
	match := reasoningPattern.FindStringSubmatch(text)
	if match == nil {
		return fallbackReasoning
	}
	reasoning := strings.TrimSpace(match[1])
	if reasoning == "" {
		return fallbackReasoning
	}
	return reasoning
}
