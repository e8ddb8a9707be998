package proposer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/evoctl/evo/pkg/evolvable/budget"
	"github.com/evoctl/evo/pkg/evolvable/router"
	"github.com/evoctl/evo/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTarget(t *testing.T, content string) registry.Target {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "source.go")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return registry.Target{Name: "demo", SourcePath: path}
}

func newProposer(endpoint string, b *budget.Budget, r *router.Router) *Proposer {
	return New(b, r, Config{
		Endpoint:         endpoint,
		APIKey:           "test-key",
		MaxTokensPerCall: 1024,
		ReceiveTimeout:   5 * time.Second,
	})
}

func TestProposeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{
			Content: []contentBlock{{Type: "text", Text: "```go\npackage demo\n```\nReasoning: tightened the loop"}},
			Usage:   usage{InputTokens: 10, OutputTokens: 20},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	b := budget.New(1000)
	rt := router.New("cheap", "capable", 3)
	p := newProposer(server.URL, b, rt)
	target := testTarget(t, "package demo\n")

	proposal, err := p.Propose(context.Background(), target, "do the thing")
	require.NoError(t, err)
	assert.Equal(t, "package demo", proposal.NewSource)
	assert.Equal(t, "tightened the loop", proposal.Reasoning)
	assert.Equal(t, "cheap", proposal.ModelTag)
	assert.Equal(t, 10, proposal.TokensIn)
	assert.Equal(t, 20, proposal.TokensOut)
	assert.Equal(t, int64(30), b.Status().TokensUsedToday)
}

func TestProposeBudgetExhausted(t *testing.T) {
	b := budget.New(10)
	b.Record(10, 0)
	rt := router.New("cheap", "capable", 3)
	p := newProposer("http://unused.invalid", b, rt)
	target := testTarget(t, "package demo\n")

	_, err := p.Propose(context.Background(), target, "do the thing")
	assert.ErrorIs(t, err, ErrBudgetExhausted)
}

func TestProposeNoCodeInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{Content: []contentBlock{{Type: "text", Text: "no code here at all"}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	b := budget.New(1000)
	rt := router.New("cheap", "capable", 3)
	p := newProposer(server.URL, b, rt)
	target := testTarget(t, "package demo\n")

	_, err := p.Propose(context.Background(), target, "do the thing")
	assert.ErrorIs(t, err, ErrNoCodeInResponse)
}

func TestProposeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer server.Close()

	b := budget.New(1000)
	rt := router.New("cheap", "capable", 3)
	p := newProposer(server.URL, b, rt)
	target := testTarget(t, "package demo\n")

	_, err := p.Propose(context.Background(), target, "do the thing")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestProposeMissingSourceFile(t *testing.T) {
	b := budget.New(1000)
	rt := router.New("cheap", "capable", 3)
	p := newProposer("http://unused.invalid", b, rt)

	_, err := p.Propose(context.Background(), registry.Target{Name: "demo", SourcePath: "/does/not/exist.go"}, "x")
	assert.Error(t, err)
}

func TestExtractReasoningFallback(t *testing.T) {
	assert.Equal(t, fallbackReasoning, extractReasoning("no reasoning line here"))
	assert.Equal(t, "trimmed", extractReasoning("blah\nReasoning:   trimmed  "))
}
