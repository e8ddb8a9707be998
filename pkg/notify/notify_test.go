package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evoctl/evo/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsNilWithoutWebhookURL(t *testing.T) {
	s := New(Config{})
	assert.Nil(t, s)
}

func TestNilServiceNotifyGenerationIsANoop(t *testing.T) {
	var s *Service
	s.NotifyGeneration(context.Background(), GenerationSummary{Status: database.StatusAccepted})
}

func TestNotifyGenerationPostsOnAccepted(t *testing.T) {
	received := make(chan slackPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p slackPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received <- p
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(Config{WebhookURL: srv.URL})
	require.NotNil(t, s)

	s.NotifyGeneration(context.Background(), GenerationSummary{
		GenerationNumber: 7, TargetName: "greeter", Status: database.StatusAccepted,
		FitnessScore: 0.12, Reasoning: "tightened the loop",
	})

	select {
	case p := <-received:
		assert.Contains(t, p.Text, "generation 7")
		assert.Contains(t, p.Text, "tightened the loop")
	default:
		t.Fatal("webhook was never called")
	}
}

func TestNotifyGenerationSkipsNeutralAndValidationRejections(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(Config{WebhookURL: srv.URL})
	require.NotNil(t, s)

	s.NotifyGeneration(context.Background(), GenerationSummary{Status: database.StatusAcceptedNeutral})
	s.NotifyGeneration(context.Background(), GenerationSummary{Status: database.StatusRejectedValidation})

	assert.False(t, called)
}
