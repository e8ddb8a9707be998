package guidelines

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsNilWithoutSourceURL(t *testing.T) {
	assert.Nil(t, New(Config{}))
}

func TestNilServiceContentIsANoop(t *testing.T) {
	var s *Service
	content, ok := s.Content(context.Background())
	assert.False(t, ok)
	assert.Empty(t, content)
}

func TestContentFetchesAndCaches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("# House Style\n\nUse early returns.\n"))
	}))
	defer srv.Close()

	s := New(Config{SourceURL: srv.URL, TTL: time.Hour})
	require.NotNil(t, s)

	content, ok := s.Content(context.Background())
	require.True(t, ok)
	assert.Contains(t, content, "early returns")

	content2, ok := s.Content(context.Background())
	require.True(t, ok)
	assert.Equal(t, content, content2)
	assert.Equal(t, 1, calls, "second Content call should be served from cache")
}

func TestContentRefetchesAfterTTLExpires(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("v1"))
	}))
	defer srv.Close()

	s := New(Config{SourceURL: srv.URL, TTL: time.Millisecond})
	require.NotNil(t, s)

	_, ok := s.Content(context.Background())
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	_, ok = s.Content(context.Background())
	require.True(t, ok)
	assert.Equal(t, 2, calls)
}

func TestContentFallsBackToStaleEntryOnFetchError(t *testing.T) {
	up := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !up {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("original content"))
	}))
	defer srv.Close()

	s := New(Config{SourceURL: srv.URL, TTL: time.Millisecond})
	require.NotNil(t, s)

	content, ok := s.Content(context.Background())
	require.True(t, ok)
	assert.Equal(t, "original content", content)

	time.Sleep(5 * time.Millisecond)
	up = false

	content, ok = s.Content(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "original content", content)
}

func TestConvertToRawURLRewritesBlobURL(t *testing.T) {
	got := convertToRawURL("https://github.com/acme/repo/blob/main/GUIDELINES.md")
	assert.Equal(t, "https://raw.githubusercontent.com/acme/repo/main/GUIDELINES.md", got)
}

func TestConvertToRawURLLeavesRawURLUnchanged(t *testing.T) {
	got := convertToRawURL("https://raw.githubusercontent.com/acme/repo/main/GUIDELINES.md")
	assert.Equal(t, "https://raw.githubusercontent.com/acme/repo/main/GUIDELINES.md", got)
}
