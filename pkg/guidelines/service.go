package guidelines

import (
	"context"
	"log/slog"
	"time"
)

const defaultTTL = 10 * time.Minute

// Config configures a Service. A zero-value SourceURL disables the
// service entirely: New returns nil, and Content becomes a no-op.
type Config struct {
	SourceURL string
	Token     string
	TTL       time.Duration
}

// Service resolves the configured guidelines document, serving from a
// TTL cache when possible and falling back to the last successfully
// fetched copy if a refresh fails.
type Service struct {
	github    *githubClient
	cache     *cache
	sourceURL string
	logger    *slog.Logger
}

// New returns a Service backed by cfg, or nil if cfg.SourceURL is
// unset. A nil *Service is safe to call Content on.
func New(cfg Config) *Service {
	if cfg.SourceURL == "" {
		return nil
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	return &Service{
		github:    newGitHubClient(cfg.Token),
		cache:     newCache(ttl),
		sourceURL: cfg.SourceURL,
		logger:    slog.Default().With("component", "guidelines"),
	}
}

// Content returns the guidelines document text, fetching and caching it
// on first use or once the TTL expires. On a nil Service, or when a
// refresh fails with nothing cached yet, it returns "" with ok=false —
// the Prompt Builder treats that as "no guidelines available" rather
// than a hard error, since the Proposer can still operate without them.
func (s *Service) Content(ctx context.Context) (content string, ok bool) {
	if s == nil {
		return "", false
	}

	if cached, fresh := s.cache.get(); fresh {
		return cached, true
	}

	fetched, err := s.github.downloadContent(ctx, s.sourceURL)
	if err != nil {
		s.logger.Warn("guidelines: refresh failed", "error", err)
		if stale, present := s.staleEntry(); present {
			return stale, true
		}
		return "", false
	}

	s.cache.set(fetched)
	return fetched, true
}

// staleEntry returns the cached content regardless of TTL, used as a
// fallback when a refresh attempt errors.
func (s *Service) staleEntry() (string, bool) {
	s.cache.mu.RLock()
	defer s.cache.mu.RUnlock()
	if s.cache.entry == nil {
		return "", false
	}
	return s.cache.entry.content, true
}
