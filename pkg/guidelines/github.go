// Package guidelines fetches a house coding-style document from a
// configured GitHub repo and hands it to the Prompt Builder as an
// optional enrichment. Adapted from the teacher's pkg/runbook: the same
// raw-content GitHub client and TTL cache, narrowed from "many runbooks
// keyed by alert type" down to "one guidelines document, or none".
package guidelines

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultFetchTimeout = 10 * time.Second

// githubClient fetches raw file content from GitHub, optionally
// authenticated with a personal access token for private repos.
type githubClient struct {
	httpClient *http.Client
	token      string
}

func newGitHubClient(token string) *githubClient {
	return &githubClient{
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		token:      token,
	}
}

// downloadContent fetches the raw content at url. url is expected to
// already be a raw.githubusercontent.com URL or a github.com blob URL;
// blob URLs are converted to their raw equivalent first.
func (c *githubClient) downloadContent(ctx context.Context, url string) (string, error) {
	rawURL := convertToRawURL(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("guidelines: building request: %w", err)
	}
	c.setAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("guidelines: fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: rawURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("guidelines: reading response body: %w", err)
	}
	return string(body), nil
}

func (c *githubClient) setAuthHeader(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// convertToRawURL rewrites a github.com/<owner>/<repo>/blob/<ref>/<path>
// URL into its raw.githubusercontent.com equivalent. URLs that are
// already raw, or that don't match the blob pattern, pass through
// unchanged.
func convertToRawURL(url string) string {
	const marker = "/blob/"
	if !strings.Contains(url, "github.com/") || !strings.Contains(url, marker) {
		return url
	}

	rest := strings.TrimPrefix(url, "https://")
	rest = strings.TrimPrefix(rest, "http://")
	rest = strings.TrimPrefix(rest, "github.com/")
	rest = strings.Replace(rest, marker, "/", 1)
	return "https://raw.githubusercontent.com/" + rest
}
