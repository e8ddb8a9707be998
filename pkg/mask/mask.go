// Package mask redacts secret-shaped substrings (API keys, bearer
// tokens) from free text before it is logged or rendered on the
// dashboard. Adapted from the teacher's pkg/masking regex-driven
// pattern compiler, trimmed from a per-MCP-server configurable
// registry down to a fixed built-in pattern set — Evo has one LLM
// provider and one webhook target, not a registry of pluggable tools.
package mask

import "regexp"

// pattern pairs a compiled matcher with its replacement text.
type pattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// builtinPatterns covers the secret shapes that can plausibly leak into
// a Proposal's reasoning text or a Validator rejection message: vendor
// API keys, bearer tokens, and generic key=value secret assignments.
var builtinPatterns = []pattern{
	{
		name:        "anthropic_api_key",
		regex:       regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{10,}`),
		replacement: "sk-ant-***REDACTED***",
	},
	{
		name:        "bearer_token",
		regex:       regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._-]{10,}`),
		replacement: "Bearer ***REDACTED***",
	},
	{
		name:        "generic_key_value_secret",
		regex:       regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password)\s*[:=]\s*\S+`),
		replacement: "$1=***REDACTED***",
	},
}

// Redact applies every built-in pattern to text and returns the
// sanitized result. Safe to call on text that contains no secrets —
// it is then returned unchanged.
func Redact(text string) string {
	for _, p := range builtinPatterns {
		text = p.regex.ReplaceAllString(text, p.replacement)
	}
	return text
}
