package config

import "time"

// YAMLConfig is the on-disk shape of evo.yaml.
type YAMLConfig struct {
	DailyBudget         *int64              `yaml:"daily_budget,omitempty"`
	Interval            string              `yaml:"interval,omitempty"`
	AutoStart           *bool               `yaml:"auto_start,omitempty"`
	EscalationThreshold *int                `yaml:"escalation_threshold,omitempty"`
	CheapModelTag       string              `yaml:"cheap_model_tag,omitempty"`
	CapableModelTag     string              `yaml:"capable_model_tag,omitempty"`
	MaxTokensPerCall    *int                `yaml:"max_tokens_per_call,omitempty"`
	LLMEndpoint         string              `yaml:"llm_endpoint,omitempty"`
	LLMReceiveTimeout   string              `yaml:"llm_receive_timeout,omitempty"`
	GitCheckpointDir    string              `yaml:"git_checkpoint_dir,omitempty"`
	Fitness             *FitnessYAMLConfig  `yaml:"fitness,omitempty"`
	Database            *DatabaseYAMLConfig `yaml:"database,omitempty"`
	Notify              *NotifyYAMLConfig   `yaml:"notify,omitempty"`
	Guidelines          *GuidelinesConfig   `yaml:"guidelines,omitempty"`
}

// FitnessYAMLConfig exposes the fitness weights/thresholds as configuration,
// per the Open Question resolution in SPEC_FULL.md §9. Defaults match
// spec.md exactly: 0.6/0.3/0.1 weights, ±0.05 threshold.
type FitnessYAMLConfig struct {
	TimeWeight   *float64 `yaml:"time_weight,omitempty"`
	MemoryWeight *float64 `yaml:"memory_weight,omitempty"`
	LinesWeight  *float64 `yaml:"lines_weight,omitempty"`
	Threshold    *float64 `yaml:"threshold,omitempty"`
}

// DatabaseYAMLConfig holds Postgres connection settings.
type DatabaseYAMLConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// NotifyYAMLConfig holds Slack webhook notification settings.
type NotifyYAMLConfig struct {
	Enabled    *bool  `yaml:"enabled,omitempty"`
	WebhookURL string `yaml:"webhook_url,omitempty"`
}

// GuidelinesConfig holds coding-guidelines fetch settings (pkg/guidelines).
type GuidelinesConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	RepoURL  string `yaml:"repo_url,omitempty"`
	Path     string `yaml:"path,omitempty"`
	CacheTTL string `yaml:"cache_ttl,omitempty"`
}

// Config is the fully resolved, validated, ready-to-use configuration
// returned by Initialize.
type Config struct {
	AnthropicAPIKey     string
	TestBypass          bool
	DailyBudget         int64
	Interval            time.Duration
	AutoStart           bool
	EscalationThreshold int
	CheapModelTag       string
	CapableModelTag     string
	MaxTokensPerCall    int
	LLMEndpoint         string
	LLMReceiveTimeout   time.Duration
	GitCheckpointDir    string

	FitnessWeights   FitnessWeights
	FitnessThreshold float64

	Database   DatabaseConfig
	Notify     NotifyConfig
	Guidelines GuidelinesSettings
}

// FitnessWeights are the per-metric weights threaded into
// fitness.Score via evolver.Deps.FitnessWeights.
type FitnessWeights struct {
	Time   float64
	Memory float64
	Lines  float64
}

// DatabaseConfig mirrors pkg/database.Config field-for-field so callers
// don't need to import both packages to wire one into the other.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NotifyConfig configures the optional Slack-webhook notifier.
type NotifyConfig struct {
	Enabled    bool
	WebhookURL string
}

// GuidelinesSettings configures the optional coding-guidelines fetcher.
type GuidelinesSettings struct {
	Enabled  bool
	RepoURL  string
	Path     string
	CacheTTL time.Duration
}
