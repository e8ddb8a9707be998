package config

import "time"

// Built-in defaults, applied to any field the user omits from evo.yaml.
// Mirrors the teacher's built-in-config-as-floor pattern, scaled down to
// Evo's much smaller configuration surface.
const (
	DefaultDailyBudget         int64         = 100_000
	DefaultInterval            time.Duration = 5 * time.Minute
	DefaultAutoStart           bool          = false
	DefaultEscalationThreshold int           = 3
	DefaultCheapModelTag       string        = "claude-3-5-haiku-20241022"
	DefaultCapableModelTag     string        = "claude-opus-4-1-20250805"
	DefaultMaxTokensPerCall    int           = 4096
	DefaultLLMEndpoint         string        = "https://api.anthropic.com/v1/messages"
	DefaultLLMReceiveTimeout   time.Duration = 60 * time.Second
	DefaultGitCheckpointDir    string        = "."

	DefaultFitnessTimeWeight   float64 = 0.6
	DefaultFitnessMemoryWeight float64 = 0.3
	DefaultFitnessLinesWeight  float64 = 0.1
	DefaultFitnessThreshold    float64 = 0.05

	DefaultDBHost     string = "localhost"
	DefaultDBPort     int    = 5432
	DefaultDBUser     string = "evo"
	DefaultDBDatabase string = "evo"
	DefaultDBSSLMode  string = "disable"

	DefaultGuidelinesCacheTTL time.Duration = 1 * time.Hour
)
