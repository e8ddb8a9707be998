package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load .env into the process environment (if present)
//  2. Load evo.yaml from configDir
//  3. Expand environment variables
//  4. Parse YAML into structs
//  5. Apply built-in defaults for any unset values
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized successfully",
		"daily_budget", cfg.DailyBudget,
		"interval", cfg.Interval,
		"auto_start", cfg.AutoStart)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	// .env is optional; godotenv.Load is a no-op error we can ignore when
	// the file simply doesn't exist.
	envPath := filepath.Join(configDir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, NewLoadError(".env", err)
		}
	}

	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadEvoYAML()
	if err != nil {
		return nil, NewLoadError("evo.yaml", err)
	}

	cfg := &Config{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		TestBypass:      os.Getenv("EVO_TEST_BYPASS") == "true",

		DailyBudget:         DefaultDailyBudget,
		Interval:            DefaultInterval,
		AutoStart:           DefaultAutoStart,
		EscalationThreshold: DefaultEscalationThreshold,
		CheapModelTag:       DefaultCheapModelTag,
		CapableModelTag:     DefaultCapableModelTag,
		MaxTokensPerCall:    DefaultMaxTokensPerCall,
		LLMEndpoint:         DefaultLLMEndpoint,
		LLMReceiveTimeout:   DefaultLLMReceiveTimeout,
		GitCheckpointDir:    DefaultGitCheckpointDir,

		FitnessWeights: FitnessWeights{
			Time:   DefaultFitnessTimeWeight,
			Memory: DefaultFitnessMemoryWeight,
			Lines:  DefaultFitnessLinesWeight,
		},
		FitnessThreshold: DefaultFitnessThreshold,

		Database: DatabaseConfig{
			Host:     DefaultDBHost,
			Port:     DefaultDBPort,
			User:     DefaultDBUser,
			Database: DefaultDBDatabase,
			SSLMode:  DefaultDBSSLMode,
		},

		Guidelines: GuidelinesSettings{
			CacheTTL: DefaultGuidelinesCacheTTL,
		},
	}

	if err := applyYAML(cfg, yamlCfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyYAML overlays the on-disk YAML config onto the default-populated
// Config, mirroring the teacher's merge-built-in-then-override pattern:
// the scalar top-level fields are applied by hand (mergo doesn't know how
// to merge a *int64 onto an int64 field cleanly), and the nested database
// section is overlaid via mergo.WithOverride.
func applyYAML(cfg *Config, y *YAMLConfig) error {
	if y.DailyBudget != nil {
		cfg.DailyBudget = *y.DailyBudget
	}
	if y.Interval != "" {
		d, err := time.ParseDuration(y.Interval)
		if err != nil {
			return fmt.Errorf("interval: %w", err)
		}
		cfg.Interval = d
	}
	if y.AutoStart != nil {
		cfg.AutoStart = *y.AutoStart
	}
	if y.EscalationThreshold != nil {
		cfg.EscalationThreshold = *y.EscalationThreshold
	}
	if y.CheapModelTag != "" {
		cfg.CheapModelTag = y.CheapModelTag
	}
	if y.CapableModelTag != "" {
		cfg.CapableModelTag = y.CapableModelTag
	}
	if y.MaxTokensPerCall != nil {
		cfg.MaxTokensPerCall = *y.MaxTokensPerCall
	}
	if y.LLMEndpoint != "" {
		cfg.LLMEndpoint = y.LLMEndpoint
	}
	if y.LLMReceiveTimeout != "" {
		d, err := time.ParseDuration(y.LLMReceiveTimeout)
		if err != nil {
			return fmt.Errorf("llm_receive_timeout: %w", err)
		}
		cfg.LLMReceiveTimeout = d
	}
	if y.GitCheckpointDir != "" {
		cfg.GitCheckpointDir = y.GitCheckpointDir
	}

	if y.Fitness != nil {
		if y.Fitness.TimeWeight != nil {
			cfg.FitnessWeights.Time = *y.Fitness.TimeWeight
		}
		if y.Fitness.MemoryWeight != nil {
			cfg.FitnessWeights.Memory = *y.Fitness.MemoryWeight
		}
		if y.Fitness.LinesWeight != nil {
			cfg.FitnessWeights.Lines = *y.Fitness.LinesWeight
		}
		if y.Fitness.Threshold != nil {
			cfg.FitnessThreshold = *y.Fitness.Threshold
		}
	}

	if y.Database != nil {
		userDB := DatabaseConfig{
			Host:     y.Database.Host,
			Port:     y.Database.Port,
			User:     y.Database.User,
			Password: y.Database.Password,
			Database: y.Database.Database,
			SSLMode:  y.Database.SSLMode,
		}
		if err := mergo.Merge(&cfg.Database, userDB, mergo.WithOverride); err != nil {
			return fmt.Errorf("failed to merge database config: %w", err)
		}
	}
	// DB password is commonly supplied out-of-band via the environment
	// rather than committed to evo.yaml.
	if cfg.Database.Password == "" {
		cfg.Database.Password = os.Getenv("EVO_DB_PASSWORD")
	}

	if y.Notify != nil {
		if y.Notify.Enabled != nil {
			cfg.Notify.Enabled = *y.Notify.Enabled
		}
		if y.Notify.WebhookURL != "" {
			cfg.Notify.WebhookURL = y.Notify.WebhookURL
		}
	}
	if cfg.Notify.WebhookURL == "" {
		cfg.Notify.WebhookURL = os.Getenv("EVO_SLACK_WEBHOOK_URL")
	}

	if y.Guidelines != nil {
		if y.Guidelines.Enabled != nil {
			cfg.Guidelines.Enabled = *y.Guidelines.Enabled
		}
		if y.Guidelines.RepoURL != "" {
			cfg.Guidelines.RepoURL = y.Guidelines.RepoURL
		}
		if y.Guidelines.Path != "" {
			cfg.Guidelines.Path = y.Guidelines.Path
		}
		if y.Guidelines.CacheTTL != "" {
			d, err := time.ParseDuration(y.Guidelines.CacheTTL)
			if err != nil {
				return fmt.Errorf("guidelines.cache_ttl: %w", err)
			}
			cfg.Guidelines.CacheTTL = d
		}
	}

	return nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	if cfg.AnthropicAPIKey == "" && !cfg.TestBypass {
		return NewValidationError("config", "anthropic_api_key", "value", ErrMissingAPIKey)
	}
	if cfg.DailyBudget <= 0 {
		return NewValidationError("config", "daily_budget", "value", ErrInvalidValue)
	}
	if cfg.Interval <= 0 {
		return NewValidationError("config", "interval", "value", ErrInvalidValue)
	}
	if cfg.EscalationThreshold <= 0 {
		return NewValidationError("config", "escalation_threshold", "value", ErrInvalidValue)
	}
	if cfg.CheapModelTag == "" {
		return NewValidationError("config", "cheap_model_tag", "value", ErrMissingRequiredField)
	}
	if cfg.CapableModelTag == "" {
		return NewValidationError("config", "capable_model_tag", "value", ErrMissingRequiredField)
	}
	sum := cfg.FitnessWeights.Time + cfg.FitnessWeights.Memory + cfg.FitnessWeights.Lines
	if sum < 0.99 || sum > 1.01 {
		return NewValidationError("fitness", "weights", "value", ErrInvalidValue)
	}
	if cfg.Notify.Enabled && cfg.Notify.WebhookURL == "" {
		return NewValidationError("notify", "webhook_url", "value", ErrMissingRequiredField)
	}
	if cfg.Guidelines.Enabled && cfg.Guidelines.RepoURL == "" {
		return NewValidationError("guidelines", "repo_url", "value", ErrMissingRequiredField)
	}
	return nil
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// evo.yaml is entirely optional; defaults carry the day.
			return nil
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadEvoYAML() (*YAMLConfig, error) {
	var cfg YAMLConfig
	if err := l.loadYAML("evo.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
