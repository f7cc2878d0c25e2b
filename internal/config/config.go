package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds application configuration.
type Config struct {
	// EvalIntervalSec is how often the evaluation scheduler polls the
	// pressure table for threshold crossings. Default 300 (5 minutes).
	EvalIntervalSec int `json:"eval_interval_sec,omitempty"`

	// EvalStepTimeoutSec bounds each database/network step inside one
	// scheduler pass so a stalled call cannot wedge the whole pass.
	EvalStepTimeoutSec int `json:"eval_step_timeout_sec,omitempty"`

	// EvalPointDelayMs is the fixed delay inserted between evaluated
	// pressure points to avoid saturating the database and the model API.
	EvalPointDelayMs int `json:"eval_point_delay_ms,omitempty"`

	// BreakerThreshold is the number of consecutive connection-class errors
	// that trips the scheduler's circuit breaker.
	BreakerThreshold int `json:"breaker_threshold,omitempty"`

	// BreakerCooldownSec is how long a tripped breaker blocks passes before
	// one recovery attempt is allowed.
	BreakerCooldownSec int `json:"breaker_cooldown_sec,omitempty"`

	// WorkerCount is the number of concurrent job workers.
	WorkerCount int `json:"worker_count,omitempty"`

	// JobMaxAttempts bounds retries for a failed job.
	JobMaxAttempts int `json:"job_max_attempts,omitempty"`

	// JobPollIntervalMs is how often idle workers poll the queue.
	JobPollIntervalMs int `json:"job_poll_interval_ms,omitempty"`

	// ToolLoopMaxIterations caps the tool feedback loop per invocation.
	ToolLoopMaxIterations int `json:"tool_loop_max_iterations,omitempty"`

	// LLMBaseURL is the default OpenAI-compatible endpoint. Per-user
	// settings override it.
	LLMBaseURL string `json:"llm_base_url,omitempty"`

	// LLMModel is the default model name.
	LLMModel string `json:"llm_model,omitempty"`

	// DBMaxOpenConns limits open database connections. If set to 1, all
	// database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledAutomations lists automation IDs to exclude from registration.
	DisabledAutomations []string `json:"disabled_automations,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		EvalIntervalSec:       300,
		EvalStepTimeoutSec:    10,
		EvalPointDelayMs:      250,
		BreakerThreshold:      5,
		BreakerCooldownSec:    120,
		WorkerCount:           2,
		JobMaxAttempts:        3,
		JobPollIntervalMs:     1000,
		ToolLoopMaxIterations: 20,
		LLMBaseURL:            "https://api.openai.com/v1",
		LLMModel:              "gpt-4o-mini",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.memoriae.
func Load(baseDir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are concatenated with
// duplicates removed.
func Merge(base, overlay *Config) *Config {
	result := *overlay

	if result.EvalIntervalSec == 0 {
		result.EvalIntervalSec = base.EvalIntervalSec
	}
	if result.EvalStepTimeoutSec == 0 {
		result.EvalStepTimeoutSec = base.EvalStepTimeoutSec
	}
	if result.EvalPointDelayMs == 0 {
		result.EvalPointDelayMs = base.EvalPointDelayMs
	}
	if result.BreakerThreshold == 0 {
		result.BreakerThreshold = base.BreakerThreshold
	}
	if result.BreakerCooldownSec == 0 {
		result.BreakerCooldownSec = base.BreakerCooldownSec
	}
	if result.WorkerCount == 0 {
		result.WorkerCount = base.WorkerCount
	}
	if result.JobMaxAttempts == 0 {
		result.JobMaxAttempts = base.JobMaxAttempts
	}
	if result.JobPollIntervalMs == 0 {
		result.JobPollIntervalMs = base.JobPollIntervalMs
	}
	if result.ToolLoopMaxIterations == 0 {
		result.ToolLoopMaxIterations = base.ToolLoopMaxIterations
	}
	if result.LLMBaseURL == "" {
		result.LLMBaseURL = base.LLMBaseURL
	}
	if result.LLMModel == "" {
		result.LLMModel = base.LLMModel
	}
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}
	result.DisabledAutomations = mergeStringSlice(base.DisabledAutomations, overlay.DisabledAutomations)

	return &result
}

// EvalInterval returns the scheduler poll interval as a duration.
func (c *Config) EvalInterval() time.Duration {
	return time.Duration(c.EvalIntervalSec) * time.Second
}

// EvalStepTimeout returns the per-step timeout as a duration.
func (c *Config) EvalStepTimeout() time.Duration {
	return time.Duration(c.EvalStepTimeoutSec) * time.Second
}

// EvalPointDelay returns the inter-point delay as a duration.
func (c *Config) EvalPointDelay() time.Duration {
	return time.Duration(c.EvalPointDelayMs) * time.Millisecond
}

// BreakerCooldown returns the breaker cooldown as a duration.
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSec) * time.Second
}

// JobPollInterval returns the worker poll interval as a duration.
func (c *Config) JobPollInterval() time.Duration {
	return time.Duration(c.JobPollIntervalMs) * time.Millisecond
}

// AutomationDisabled reports whether an automation ID is configured off.
func (c *Config) AutomationDisabled(id string) bool {
	for _, d := range c.DisabledAutomations {
		if d == id {
			return true
		}
	}
	return false
}

// mergeStringSlice combines two slices, trims nothing, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
