// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for adapters that make network requests.
type HTTPConfig struct {
	// Timeout is the default per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "discovery-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BreakerConfig holds circuit breaker settings shared by all adapters.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit (default 5).
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold"`

	// ResetTimeout is how long an open circuit waits before allowing a
	// half-open probe (default 30s).
	ResetTimeout time.Duration `json:"reset_timeout" yaml:"reset_timeout"`

	// HalfOpenAttempts bounds concurrent probes while half-open (default 1).
	HalfOpenAttempts int `json:"half_open_attempts" yaml:"half_open_attempts"`
}

// AdapterConfig holds per-provider settings. Providers not listed in the
// config file run with their built-in defaults.
type AdapterConfig struct {
	// Enabled excludes the adapter entirely when false. Defaults to true.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// APIKey authenticates against the provider, where required.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email is sent to providers with a polite-pool contact convention
	// (OpenAlex).
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// RequestsPerMinute is the token bucket capacity (0 = adapter default).
	RequestsPerMinute int `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"`

	// CacheTTL overrides the adapter's response cache TTL.
	CacheTTL time.Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`

	// Timeout overrides the shared HTTP timeout for this adapter.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// IsEnabled treats a nil Enabled as true.
func (c AdapterConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// RegistryConfig holds settings for the adapter registry.
type RegistryConfig struct {
	// MaxResults is the default result cap when a search has no explicit
	// limit (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PrimaryThreshold is the result count below which a smart search
	// escalates to the secondary tier (0 = the effective limit).
	PrimaryThreshold int `json:"primary_threshold" yaml:"primary_threshold"`

	// ExpandQueries dispatches expanded query variants to adapters
	// instead of only the original query.
	ExpandQueries bool `json:"expand_queries" yaml:"expand_queries"`

	// Adapters maps provider name to its overrides.
	Adapters map[string]AdapterConfig `json:"adapters,omitempty" yaml:"adapters,omitempty"`
}

// AIConfig holds shared settings for the workflow's Generative AI backend.
type AIConfig struct {
	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// WorkflowConfig holds settings for the multi-phase workflow runner.
type WorkflowConfig struct {
	AIConfig `yaml:",inline"`

	// MaxIterations bounds gate-driven re-runs of a single phase (default 2).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// GateThreshold is the minimum 0-100 gate score that passes a phase
	// (default 60).
	GateThreshold float64 `json:"gate_threshold" yaml:"gate_threshold"`
}

// ActivityLogConfig holds settings for the activity log sink.
type ActivityLogConfig struct {
	// Path is the SQLite database file (default "logs/activity.db").
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all configuration for the engine.
type PipelineConfig struct {
	HTTP        HTTPConfig        `json:"http" yaml:"http"`
	Breaker     BreakerConfig     `json:"breaker" yaml:"breaker"`
	Registry    RegistryConfig    `json:"registry" yaml:"registry"`
	Workflow    WorkflowConfig    `json:"workflow" yaml:"workflow"`
	ActivityLog ActivityLogConfig `json:"activity_log" yaml:"activity_log"`
}

// DefaultPipelineConfig returns the built-in configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "discovery-engine/0.1",
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenAttempts: 1,
		},
		Registry: RegistryConfig{
			MaxResults: 20,
		},
		Workflow: WorkflowConfig{
			AIConfig:      AIConfig{MaxRetries: 3},
			MaxIterations: 2,
			GateThreshold: 60,
		},
		ActivityLog: ActivityLogConfig{
			Path: "logs/activity.db",
		},
	}
}
