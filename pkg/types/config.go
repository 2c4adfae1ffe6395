// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SignalConfig holds settings for the deterministic signal stage.
type SignalConfig struct {
	// ClusterWindow is the temporal clustering window, measured from the
	// start of the current cluster (default 60m).
	ClusterWindow time.Duration `json:"cluster_window" yaml:"cluster_window"`

	// AnomalyMinBatch is the minimum batch size for anomaly detection.
	// Smaller batches pass through unchanged (default 5).
	AnomalyMinBatch int `json:"anomaly_min_batch" yaml:"anomaly_min_batch"`

	// AnomalyZThreshold is the absolute z-score above which a signal is
	// flagged anomalous (default 3, the three-sigma rule).
	AnomalyZThreshold float64 `json:"anomaly_z_threshold" yaml:"anomaly_z_threshold"`
}

// GovernancePolicy parameterizes the approval state machine.
type GovernancePolicy struct {
	// AutoApproveMinScore is the minimum total score (0-100) for
	// automatic approval (default 80).
	AutoApproveMinScore float64 `json:"auto_approve_min_score" yaml:"auto_approve_min_score"`

	// AutoApproveMinConfidence is the minimum mean interval confidence
	// (0-1) for automatic approval (default 0.9).
	AutoApproveMinConfidence float64 `json:"auto_approve_min_confidence" yaml:"auto_approve_min_confidence"`

	// ForceReviewFlags lists uncertainty-source strings that force human
	// review regardless of score (e.g. "High Market Volatility Detected").
	ForceReviewFlags []string `json:"force_review_flags" yaml:"force_review_flags"`
}

// InferenceConfig holds settings for the optional remote inference call.
// The call is an opportunistic quality boost: every failure class degrades
// to the deterministic path.
type InferenceConfig struct {
	// Enabled is the hard kill-switch. When false no remote call is made.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key. Inference stays disabled when
	// empty even if Enabled is true.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint (tests point this at a local server).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Timeout bounds the remote call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// StoreConfig holds settings for the SQLite decision store.
type StoreConfig struct {
	// Path is the SQLite database file (default "decisions.db").
	Path string `json:"path" yaml:"path"`
}

// WorkerConfig holds settings for the background dispatcher.
type WorkerConfig struct {
	// PollInterval is the queue polling cadence (default 1s).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// MaxAttempts bounds redelivery of a failed task (default 5).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetryBaseDelay is the base duration for exponential backoff between
	// attempts: base, 2x, 4x, ... (default 2s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
}

// EngineConfig groups all stage configurations for a pipeline run.
type EngineConfig struct {
	Signal     SignalConfig     `json:"signal" yaml:"signal"`
	Governance GovernancePolicy `json:"governance" yaml:"governance"`
	Inference  InferenceConfig  `json:"inference" yaml:"inference"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Worker     WorkerConfig     `json:"worker" yaml:"worker"`
}

// DefaultEngineConfig returns the reference policy configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Signal: SignalConfig{
			ClusterWindow:     60 * time.Minute,
			AnomalyMinBatch:   5,
			AnomalyZThreshold: 3,
		},
		Governance: GovernancePolicy{
			AutoApproveMinScore:      80,
			AutoApproveMinConfidence: 0.9,
		},
		Inference: InferenceConfig{
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Path: "decisions.db",
		},
		Worker: WorkerConfig{
			PollInterval:   time.Second,
			MaxAttempts:    5,
			RetryBaseDelay: 2 * time.Second,
		},
	}
}
