// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the decision-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/decision-engine/internal/logging"
	"github.com/pdiddy/decision-engine/internal/secrets"
	"github.com/pdiddy/decision-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// defaultModel is the remote model used for narrative polish when
// inference is enabled and no override is configured.
const defaultModel = "claude-sonnet-4-5-20250929"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, then the named secret, then "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the decision-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "decision-engine",
	Short: "Operational decision engine for tickets, metrics, and market signals",
	Long: `decision-engine turns heterogeneous operational inputs (support tickets,
infrastructure metrics, market signals) into scored, governed, explainable
action recommendations.

Inputs are ingested as batches, processed asynchronously through a
multi-stage reasoning pipeline, scored with calibrated confidence, and
routed through governance before a human or automation acts on them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logFormat, _ := cmd.Flags().GetString("log-format")
		logLevel, _ := cmd.Flags().GetString("log-level")
		logging.Init(logFormat, logging.ParseLevel(logLevel))

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./decision-engine.yaml or ~/.config/decision-engine/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database file (default decisions.db)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("decision-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "decision-engine"))
		}
	}

	viper.SetEnvPrefix("DECISION_ENGINE")
	viper.AutomaticEnv()

	viper.SetDefault("store.path", "decisions.db")
	viper.SetDefault("inference.model", defaultModel)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the full configuration from defaults, the config
// file, environment, secrets, and command-line flags, in that precedence.
func engineConfig(cmd *cobra.Command) types.EngineConfig {
	cfg := types.DefaultEngineConfig()

	if v := viper.GetDuration("signal.cluster_window"); v > 0 {
		cfg.Signal.ClusterWindow = v
	}
	if v := viper.GetInt("signal.anomaly_min_batch"); v > 0 {
		cfg.Signal.AnomalyMinBatch = v
	}
	if v := viper.GetFloat64("signal.anomaly_z_threshold"); v > 0 {
		cfg.Signal.AnomalyZThreshold = v
	}

	if viper.IsSet("governance.auto_approve_min_score") {
		cfg.Governance.AutoApproveMinScore = viper.GetFloat64("governance.auto_approve_min_score")
	}
	if viper.IsSet("governance.auto_approve_min_confidence") {
		cfg.Governance.AutoApproveMinConfidence = viper.GetFloat64("governance.auto_approve_min_confidence")
	}
	cfg.Governance.ForceReviewFlags = viper.GetStringSlice("governance.force_review_flags")

	cfg.Inference.Enabled = viper.GetBool("inference.enabled")
	cfg.Inference.Model = viper.GetString("inference.model")
	cfg.Inference.BaseURL = viper.GetString("inference.base_url")
	cfg.Inference.APIKey = secretDefault("inference-api-key", viper.GetString("inference.api_key"))
	if v := viper.GetDuration("inference.timeout"); v > 0 {
		cfg.Inference.Timeout = v
	}

	cfg.Store.Path = viper.GetString("store.path")
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Store.Path = db
	}

	if v := viper.GetDuration("worker.poll_interval"); v > 0 {
		cfg.Worker.PollInterval = v
	}
	if v := viper.GetInt("worker.max_attempts"); v > 0 {
		cfg.Worker.MaxAttempts = v
	}
	if v := viper.GetDuration("worker.retry_base_delay"); v > 0 {
		cfg.Worker.RetryBaseDelay = v
	}

	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
