// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the harness configuration: judge providers, the
// agent endpoint, the persistence target and orchestrator tunables.
// Every string value in the file supports ${VAR} environment expansion;
// orchestrator tunables additionally read dedicated environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/teradata-labs/levelapp/pkg/simulator"
	"github.com/teradata-labs/levelapp/pkg/types"
)

// Environment variables recognized on top of the config file.
const (
	EnvRateLimitPerMin = "ORCH_RATE_LIMIT_PER_MIN"
	EnvSessionTTLMin   = "ORCH_SESSION_TTL_MIN"
	EnvJWTSecret       = "ORCHESTRATOR_JWT_SECRET"
	EnvExpectedModel   = "LEVELAPP_EXPECTED_MODEL"
	EnvJudgeProvider   = "LEVELAPP_JUDGE_PROVIDER"
)

// DatabaseConfig names the external persistence target.
type DatabaseConfig struct {
	Type            string `mapstructure:"type"`
	ProjectID       string `mapstructure:"project_id"`
	CredentialsPath string `mapstructure:"credentials_path"`
}

// OrchestratorConfig carries the orchestrator tunables.
type OrchestratorConfig struct {
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min"`
	SessionTTLMin   int    `mapstructure:"session_ttl_min"`
	JWTSecret       string `mapstructure:"jwt_secret"`
}

// SessionTTL returns the configured TTL as a duration.
func (o OrchestratorConfig) SessionTTL() time.Duration {
	return time.Duration(o.SessionTTLMin) * time.Minute
}

// ResultsConfig controls the local result sink.
type ResultsConfig struct {
	Dir string `mapstructure:"dir"`
}

// Config is the top-level harness configuration.
type Config struct {
	Providers     map[string]types.EvaluationConfig `mapstructure:"providers"`
	Agent         simulator.Endpoint                `mapstructure:"agent"`
	Database      DatabaseConfig                    `mapstructure:"database"`
	Orchestrator  OrchestratorConfig                `mapstructure:"orchestrator"`
	Results       ResultsConfig                     `mapstructure:"results"`
	ExpectedModel string                            `mapstructure:"expected_model"`
	JudgeProvider string                            `mapstructure:"judge_provider"`
	ListenAddr    string                            `mapstructure:"listen_addr"`
}

// Load reads a YAML config file, expands ${VAR} references against the
// process environment and applies environment overrides.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	expanded := os.Expand(string(raw), func(name string) string {
		return os.Getenv(name)
	})

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(expanded)); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Orchestrator.RateLimitPerMin == 0 {
		cfg.Orchestrator.RateLimitPerMin = 10
	}
	if cfg.Orchestrator.SessionTTLMin == 0 {
		cfg.Orchestrator.SessionTTLMin = 15
	}
	if cfg.JudgeProvider == "" {
		cfg.JudgeProvider = "openai"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}
}

func applyEnvOverrides(cfg *Config) {
	if raw := os.Getenv(EnvRateLimitPerMin); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Orchestrator.RateLimitPerMin = n
		}
	}
	if raw := os.Getenv(EnvSessionTTLMin); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Orchestrator.SessionTTLMin = n
		}
	}
	if secret := os.Getenv(EnvJWTSecret); secret != "" {
		cfg.Orchestrator.JWTSecret = secret
	}
	if model := os.Getenv(EnvExpectedModel); model != "" {
		cfg.ExpectedModel = model
	}
	if provider := os.Getenv(EnvJudgeProvider); provider != "" {
		cfg.JudgeProvider = provider
	}
}
