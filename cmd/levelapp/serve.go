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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teradata-labs/levelapp/internal/log"
	"github.com/teradata-labs/levelapp/pkg/config"
	"github.com/teradata-labs/levelapp/pkg/evaluation"
	"github.com/teradata-labs/levelapp/pkg/evaluation/providers"
	"github.com/teradata-labs/levelapp/pkg/generation"
	"github.com/teradata-labs/levelapp/pkg/orchestrator"
	"github.com/teradata-labs/levelapp/pkg/rag"
	"github.com/teradata-labs/levelapp/pkg/server"
	"github.com/teradata-labs/levelapp/pkg/simulator"
	"github.com/teradata-labs/levelapp/pkg/sink"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the harness HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

// buildEvaluationService wires every configured provider into the judge
// registry.
func buildEvaluationService(cfg *config.Config) (*evaluation.Service, error) {
	svc := evaluation.NewService(providers.DefaultFactories(), providers.NewGenericJudge)
	for name, providerCfg := range cfg.Providers {
		if err := svc.SetConfig(name, providerCfg); err != nil {
			return nil, fmt.Errorf("configure provider %s: %w", name, err)
		}
	}
	return svc, nil
}

func serve(cfg *config.Config) error {
	logger := log.Named("serve")

	evalService, err := buildEvaluationService(cfg)
	if err != nil {
		return err
	}

	sim := simulator.New(simulator.Config{Endpoint: cfg.Agent}, evalService)

	if cfg.Orchestrator.JWTSecret == "" {
		return fmt.Errorf("orchestrator jwt secret is required (set %s)", config.EnvJWTSecret)
	}
	store := orchestrator.NewMemoryStore()
	stopSweeper := orchestrator.StartSweeper(store)
	defer stopSweeper()

	hasProviders := func() bool { return len(evalService.Providers()) > 0 }
	orch := orchestrator.New(orchestrator.Config{
		RateLimitPerMin: cfg.Orchestrator.RateLimitPerMin,
		SessionTTL:      cfg.Orchestrator.SessionTTL(),
		JWTSecret:       cfg.Orchestrator.JWTSecret,
	}, store, orchestrator.DefaultVerifiers(nil, hasProviders))

	var pipeline *rag.Pipeline
	if providerCfg, ok := cfg.Providers[cfg.JudgeProvider]; ok {
		if cfg.ExpectedModel != "" {
			providerCfg.ModelID = cfg.ExpectedModel
		}
		generator, err := generation.NewGenerator(cfg.JudgeProvider, providerCfg)
		if err != nil {
			logger.Warn("rag generator unavailable", zap.Error(err))
		} else {
			pipeline = rag.NewPipeline(rag.NewSessionStore(), generator, evalService, cfg.JudgeProvider)
		}
	}

	fileSink, err := sink.NewFileSink(cfg.Results.Dir)
	if err != nil {
		return err
	}

	srv := server.New(cfg.ListenAddr, orch, sim, pipeline, fileSink)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
