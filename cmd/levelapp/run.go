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
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/teradata-labs/levelapp/pkg/config"
	"github.com/teradata-labs/levelapp/pkg/simulator"
	"github.com/teradata-labs/levelapp/pkg/sink"
)

func newRunCmd() *cobra.Command {
	var (
		name     string
		attempts int
	)
	cmd := &cobra.Command{
		Use:   "run <batch-file>",
		Short: "Run a conversation batch against the configured agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			batch, err := config.LoadBatch(args[0])
			if err != nil {
				return err
			}

			evalService, err := buildEvaluationService(cfg)
			if err != nil {
				return err
			}
			sim := simulator.New(simulator.Config{Endpoint: cfg.Agent}, evalService)

			result, err := sim.RunBatch(cmd.Context(), batch, name, attempts)
			if err != nil {
				return err
			}

			fileSink, err := sink.NewFileSink(cfg.Results.Dir)
			if err != nil {
				return err
			}
			if err := fileSink.WriteBatchResult(cmd.Context(), name, result); err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}
	cmd.Flags().StringVar(&name, "name", "batch", "batch name used in conversation ids and result files")
	cmd.Flags().IntVar(&attempts, "attempts", 1, "attempts per scenario")
	return cmd
}
