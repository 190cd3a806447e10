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

// levelapp is the conversational-agent evaluation harness CLI. It serves
// the HTTP surface or runs a conversation batch directly from a file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teradata-labs/levelapp/internal/log"
	"github.com/teradata-labs/levelapp/internal/version"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "levelapp",
		Short: "Conversational-agent evaluation harness",
		Long: `levelapp drives a target agent through multi-turn dialog scenarios,
scores its replies with LLM judges, and gates heavy evaluation runs
behind an orchestrator with sessions and signed launch tokens.`,
		SilenceUsage: true,
		Version:      version.Get(),
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "levelapp.yaml", "path to the configuration file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRunCmd())

	defer func() { _ = log.Sync() }()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
