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

package providers

import (
	"github.com/teradata-labs/levelapp/pkg/evaluation"
	"github.com/teradata-labs/levelapp/pkg/types"
)

const (
	DefaultMistralEndpoint = "https://api.mistral.ai/v1/chat/completions"
	DefaultMistralModel    = "mistral-large-latest"
)

// NewMistralJudge builds the mistral judge. The Mistral API speaks the
// chat-completions wire format, so it shares the openai implementation.
func NewMistralJudge(cfg types.EvaluationConfig) (evaluation.Judge, error) {
	return newChatJudge("mistral", DefaultMistralEndpoint, DefaultMistralModel, cfg)
}

// NewGenericJudge builds a judge for any chat-completions-compatible
// endpoint named in the config. Used as the registry fallback for
// provider names without a dedicated implementation; api_url is required.
func NewGenericJudge(cfg types.EvaluationConfig) (evaluation.Judge, error) {
	return newChatJudge("generic", "", "", cfg)
}
