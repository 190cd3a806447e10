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

// Package evaluation dispatches generated/reference reply pairs to LLM
// judge providers and normalizes their verdicts into EvaluationResults.
// Providers plug in through the Judge interface and a factory registry;
// the service applies a uniform retry, parse and post-processing policy
// on top of every judge.
package evaluation

import (
	"context"

	"github.com/teradata-labs/levelapp/pkg/types"
)

// Judge is the provider contract. BuildPrompt assembles the rubric prompt
// for one evaluation; CallLLM performs exactly one HTTP exchange and
// returns the parsed verdict mapping. Transport failures are returned as
// errors so the retry wrapper can classify them; a completed exchange with
// a bad status is returned as *HTTPError and is not retried.
type Judge interface {
	Name() string
	BuildPrompt(userMessage, generatedText, expectedText string) string
	CallLLM(ctx context.Context, prompt string) (map[string]any, error)
}

// RubricTagger is implemented by judges whose prompt uses a rubric other
// than the canonical 0-5 scale. The tag is recorded on every verdict under
// metadata.rubric and out-of-range scores are clamped.
type RubricTagger interface {
	RubricTag() string
}

// Factory builds a judge from its provider configuration.
type Factory func(cfg types.EvaluationConfig) (Judge, error)
