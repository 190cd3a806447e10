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

// Package providers implements the built-in judge providers: the
// chat-completion family (openai, mistral, generic) and the ionos
// prediction endpoint. Each judge performs exactly one HTTP exchange per
// CallLLM; retries belong to the evaluation service.
package providers

import (
	"fmt"
	"time"

	"github.com/teradata-labs/levelapp/pkg/evaluation"
)

// JudgeTimeout bounds every judge HTTP exchange.
const JudgeTimeout = 300 * time.Second

// DefaultFactories returns the built-in provider registry.
func DefaultFactories() map[string]evaluation.Factory {
	return map[string]evaluation.Factory{
		"openai":  NewOpenAIJudge,
		"ionos":   NewIonosJudge,
		"mistral": NewMistralJudge,
	}
}

// rubricPrompt assembles the canonical 0-5 rubric prompt shared by all
// built-in judges.
func rubricPrompt(userMessage, generated, expected string) string {
	prompt := `You are an impartial evaluator of conversational agent replies.
Compare the generated reply against the expected reply and score how well they match.

Scoring rubric:
5 - Perfect match: same meaning and same essential content.
4 - Excellent: same meaning, minor wording or detail differences.
3 - Good: mostly the same meaning, some content differences.
2 - Moderate: partial overlap, important content differs or is missing.
1 - Poor: barely related.
0 - No match at all.

Respond with a single JSON object and nothing else:
{"match_level": <integer 0-5>, "justification": "<one short sentence>", "metadata": {}}

`
	if userMessage != "" {
		prompt += fmt.Sprintf("User message:\n%s\n\n", userMessage)
	}
	prompt += fmt.Sprintf("Generated reply:\n%s\n\nExpected reply:\n%s\n", generated, expected)
	return prompt
}

// judgeSystemPrompt is the system message for chat-completion judges.
const judgeSystemPrompt = "You are a strict evaluation assistant. You always answer with a single valid JSON object."

// floatOption reads a numeric llm_config option with a default.
func floatOption(opts map[string]any, key string, def float64) float64 {
	if opts == nil {
		return def
	}
	switch v := opts[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// intOption reads an integer llm_config option with a default.
func intOption(opts map[string]any, key string, def int) int {
	if opts == nil {
		return def
	}
	switch v := opts[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
