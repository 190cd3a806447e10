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

// Package types contains the shared data model of the evaluation harness.
// It is a leaf package: the simulator, evaluation service, orchestrator and
// RAG pipeline all depend on it, never the other way around. All emitted
// JSON field names are snake_case.
package types

// InteractionKind classifies the position of a user turn inside a scenario.
type InteractionKind string

const (
	InteractionOpening     InteractionKind = "opening"
	InteractionDevelopment InteractionKind = "development"
	InteractionClosure     InteractionKind = "closure"
)

// Interaction is a single user turn together with its reference reply.
type Interaction struct {
	ID                string         `json:"id" yaml:"id"`
	UserMessage       string         `json:"user_message" yaml:"user_message"`
	ReferenceReply    string         `json:"reference_reply" yaml:"reference_reply"`
	Kind              InteractionKind `json:"interaction_type,omitempty" yaml:"interaction_type"`
	ReferenceMetadata map[string]any `json:"reference_metadata,omitempty" yaml:"reference_metadata"`
	GeneratedMetadata map[string]any `json:"generated_metadata,omitempty" yaml:"generated_metadata"`
}

// BasicConversation is an ordered multi-turn scenario.
type BasicConversation struct {
	ID           string         `json:"id" yaml:"id"`
	Description  string         `json:"description,omitempty" yaml:"description"`
	Interactions []Interaction  `json:"interactions" yaml:"interactions"`
	Details      map[string]any `json:"details,omitempty" yaml:"details"`
}

// ConversationBatch is the simulator input: an ordered set of scenarios.
type ConversationBatch struct {
	Conversations []BasicConversation `json:"conversations" yaml:"conversations"`
}

// EvaluationConfig configures one judge provider. The API key is a secret
// and is never serialized back out.
type EvaluationConfig struct {
	APIURL    string         `json:"api_url,omitempty" yaml:"api_url" mapstructure:"api_url"`
	APIKey    string         `json:"-" yaml:"api_key" mapstructure:"api_key"`
	ModelID   string         `json:"model_id,omitempty" yaml:"model_id" mapstructure:"model_id"`
	LLMConfig map[string]any `json:"llm_config,omitempty" yaml:"llm_config" mapstructure:"llm_config"`
}

// EvaluationResult is the canonical judge verdict. MatchLevel 0 is the
// sentinel for "evaluation failed or no match".
type EvaluationResult struct {
	MatchLevel    int            `json:"match_level"`
	Justification string         `json:"justification"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Failed reports whether the result carries a judge-failure marker.
func (r EvaluationResult) Failed() bool {
	if r.Metadata == nil {
		return false
	}
	_, ok := r.Metadata["error"]
	return ok
}

// InteractionResult is the outcome of one simulated turn.
type InteractionResult struct {
	UserMessage       string                      `json:"user_message"`
	AgentReply        string                      `json:"agent_reply"`
	ReferenceReply    string                      `json:"reference_reply"`
	ReferenceMetadata map[string]any              `json:"reference_metadata,omitempty"`
	GeneratedMetadata map[string]any              `json:"generated_metadata,omitempty"`
	MetadataScore     *float64                    `json:"metadata_score,omitempty"`
	EvaluationResults map[string]EvaluationResult `json:"evaluation_results"`
}

// ScenarioAttemptResult is one sequential replay of a scenario.
type ScenarioAttemptResult struct {
	AttemptID            int                 `json:"attempt_id"`
	ConversationID       string              `json:"conversation_id"`
	Interactions         []InteractionResult `json:"interactions"`
	AverageScores        map[string]float64  `json:"average_scores"`
	ExecutionTimeSeconds float64             `json:"execution_time_seconds"`
}

// ScenarioResult aggregates all attempts of one scenario.
type ScenarioResult struct {
	ScenarioID    string                  `json:"scenario_id"`
	Description   string                  `json:"description,omitempty"`
	Attempts      []ScenarioAttemptResult `json:"attempts"`
	AverageScores map[string]float64      `json:"average_scores"`
}

// BatchResult is the top-level result envelope for one batch run.
type BatchResult struct {
	Scenarios            []ScenarioResult    `json:"scenarios"`
	AverageScores        map[string]float64  `json:"average_scores"`
	GlobalJustifications map[string][]string `json:"global_justifications,omitempty"`
	StartedAt            string              `json:"started_at"`
	FinishedAt           string              `json:"finished_at"`
	TotalDurationSeconds float64             `json:"total_duration_seconds"`
	AverageExecutionTime float64             `json:"average_execution_time"`
}
