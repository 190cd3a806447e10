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

// Package simulator drives a target agent through multi-turn dialog
// scenarios and scores every reply with the configured judges. Scenarios
// fan out concurrently under a semaphore; attempts within a scenario and
// turns within an attempt run strictly in order.
package simulator

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/teradata-labs/levelapp/internal/log"
	"github.com/teradata-labs/levelapp/pkg/comparator"
	"github.com/teradata-labs/levelapp/pkg/types"
)

// AgentTimeout bounds one agent exchange. Agents can run long internal
// pipelines, so this is deliberately generous.
const AgentTimeout = 900 * time.Second

// RequestFailedReply is the literal agent_reply recorded when the agent
// exchange fails at the transport or protocol level.
const RequestFailedReply = "Request failed"

// Evaluator is the judge dispatch surface the simulator needs from the
// evaluation service.
type Evaluator interface {
	Providers() []string
	EvaluateResponse(ctx context.Context, provider, outputText, referenceText, userMessage string) (types.EvaluationResult, error)
}

// Config tunes a Simulator.
type Config struct {
	Endpoint Endpoint
	// Concurrency caps the number of scenarios in flight. Zero means
	// one permit per scenario in the batch, i.e. unbounded.
	Concurrency int
	// HTTPClient overrides the default agent client. Used by tests.
	HTTPClient *http.Client
}

// Simulator runs conversation batches against one agent endpoint.
type Simulator struct {
	endpoint    Endpoint
	concurrency int
	evaluator   Evaluator
	httpClient  *http.Client
	logger      *zap.Logger
}

// New creates a simulator. The evaluator supplies the configured judge
// providers; every completed turn is scored by all of them.
func New(cfg Config, evaluator Evaluator) *Simulator {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: AgentTimeout}
	}
	return &Simulator{
		endpoint:    cfg.Endpoint,
		concurrency: cfg.Concurrency,
		evaluator:   evaluator,
		httpClient:  client,
		logger:      log.Named("simulator"),
	}
}

// Configure replaces the target agent endpoint for subsequent batches.
// Not safe to call while a batch is running.
func (s *Simulator) Configure(endpoint Endpoint) {
	s.endpoint = endpoint
}

// RunBatch drives every conversation in the batch for the given number of
// attempts and returns the aggregated result. Scenario order in the
// result matches the input; per-turn failures are materialized into the
// result, never raised.
func (s *Simulator) RunBatch(ctx context.Context, batch types.ConversationBatch, name string, attempts int) (types.BatchResult, error) {
	if attempts < 1 {
		attempts = 1
	}
	startedAt := time.Now()

	scenarios := make([]types.ScenarioResult, len(batch.Conversations))
	capacity := s.concurrency
	if capacity <= 0 {
		capacity = len(batch.Conversations)
	}
	if capacity == 0 {
		capacity = 1
	}
	sem := semaphore.NewWeighted(int64(capacity))

	var wg sync.WaitGroup
	for i, conv := range batch.Conversations {
		wg.Add(1)
		go func(idx int, conv types.BasicConversation) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("scenario task panicked",
						zap.String("scenario_id", conv.ID),
						zap.Any("panic", r))
					scenarios[idx] = types.ScenarioResult{
						ScenarioID:    conv.ID,
						Description:   conv.Description,
						Attempts:      []types.ScenarioAttemptResult{},
						AverageScores: map[string]float64{},
					}
				}
			}()
			if err := sem.Acquire(ctx, 1); err != nil {
				scenarios[idx] = types.ScenarioResult{
					ScenarioID:    conv.ID,
					Description:   conv.Description,
					Attempts:      []types.ScenarioAttemptResult{},
					AverageScores: map[string]float64{},
				}
				return
			}
			defer sem.Release(1)
			scenarios[idx] = s.runScenario(ctx, conv, name, attempts)
		}(i, conv)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return types.BatchResult{}, err
	}

	finishedAt := time.Now()
	result := types.BatchResult{
		Scenarios:            scenarios,
		AverageScores:        batchAverages(scenarios),
		GlobalJustifications: mergeJustifications(scenarios),
		StartedAt:            startedAt.UTC().Format(time.RFC3339),
		FinishedAt:           finishedAt.UTC().Format(time.RFC3339),
		TotalDurationSeconds: round3(finishedAt.Sub(startedAt).Seconds()),
		AverageExecutionTime: averageExecutionTime(scenarios),
	}
	return result, nil
}

// runScenario replays one conversation attempts times, sequentially.
func (s *Simulator) runScenario(ctx context.Context, conv types.BasicConversation, name string, attempts int) types.ScenarioResult {
	result := types.ScenarioResult{
		ScenarioID:  conv.ID,
		Description: conv.Description,
		Attempts:    make([]types.ScenarioAttemptResult, 0, attempts),
	}
	for attempt := 0; attempt < attempts; attempt++ {
		result.Attempts = append(result.Attempts, s.runAttempt(ctx, conv, name, attempt))
	}
	result.AverageScores = attemptAverages(result.Attempts)
	return result
}

// runAttempt processes the conversation's turns strictly in order.
func (s *Simulator) runAttempt(ctx context.Context, conv types.BasicConversation, name string, attempt int) types.ScenarioAttemptResult {
	start := time.Now()
	// Attempts number from 1 in emitted results.
	result := types.ScenarioAttemptResult{
		AttemptID:      attempt + 1,
		ConversationID: name + "-" + strconv.Itoa(attempt+1),
		Interactions:   make([]types.InteractionResult, 0, len(conv.Interactions)),
	}
	for _, interaction := range conv.Interactions {
		result.Interactions = append(result.Interactions, s.runTurn(ctx, interaction))
	}
	result.AverageScores = interactionAverages(result.Interactions)
	result.ExecutionTimeSeconds = round3(time.Since(start).Seconds())
	return result
}

// runTurn issues one agent exchange and fans the reply out to all judges.
// Transport failures are contained to the turn.
func (s *Simulator) runTurn(ctx context.Context, interaction types.Interaction) types.InteractionResult {
	result := types.InteractionResult{
		UserMessage:       interaction.UserMessage,
		ReferenceReply:    interaction.ReferenceReply,
		ReferenceMetadata: interaction.ReferenceMetadata,
		GeneratedMetadata: interaction.GeneratedMetadata,
		EvaluationResults: map[string]types.EvaluationResult{},
	}

	reply, metadata, ok := s.callAgent(ctx, interaction)
	if !ok {
		result.AgentReply = RequestFailedReply
		return result
	}
	result.AgentReply = reply
	// Metadata extracted from the reply wins over metadata supplied in
	// the input batch.
	if len(metadata) > 0 {
		result.GeneratedMetadata = metadata
	}
	result.EvaluationResults = s.judgeTurn(ctx, interaction, reply)
	if len(result.GeneratedMetadata) > 0 {
		result.MetadataScore = comparator.CompareMetadata(interaction.ReferenceMetadata, result.GeneratedMetadata)
	}
	return result
}

// callAgent POSTs one turn to the agent, adapts the reply and extracts
// any agent-supplied metadata.
func (s *Simulator) callAgent(ctx context.Context, interaction types.Interaction) (string, map[string]any, bool) {
	payload, err := s.endpoint.BuildPayload(map[string]string{
		"user_message":   interaction.UserMessage,
		"interaction_id": interaction.ID,
	})
	if err != nil {
		s.logger.Error("payload build failed",
			zap.String("interaction_id", interaction.ID),
			zap.Error(err))
		return "", nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.URL, bytes.NewReader(payload))
	if err != nil {
		return "", nil, false
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.endpoint.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("agent request failed",
			zap.String("interaction_id", interaction.ID),
			zap.Error(err))
		return "", nil, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("agent returned failure",
			zap.String("interaction_id", interaction.ID),
			zap.Int("status", resp.StatusCode))
		return "", nil, false
	}
	return AdaptResponse(body), ExtractMetadata(body), true
}

// judgeTurn dispatches the reply to every configured provider in
// parallel and joins the verdicts. A judge failure arrives as a
// zero-score result, not an error.
func (s *Simulator) judgeTurn(ctx context.Context, interaction types.Interaction, reply string) map[string]types.EvaluationResult {
	providers := s.evaluator.Providers()
	results := make(map[string]types.EvaluationResult, len(providers))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, provider := range providers {
		wg.Add(1)
		go func(provider string) {
			defer wg.Done()
			res, err := s.evaluator.EvaluateResponse(ctx, provider, reply, interaction.ReferenceReply, interaction.UserMessage)
			if err != nil {
				res = types.EvaluationResult{
					MatchLevel: 0,
					Metadata:   map[string]any{"error": err.Error()},
				}
			}
			mu.Lock()
			results[provider] = res
			mu.Unlock()
		}(provider)
	}
	wg.Wait()
	return results
}
