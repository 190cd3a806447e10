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

// Package generation produces free-text completions from LLM providers,
// used by the rag pipeline to build golden answers. It shares the judge
// providers' wire formats but returns raw text instead of verdicts.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/levelapp/internal/log"
	"github.com/teradata-labs/levelapp/pkg/evaluation"
	"github.com/teradata-labs/levelapp/pkg/types"
)

// Timeout bounds one generation exchange.
const Timeout = 300 * time.Second

const (
	retryAttempts = 3
	retryBase     = time.Second
)

// Generator produces one completion for a system/user prompt pair.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewGenerator builds a generator for the named provider family.
// "ionos" speaks the prediction endpoint; everything else speaks
// chat completions.
func NewGenerator(provider string, cfg types.EvaluationConfig) (Generator, error) {
	switch provider {
	case "ionos":
		if cfg.APIURL == "" || cfg.ModelID == "" {
			return nil, fmt.Errorf("ionos generator requires api_url and model_id")
		}
		return &ionosGenerator{cfg: cfg, client: &http.Client{Timeout: Timeout}}, nil
	default:
		if cfg.APIURL == "" {
			return nil, fmt.Errorf("%s generator requires api_url", provider)
		}
		return &chatGenerator{cfg: cfg, client: &http.Client{Timeout: Timeout}}, nil
	}
}

// withRetry runs one generation call under the shared backoff policy
// with the wider generation cap.
func withRetry(ctx context.Context, name string, fn func(context.Context) (string, error)) (string, error) {
	logger := log.Named("generation")
	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !evaluation.IsTransportError(err) {
			return "", err
		}
		if attempt == retryAttempts {
			break
		}
		delay := retryBase << uint(attempt-1)
		if delay > evaluation.GenerationBackoffCap {
			delay = evaluation.GenerationBackoffCap
		}
		logger.Warn("generation call failed, retrying",
			zap.String("provider", name),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("%s: retries exhausted: %w", name, lastErr)
}

// chatGenerator speaks the chat-completions wire format.
type chatGenerator struct {
	cfg    types.EvaluationConfig
	client *http.Client
}

func (g *chatGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return withRetry(ctx, "chat", func(ctx context.Context) (string, error) {
		messages := []map[string]string{}
		if systemPrompt != "" {
			messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
		}
		messages = append(messages, map[string]string{"role": "user", "content": userPrompt})

		body := map[string]any{"model": g.cfg.ModelID, "messages": messages}
		for k, v := range g.cfg.LLMConfig {
			body[k] = v
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIURL, bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if g.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", &evaluation.HTTPError{StatusCode: resp.StatusCode, Message: string(raw)}
		}

		var parsed struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return "", fmt.Errorf("malformed response: %w", err)
		}
		if len(parsed.Choices) == 0 {
			return "", fmt.Errorf("empty choices in response")
		}
		return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
	})
}

// ionosGenerator speaks the prediction endpoint wire format.
type ionosGenerator struct {
	cfg    types.EvaluationConfig
	client *http.Client
}

func (g *ionosGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return withRetry(ctx, "ionos", func(ctx context.Context) (string, error) {
		input := userPrompt
		if systemPrompt != "" {
			input = systemPrompt + "\n\n" + userPrompt
		}
		option := make(map[string]any, len(g.cfg.LLMConfig)+1)
		for k, v := range g.cfg.LLMConfig {
			option[k] = v
		}
		option["seed"] = rand.Intn(1 << 16)

		payload, err := json.Marshal(map[string]any{
			"properties": map[string]string{"input": input},
			"option":     option,
		})
		if err != nil {
			return "", fmt.Errorf("marshal request: %w", err)
		}

		url := fmt.Sprintf("%s/%s/predictions", strings.TrimRight(g.cfg.APIURL, "/"), g.cfg.ModelID)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		if g.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", &evaluation.HTTPError{StatusCode: resp.StatusCode, Message: string(raw)}
		}

		var parsed struct {
			Properties struct {
				Output string `json:"output"`
			} `json:"properties"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return "", fmt.Errorf("malformed response: %w", err)
		}
		return strings.TrimSpace(parsed.Properties.Output), nil
	})
}
