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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/teradata-labs/levelapp/pkg/evaluation"
	"github.com/teradata-labs/levelapp/pkg/types"
)

const (
	DefaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultOpenAIModel    = "gpt-4.1"
)

// OpenAIJudge scores replies through an OpenAI-style chat-completions
// endpoint. Judging runs at temperature 0 unless llm_config overrides it.
type OpenAIJudge struct {
	name       string
	apiKey     string
	model      string
	endpoint   string
	llmConfig  map[string]any
	httpClient *http.Client
}

var _ evaluation.Judge = (*OpenAIJudge)(nil)

// NewOpenAIJudge builds the openai judge from its provider config.
func NewOpenAIJudge(cfg types.EvaluationConfig) (evaluation.Judge, error) {
	return newChatJudge("openai", DefaultOpenAIEndpoint, DefaultOpenAIModel, cfg)
}

func newChatJudge(name, defaultEndpoint, defaultModel string, cfg types.EvaluationConfig) (evaluation.Judge, error) {
	endpoint := cfg.APIURL
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("%s judge requires api_url", name)
	}
	model := cfg.ModelID
	if model == "" {
		model = defaultModel
	}
	return &OpenAIJudge{
		name:       name,
		apiKey:     cfg.APIKey,
		model:      model,
		endpoint:   endpoint,
		llmConfig:  cfg.LLMConfig,
		httpClient: &http.Client{Timeout: JudgeTimeout},
	}, nil
}

// Name returns the provider name.
func (j *OpenAIJudge) Name() string {
	return j.name
}

// BuildPrompt assembles the rubric prompt for one evaluation.
func (j *OpenAIJudge) BuildPrompt(userMessage, generated, expected string) string {
	return rubricPrompt(userMessage, generated, expected)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// CallLLM performs one chat-completion exchange and parses the verdict.
func (j *OpenAIJudge) CallLLM(ctx context.Context, prompt string) (map[string]any, error) {
	reqBody := chatRequest{
		Model: j.model,
		Messages: []chatMessage{
			{Role: "system", Content: judgeSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: floatOption(j.llmConfig, "temperature", 0),
		MaxTokens:   intOption(j.llmConfig, "max_tokens", 0),
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if j.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+j.apiKey)
	}

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &evaluation.HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &evaluation.HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return map[string]any{"error": "empty choices in response"}, nil
	}

	verdict := evaluation.ParseJSONOutput(parsed.Choices[0].Message.Content)
	attachUsage(verdict, parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)
	return verdict, nil
}

// attachUsage records token accounting under the canonical metadata keys.
func attachUsage(verdict map[string]any, inputTokens, outputTokens int) {
	if _, failed := verdict["error"]; failed {
		return
	}
	metadata, ok := verdict["metadata"].(map[string]any)
	if !ok {
		metadata = make(map[string]any)
		verdict["metadata"] = metadata
	}
	if inputTokens > 0 {
		metadata["input_tokens"] = inputTokens
	}
	if outputTokens > 0 {
		metadata["output_tokens"] = outputTokens
	}
}
