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
	"math/rand"
	"net/http"
	"strings"

	"github.com/teradata-labs/levelapp/pkg/evaluation"
	"github.com/teradata-labs/levelapp/pkg/types"
)

// IonosJudge scores replies through the IONOS prediction endpoint:
// POST <api_url>/<model_id>/predictions with a single-prompt payload.
type IonosJudge struct {
	apiKey     string
	model      string
	baseURL    string
	llmConfig  map[string]any
	httpClient *http.Client
}

var _ evaluation.Judge = (*IonosJudge)(nil)

// NewIonosJudge builds the ionos judge from its provider config.
func NewIonosJudge(cfg types.EvaluationConfig) (evaluation.Judge, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("ionos judge requires api_url")
	}
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("ionos judge requires model_id")
	}
	return &IonosJudge{
		apiKey:     cfg.APIKey,
		model:      cfg.ModelID,
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		llmConfig:  cfg.LLMConfig,
		httpClient: &http.Client{Timeout: JudgeTimeout},
	}, nil
}

// Name returns the provider name.
func (j *IonosJudge) Name() string {
	return "ionos"
}

// BuildPrompt assembles the rubric prompt for one evaluation.
func (j *IonosJudge) BuildPrompt(userMessage, generated, expected string) string {
	return rubricPrompt(userMessage, generated, expected)
}

type ionosRequest struct {
	Properties struct {
		Input string `json:"input"`
	} `json:"properties"`
	Option map[string]any `json:"option"`
}

type ionosResponse struct {
	Properties struct {
		Output string `json:"output"`
	} `json:"properties"`
	Metadata struct {
		InputTokens  int `json:"inputTokens"`
		OutputTokens int `json:"outputTokens"`
	} `json:"metadata"`
}

// CallLLM performs one prediction exchange and parses the verdict.
func (j *IonosJudge) CallLLM(ctx context.Context, prompt string) (map[string]any, error) {
	var reqBody ionosRequest
	reqBody.Properties.Input = prompt
	reqBody.Option = make(map[string]any, len(j.llmConfig)+1)
	for k, v := range j.llmConfig {
		reqBody.Option[k] = v
	}
	// The endpoint is deterministic per seed; a fresh 16-bit seed keeps
	// repeated judgements independent.
	reqBody.Option["seed"] = rand.Intn(1 << 16)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/predictions", j.baseURL, j.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
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

	var parsed ionosResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &evaluation.HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}

	verdict := evaluation.ParseJSONOutput(parsed.Properties.Output)
	attachUsage(verdict, parsed.Metadata.InputTokens, parsed.Metadata.OutputTokens)
	return verdict, nil
}
