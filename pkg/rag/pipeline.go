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

// Package rag evaluates retrieval-augmented generation: scrape a source
// page into chunks, build a golden answer from human-selected chunks,
// query the chatbot and score its answer with lexical metrics and an LLM
// judge.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/teradata-labs/levelapp/internal/log"
	"github.com/teradata-labs/levelapp/pkg/generation"
	"github.com/teradata-labs/levelapp/pkg/simulator"
	"github.com/teradata-labs/levelapp/pkg/types"
)

const (
	// ContextCharCap bounds the concatenated chunk context fed to the
	// golden-answer generator.
	ContextCharCap = 12000
	// ChunkSeparator joins selected chunks in the generation context.
	ChunkSeparator = "\n\n---\n\n"
	// NotFoundSentinel is the generator's refusal string; a refusal with
	// non-empty context triggers one gentler retry.
	NotFoundSentinel = "Not found in the provided context."
)

const strictSystemPrompt = "You are a careful assistant. Answer the question using ONLY the information in CONTEXT. " +
	"If the answer is not in CONTEXT, reply exactly: " + NotFoundSentinel

const summarizeSystemPrompt = "You are a careful assistant. Using the information in CONTEXT, " +
	"write the best possible summary answer to the question, even if it is only partially covered."

// Evaluator is the judge dispatch surface the pipeline needs.
type Evaluator interface {
	EvaluateResponse(ctx context.Context, provider, outputText, referenceText, userMessage string) (types.EvaluationResult, error)
}

// InitParams configures pipeline initialization.
type InitParams struct {
	PageURL         string `json:"page_url"`
	ChunkSize       int    `json:"chunk_size"`
	ModelID         string `json:"model_id"`
	ChatbotBaseURL  string `json:"chatbot_base_url"`
	ChatbotChatPath string `json:"chatbot_chat_path"`
}

// InitResult reports a created session and its chunks for selection.
type InitResult struct {
	SessionID string   `json:"session_id"`
	Chunks    []string `json:"chunks"`
}

// EvalOutcome is the result of one rag evaluation.
type EvalOutcome struct {
	ChatbotAnswer string                 `json:"chatbot_answer"`
	Metrics       NLPMetrics             `json:"metrics"`
	Judge         types.EvaluationResult `json:"judge"`
	BetterAnswer  string                 `json:"better_answer"`
}

// Pipeline runs the three rag stages over a shared session store.
type Pipeline struct {
	sessions      *SessionStore
	generator     generation.Generator
	evaluator     Evaluator
	judgeProvider string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewPipeline creates a pipeline. judgeProvider names the provider used
// for the expected/chatbot comparison.
func NewPipeline(sessions *SessionStore, generator generation.Generator, evaluator Evaluator, judgeProvider string) *Pipeline {
	return &Pipeline{
		sessions:      sessions,
		generator:     generator,
		evaluator:     evaluator,
		judgeProvider: judgeProvider,
		httpClient:    &http.Client{Timeout: ScrapeTimeout},
		logger:        log.Named("rag"),
	}
}

// Initialize warms the chatbot, scrapes the source page and records its
// chunks in a new session.
func (p *Pipeline) Initialize(ctx context.Context, params InitParams) (InitResult, error) {
	if params.PageURL == "" {
		return InitResult{}, fmt.Errorf("page_url is required")
	}

	// Warm the chatbot so the first evaluated query is not a cold start.
	// Warm-up failure degrades, it does not block initialization.
	if params.ChatbotBaseURL != "" {
		if err := p.warmChatbot(ctx, params.ChatbotBaseURL); err != nil {
			p.logger.Warn("chatbot warm-up failed", zap.Error(err))
		}
	}

	paragraphs, err := Scrape(ctx, params.PageURL)
	if err != nil {
		return InitResult{}, fmt.Errorf("scrape %s: %w", params.PageURL, err)
	}
	chunks := PackChunks(paragraphs, params.ChunkSize)
	if len(chunks) == 0 {
		return InitResult{}, fmt.Errorf("no paragraphs found at %s", params.PageURL)
	}

	session := p.sessions.Create(Session{
		PageURL:        params.PageURL,
		ChunkSize:      params.ChunkSize,
		ModelID:        params.ModelID,
		ChatbotBaseURL: strings.TrimRight(params.ChatbotBaseURL, "/"),
		ChatbotPath:    params.ChatbotChatPath,
		Chunks:         chunks,
	})
	p.logger.Info("rag session initialized",
		zap.String("session_id", session.ID),
		zap.String("page_url", params.PageURL),
		zap.Int("chunks", len(chunks)))
	return InitResult{SessionID: session.ID, Chunks: chunks}, nil
}

// Cleanup drops a finished session and its chunks.
func (p *Pipeline) Cleanup(sessionID string) {
	p.sessions.Delete(sessionID)
	p.logger.Info("rag session removed", zap.String("session_id", sessionID))
}

func (p *Pipeline) warmChatbot(ctx context.Context, baseURL string) error {
	url := strings.TrimRight(baseURL, "/") + "/init"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("{}"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("init returned status %d", resp.StatusCode)
	}
	return nil
}

// GenerateExpected builds the golden answer from the chunks selected in
// manualOrder. A refusal against non-empty context is retried once with
// the gentler summarization prompt.
func (p *Pipeline) GenerateExpected(ctx context.Context, sessionID, prompt string, manualOrder []int, expectedModel string) (string, error) {
	session, err := p.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	contextText := buildContext(session.Chunks, manualOrder)
	userPrompt := fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION:\n%s", contextText, prompt)

	answer, err := p.generator.Generate(ctx, strictSystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("generate expected answer: %w", err)
	}
	if strings.TrimSpace(answer) == NotFoundSentinel && contextText != "" {
		p.logger.Info("generator refused, retrying with summarization prompt",
			zap.String("session_id", sessionID))
		answer, err = p.generator.Generate(ctx, summarizeSystemPrompt, userPrompt)
		if err != nil {
			return "", fmt.Errorf("generate expected answer (retry): %w", err)
		}
	}
	return answer, nil
}

// buildContext concatenates the selected chunks in manual order, capped
// at ContextCharCap characters. Out-of-range indexes are skipped.
func buildContext(chunks []string, manualOrder []int) string {
	var sb strings.Builder
	for _, idx := range manualOrder {
		if idx < 0 || idx >= len(chunks) {
			continue
		}
		chunk := chunks[idx]
		sep := ""
		if sb.Len() > 0 {
			sep = ChunkSeparator
		}
		if sb.Len()+len(sep)+len(chunk) > ContextCharCap {
			if sb.Len() == 0 {
				sb.WriteString(chunk[:ContextCharCap])
			}
			break
		}
		sb.WriteString(sep)
		sb.WriteString(chunk)
	}
	return sb.String()
}

// Evaluate queries the chatbot and scores its answer against the golden
// answer: lexical metrics and the LLM judge run in parallel.
func (p *Pipeline) Evaluate(ctx context.Context, sessionID, prompt, expectedAnswer string) (EvalOutcome, error) {
	session, err := p.sessions.Get(sessionID)
	if err != nil {
		return EvalOutcome{}, err
	}

	answer, err := p.queryChatbot(ctx, session, prompt)
	if err != nil {
		return EvalOutcome{}, fmt.Errorf("query chatbot: %w", err)
	}

	outcome := EvalOutcome{ChatbotAnswer: answer}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		outcome.Metrics = ComputeMetrics(answer, expectedAnswer)
	}()
	go func() {
		defer wg.Done()
		judge, err := p.evaluator.EvaluateResponse(ctx, p.judgeProvider, answer, expectedAnswer, prompt)
		if err != nil {
			judge = types.EvaluationResult{Metadata: map[string]any{"error": err.Error()}}
		}
		outcome.Judge = judge
	}()
	wg.Wait()

	outcome.BetterAnswer = betterAnswer(outcome.Judge.MatchLevel)
	return outcome, nil
}

// queryChatbot POSTs the prompt to the chat path, falling back to the
// service root on a non-200.
func (p *Pipeline) queryChatbot(ctx context.Context, session *Session, prompt string) (string, error) {
	primary := session.ChatbotBaseURL + "/" + strings.TrimLeft(session.ChatbotPath, "/")
	answer, err := p.postPrompt(ctx, primary, prompt)
	if err == nil {
		return answer, nil
	}
	p.logger.Warn("primary chat path failed, trying root",
		zap.String("url", primary),
		zap.Error(err))
	return p.postPrompt(ctx, session.ChatbotBaseURL, prompt)
}

func (p *Pipeline) postPrompt(ctx context.Context, url, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chatbot returned status %d", resp.StatusCode)
	}
	return simulator.AdaptResponse(body), nil
}

// betterAnswer maps the judge's match level to the comparison verdict.
func betterAnswer(matchLevel int) string {
	switch {
	case matchLevel >= 4:
		return "chatbot"
	case matchLevel == 3:
		return "tie"
	default:
		return "expected"
	}
}
