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

package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/teradata-labs/levelapp/internal/log"
	"github.com/teradata-labs/levelapp/pkg/types"
)

var (
	// ErrUnknownProvider is returned when evaluating against a provider
	// that was never configured.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrInvalidConfig is returned when a provider configuration cannot
	// build a judge.
	ErrInvalidConfig = errors.New("invalid provider config")
)

// Service dispatches evaluations to configured judge providers. Judges are
// built once per SetConfig and swapped atomically; evaluation itself never
// returns an error other than ErrUnknownProvider, judge failures are
// materialized as zero-score results.
type Service struct {
	mu        sync.RWMutex
	factories map[string]Factory
	fallback  Factory
	judges    map[string]Judge
	logger    *zap.Logger
}

// NewService creates an evaluation service over the given factory set.
// fallback, when non-nil, builds a judge for provider names without a
// dedicated factory (the config must carry an api_url).
func NewService(factories map[string]Factory, fallback Factory) *Service {
	if factories == nil {
		factories = make(map[string]Factory)
	}
	return &Service{
		factories: factories,
		fallback:  fallback,
		judges:    make(map[string]Judge),
		logger:    log.Named("evaluation"),
	}
}

// SetConfig registers or atomically replaces the configuration for one
// provider.
func (s *Service) SetConfig(provider string, cfg types.EvaluationConfig) error {
	factory := s.factories[provider]
	if factory == nil {
		if s.fallback == nil || cfg.APIURL == "" {
			return fmt.Errorf("provider %q: %w", provider, ErrInvalidConfig)
		}
		factory = s.fallback
	}
	judge, err := factory(cfg)
	if err != nil {
		return fmt.Errorf("provider %q: %w: %v", provider, ErrInvalidConfig, err)
	}

	s.mu.Lock()
	s.judges[provider] = judge
	s.mu.Unlock()

	s.logger.Info("provider configured",
		zap.String("provider", provider),
		zap.String("model_id", cfg.ModelID))
	return nil
}

// Providers returns the names of all configured providers.
func (s *Service) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.judges))
	for name := range s.judges {
		names = append(names, name)
	}
	return names
}

// EvaluateResponse scores outputText against referenceText with the named
// provider. The only error is ErrUnknownProvider; every other failure mode
// is folded into the result as match_level 0 with metadata.error set.
func (s *Service) EvaluateResponse(ctx context.Context, provider, outputText, referenceText, userMessage string) (types.EvaluationResult, error) {
	s.mu.RLock()
	judge, ok := s.judges[provider]
	s.mu.RUnlock()
	if !ok {
		return types.EvaluationResult{}, fmt.Errorf("provider %q: %w", provider, ErrUnknownProvider)
	}

	prompt := judge.BuildPrompt(userMessage, outputText, referenceText)
	verdict, err := CallWithRetry(ctx, judge.Name(), JudgeBackoffCap, func(ctx context.Context) (map[string]any, error) {
		return judge.CallLLM(ctx, prompt)
	})
	if err != nil {
		s.logger.Warn("judge call failed",
			zap.String("provider", provider),
			zap.Error(err))
		verdict = map[string]any{"error": err.Error()}
	}

	result := s.resultFromVerdict(provider, judge, verdict)
	s.attachKeyPoints(&result, userMessage, outputText, referenceText)
	return result, nil
}

// resultFromVerdict converts a raw verdict mapping into a well-formed
// EvaluationResult, validating shape and clamping the score into [0, 5].
func (s *Service) resultFromVerdict(provider string, judge Judge, verdict map[string]any) types.EvaluationResult {
	if err := ValidateVerdict(verdict); err != nil {
		return types.EvaluationResult{
			MatchLevel:    0,
			Justification: "",
			Metadata:      map[string]any{"error": err.Error()},
		}
	}

	metadata := make(map[string]any)
	if m, ok := verdict["metadata"].(map[string]any); ok {
		for k, v := range m {
			metadata[k] = v
		}
	}

	level := asInt(verdict["match_level"])
	if tagger, ok := judge.(RubricTagger); ok {
		if tag := tagger.RubricTag(); tag != "" {
			metadata["rubric"] = tag
		}
	}
	if level < 0 {
		level = 0
	}
	if level > 5 {
		level = 5
	}

	justification, _ := verdict["justification"].(string)
	return types.EvaluationResult{
		MatchLevel:    level,
		Justification: justification,
		Metadata:      metadata,
	}
}

// attachKeyPoints overlays the heuristic key-point fields. Best effort:
// a failure here must never mask a judge verdict.
func (s *Service) attachKeyPoints(result *types.EvaluationResult, userMessage, generated, expected string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("key-point extraction panicked", zap.Any("panic", r))
		}
	}()
	if result.Metadata == nil {
		result.Metadata = make(map[string]any)
	}
	result.Metadata["user_key_point"] = ExtractKeyPoint(userMessage)
	result.Metadata["generated_key_point"] = ExtractKeyPoint(generated)
	result.Metadata["expected_key_point"] = ExtractKeyPoint(expected)
	result.Metadata["key_point_method"] = KeyPointMethod
}

// asInt coerces the JSON number representations a verdict can carry.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return 0
}
