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

// Package orchestrator gates evaluation runs behind a verify, init,
// launch state machine with per-project rate limiting, idempotent session
// allocation and signed launch tokens. PrepareWorkflow never returns an
// error; every failure is materialized in the LaunchResponse.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/levelapp/internal/log"
	"github.com/teradata-labs/levelapp/pkg/types"
)

const (
	// DefaultRateLimitPerMin caps prepare calls per project per minute.
	DefaultRateLimitPerMin = 10
	// DefaultSessionTTL bounds a minted session's lifetime.
	DefaultSessionTTL = 15 * time.Minute
	// DefaultChunkSize is the rag context fallback when the seed carries
	// no chunk_size.
	DefaultChunkSize = 1000
)

// Config tunes an orchestrator Service. Zero values take the documented
// defaults.
type Config struct {
	RateLimitPerMin   int
	SessionTTL        time.Duration
	JWTSecret         string
	RedirectTemplates map[types.WorkflowType]string
}

// Service is the workflow orchestrator.
type Service struct {
	store     SessionStore
	limiter   *RateLimiter
	issuer    *TokenIssuer
	verifiers map[types.WorkflowType]Verifier
	redirects map[types.WorkflowType]string
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// DefaultVerifiers returns the standard verifier set. hasProviders
// reports whether at least one judge provider is configured.
func DefaultVerifiers(auth Authorizer, hasProviders func() bool) map[types.WorkflowType]Verifier {
	return map[types.WorkflowType]Verifier{
		types.WorkflowGeneration: &GenerationVerifier{Authorize: auth, HasProviders: hasProviders},
		types.WorkflowRAG:        &RAGVerifier{Authorize: auth},
		types.WorkflowExtraction: ExtractionVerifier{},
	}
}

// New creates an orchestrator over the given store and verifiers.
func New(cfg Config, store SessionStore, verifiers map[types.WorkflowType]Verifier) *Service {
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = DefaultRateLimitPerMin
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	redirects := cfg.RedirectTemplates
	if redirects == nil {
		redirects = map[types.WorkflowType]string{
			types.WorkflowGeneration: "/workflows/generation/{session_id}",
			types.WorkflowRAG:        "/workflows/rag/{session_id}",
			types.WorkflowExtraction: "/workflows/extraction/{session_id}",
		}
	}
	return &Service{
		store:     store,
		limiter:   NewRateLimiter(cfg.RateLimitPerMin),
		issuer:    NewTokenIssuer([]byte(cfg.JWTSecret)),
		verifiers: verifiers,
		redirects: redirects,
		ttl:       cfg.SessionTTL,
		logger:    log.Named("orchestrator"),
		now:       time.Now,
	}
}

// TokenIssuer exposes the issuer so launched jobs can verify tokens.
func (s *Service) TokenIssuer() *TokenIssuer {
	return s.issuer
}

// PrepareWorkflow runs the full state machine: rate limit, validation,
// idempotency lookup, verification, session init and token issue.
func (s *Service) PrepareWorkflow(ctx context.Context, projectID string, workflowType types.WorkflowType, seed map[string]any) (response types.LaunchResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("prepare_workflow panicked",
				zap.String("project_id", projectID),
				zap.Any("panic", r))
			response = failure(types.CodeSystemError, fmt.Sprintf("internal error: %v", r))
		}
	}()

	// Every call counts against the bucket, invalid requests included.
	if !s.limiter.Allow(projectID) {
		s.logger.Warn("rate limited", zap.String("project_id", projectID))
		return failure(types.CodeRateLimited, "rate limit exceeded for project "+projectID)
	}

	if !workflowType.Known() {
		return failure(types.CodeValidationError, fmt.Sprintf("unknown workflow type %q", workflowType))
	}
	if seed == nil {
		seed = map[string]any{}
	}

	seedHash, err := types.SeedHash(seed)
	if err != nil {
		return failure(types.CodeValidationError, "seed not encodable: "+err.Error())
	}

	// Idempotency: reuse a live session, mint only a fresh token.
	if existing, ok := s.store.FindBy(projectID, workflowType, seedHash); ok {
		return s.launch(existing)
	}

	verifier, ok := s.verifiers[workflowType]
	if !ok {
		return failure(types.CodeValidationError, fmt.Sprintf("no verifier for workflow type %q", workflowType))
	}
	verification := verifier.Verify(ctx, projectID, seed)
	if !verification.Ready {
		s.logger.Info("verification failed",
			zap.String("project_id", projectID),
			zap.String("workflow_type", string(workflowType)),
			zap.Strings("reasons", verification.Reasons))
		return types.LaunchResponse{Success: false, Verification: &verification}
	}

	now := s.now()
	session := types.WorkflowSession{
		SessionID:    uuid.NewString(),
		ProjectID:    projectID,
		WorkflowType: workflowType,
		SeedHash:     seedHash,
		Context:      buildContext(workflowType, seed),
		Status:       types.SessionReady,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.store.Put(session); err != nil {
		return failure(types.CodeSystemError, "session store: "+err.Error())
	}

	s.logger.Info("session minted",
		zap.String("session_id", session.SessionID),
		zap.String("project_id", projectID),
		zap.String("workflow_type", string(workflowType)),
		zap.String("seed_hash", seedHash))
	resp := s.launch(session)
	if resp.Success {
		resp.Verification = &verification
	}
	return resp
}

// launch issues a fresh token and redirect for a live session.
func (s *Service) launch(session types.WorkflowSession) types.LaunchResponse {
	token, err := s.issuer.Issue(session)
	if err != nil {
		return failure(types.CodeSystemError, "token issue: "+err.Error())
	}
	return types.LaunchResponse{
		Success:      true,
		SessionID:    session.SessionID,
		LaunchToken:  token,
		RedirectPath: s.redirectFor(session),
	}
}

func (s *Service) redirectFor(session types.WorkflowSession) string {
	template, ok := s.redirects[session.WorkflowType]
	if !ok {
		return ""
	}
	return strings.ReplaceAll(template, "{session_id}", session.SessionID)
}

// buildContext derives the workflow context from the seed. No network
// I/O and no heavy allocation happen here; that work belongs to the
// launched job.
func buildContext(workflowType types.WorkflowType, seed map[string]any) map[string]any {
	switch workflowType {
	case types.WorkflowGeneration:
		context := map[string]any{"available_models": []any{}}
		if endpoint, ok := seed["endpoint"].(string); ok {
			context["endpoint_url"] = endpoint
		}
		if models, ok := seed["models"].([]any); ok {
			context["available_models"] = models
		}
		return context
	case types.WorkflowRAG:
		context := map[string]any{"chunk_size": DefaultChunkSize}
		if sourceURL, ok := seed["source_url"].(string); ok {
			context["source_url"] = sourceURL
		}
		if size, ok := seed["chunk_size"].(float64); ok && size > 0 {
			context["chunk_size"] = int(size)
		}
		return context
	default:
		return map[string]any{}
	}
}

func failure(code types.ErrorCode, reason string) types.LaunchResponse {
	return types.LaunchResponse{
		Success: false,
		Verification: &types.VerificationResult{
			Ready:   false,
			Checks:  []types.CheckResult{},
			Reasons: []string{reason},
			Codes:   []types.ErrorCode{code},
		},
	}
}
