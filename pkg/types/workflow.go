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

package types

import "time"

// WorkflowType identifies a prepared workflow family.
type WorkflowType string

const (
	WorkflowGeneration WorkflowType = "generation"
	WorkflowRAG        WorkflowType = "rag"
	WorkflowExtraction WorkflowType = "extraction"
)

// Known reports whether t is one of the supported workflow types.
func (t WorkflowType) Known() bool {
	switch t {
	case WorkflowGeneration, WorkflowRAG, WorkflowExtraction:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a workflow session.
type SessionStatus string

const (
	SessionReady    SessionStatus = "ready"
	SessionConsumed SessionStatus = "consumed"
	SessionExpired  SessionStatus = "expired"
)

// ErrorCode is the orchestrator error taxonomy.
type ErrorCode string

const (
	CodeConfigMissing       ErrorCode = "CONFIG_MISSING"
	CodeResourceUnavailable ErrorCode = "RESOURCE_UNAVAILABLE"
	CodeConnectivityError   ErrorCode = "CONNECTIVITY_ERROR"
	CodePermissionDenied    ErrorCode = "PERMISSION_DENIED"
	CodeValidationError     ErrorCode = "VALIDATION_ERROR"
	CodeRateLimited         ErrorCode = "RATE_LIMITED"
	CodeSystemError         ErrorCode = "SYSTEM_ERROR"
)

// CheckStatus is the outcome of a single verifier check.
type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckFail CheckStatus = "fail"
	CheckWarn CheckStatus = "warn"
)

// CheckResult is one verifier probe outcome.
type CheckResult struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// VerificationResult is the accumulated verifier verdict for a workflow.
type VerificationResult struct {
	Ready   bool          `json:"ready"`
	Checks  []CheckResult `json:"checks"`
	Reasons []string      `json:"reasons"`
	Codes   []ErrorCode   `json:"codes"`
}

// HasCode reports whether the verification carries the given error code.
func (v VerificationResult) HasCode(code ErrorCode) bool {
	for _, c := range v.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// WorkflowSession is a minted, TTL-bound workflow preparation.
type WorkflowSession struct {
	SessionID    string         `json:"session_id"`
	ProjectID    string         `json:"project_id"`
	WorkflowType WorkflowType   `json:"workflow_type"`
	SeedHash     string         `json:"seed_hash"`
	Context      map[string]any `json:"context"`
	Status       SessionStatus  `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

// Expired reports whether the session TTL has elapsed at the given instant.
func (s WorkflowSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// LaunchResponse is the orchestrator reply for prepare_workflow. Failures
// are materialized here, never raised.
type LaunchResponse struct {
	Success      bool                `json:"success"`
	SessionID    string              `json:"session_id,omitempty"`
	LaunchToken  string              `json:"launch_token,omitempty"`
	RedirectPath string              `json:"redirect_path,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
}

// RateLimited reports whether the response was rejected by the rate limiter.
// The HTTP layer maps this to status 429.
func (r LaunchResponse) RateLimited() bool {
	return r.Verification != nil && r.Verification.HasCode(CodeRateLimited)
}
