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

package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/levelapp/pkg/types"
)

func newTestService(opts ...func(*Config)) *Service {
	cfg := Config{JWTSecret: "test-secret", RateLimitPerMin: 100}
	for _, opt := range opts {
		opt(&cfg)
	}
	verifiers := DefaultVerifiers(nil, func() bool { return true })
	return New(cfg, NewMemoryStore(), verifiers)
}

func TestPrepareWorkflowHappyPath(t *testing.T) {
	svc := newTestService()
	resp := svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, map[string]any{"models": []any{"m1"}})

	require.True(t, resp.Success)
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.LaunchToken)
	assert.Equal(t, "/workflows/generation/"+resp.SessionID, resp.RedirectPath)
	require.NotNil(t, resp.Verification)
	assert.True(t, resp.Verification.Ready)

	claims, err := svc.TokenIssuer().Verify(resp.LaunchToken)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, claims.SessionID)
	assert.Equal(t, "proj", claims.ProjectID)
	assert.Equal(t, types.WorkflowGeneration, claims.WorkflowType)
}

func TestPrepareWorkflowIdempotency(t *testing.T) {
	svc := newTestService()
	store := svc.store.(*MemoryStore)
	seed := map[string]any{"endpoint": "", "models": []any{"m1"}}

	first := svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, seed)
	require.True(t, first.Success)
	firstSession, ok := store.Get(first.SessionID)
	require.True(t, ok)

	second := svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, seed)
	require.True(t, second.Success)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.LaunchToken, second.LaunchToken)

	claims1, err := svc.TokenIssuer().Verify(first.LaunchToken)
	require.NoError(t, err)
	claims2, err := svc.TokenIssuer().Verify(second.LaunchToken)
	require.NoError(t, err)
	assert.Equal(t, claims1.SessionID, claims2.SessionID)

	// Reissue must not mutate the session.
	after, ok := store.Get(first.SessionID)
	require.True(t, ok)
	assert.Equal(t, firstSession.CreatedAt, after.CreatedAt)
	assert.Equal(t, firstSession.ExpiresAt, after.ExpiresAt)
	assert.Equal(t, firstSession.SeedHash, after.SeedHash)
	assert.Equal(t, firstSession.Context, after.Context)
	assert.Equal(t, 1, store.Len())
}

func TestPrepareWorkflowSeedKeyOrderIrrelevant(t *testing.T) {
	svc := newTestService()
	first := svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, map[string]any{"a": 1, "b": 2})
	second := svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, map[string]any{"b": 2, "a": 1})
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestPrepareWorkflowRateLimit(t *testing.T) {
	svc := newTestService(func(c *Config) { c.RateLimitPerMin = 10 })

	limited := 0
	for k := 0; k <= 10; k++ {
		resp := svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, map[string]any{"i": k})
		if resp.RateLimited() {
			limited++
			assert.False(t, resp.Success)
		}
	}
	assert.Equal(t, 1, limited)

	// Other projects keep their own bucket.
	other := svc.PrepareWorkflow(context.Background(), "other", types.WorkflowGeneration, map[string]any{})
	assert.True(t, other.Success)
}

func TestPrepareWorkflowUnknownType(t *testing.T) {
	svc := newTestService(func(c *Config) { c.RateLimitPerMin = 10 })
	store := svc.store.(*MemoryStore)

	resp := svc.PrepareWorkflow(context.Background(), "proj", "quantum", map[string]any{})
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Verification)
	assert.True(t, resp.Verification.HasCode(types.CodeValidationError))
	assert.Equal(t, 0, store.Len())

	// The invalid call still consumed a rate-limit slot.
	for k := 0; k < 9; k++ {
		svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, map[string]any{"i": k})
	}
	resp = svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, map[string]any{})
	assert.True(t, resp.RateLimited())
}

func TestPrepareWorkflowExtractionStub(t *testing.T) {
	svc := newTestService()
	resp := svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowExtraction, map[string]any{})
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Verification)
	assert.True(t, resp.Verification.HasCode(types.CodeResourceUnavailable))
	assert.Empty(t, resp.SessionID)
}

func TestPrepareWorkflowEndpointProbe(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
	}))
	defer healthy.Close()

	svc := newTestService()
	resp := svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, map[string]any{"endpoint": healthy.URL})
	assert.True(t, resp.Success)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	down.Close()

	resp = svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, map[string]any{"endpoint": down.URL})
	assert.False(t, resp.Success)
	assert.True(t, resp.Verification.HasCode(types.CodeConnectivityError))
}

func TestPrepareWorkflowMissingProviders(t *testing.T) {
	verifiers := DefaultVerifiers(nil, func() bool { return false })
	svc := New(Config{JWTSecret: "s"}, NewMemoryStore(), verifiers)

	resp := svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, map[string]any{})
	assert.False(t, resp.Success)
	assert.True(t, resp.Verification.HasCode(types.CodeConfigMissing))
}

func TestPrepareWorkflowAuthorizationShortCircuits(t *testing.T) {
	deny := func(ctx context.Context, projectID string) error {
		return fmt.Errorf("project %s suspended", projectID)
	}
	verifiers := DefaultVerifiers(deny, func() bool { return true })
	svc := New(Config{JWTSecret: "s"}, NewMemoryStore(), verifiers)

	resp := svc.PrepareWorkflow(context.Background(), "proj", types.WorkflowGeneration, map[string]any{})
	assert.False(t, resp.Success)
	assert.True(t, resp.Verification.HasCode(types.CodePermissionDenied))
	// Denial short-circuits: only the authorization check ran.
	assert.Len(t, resp.Verification.Checks, 1)
}

func TestRateLimiterSlidesWindow(t *testing.T) {
	limiter := NewRateLimiter(2)
	current := time.Now()
	limiter.now = func() time.Time { return current }

	assert.True(t, limiter.Allow("p"))
	assert.True(t, limiter.Allow("p"))
	assert.False(t, limiter.Allow("p"))

	current = current.Add(61 * time.Second)
	assert.True(t, limiter.Allow("p"))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	expired := types.WorkflowSession{
		SessionID: "old", ProjectID: "p", WorkflowType: types.WorkflowGeneration,
		SeedHash:  "abcd",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	live := types.WorkflowSession{
		SessionID: "new", ProjectID: "p", WorkflowType: types.WorkflowGeneration,
		SeedHash:  "efgh",
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, store.Put(expired))
	require.NoError(t, store.Put(live))

	_, ok := store.Get("old")
	assert.False(t, ok)
	_, ok = store.FindBy("p", types.WorkflowGeneration, "abcd")
	assert.False(t, ok)
	_, ok = store.FindBy("p", types.WorkflowGeneration, "efgh")
	assert.True(t, ok)

	removed := store.DeleteExpired(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, store.Len())
}

func TestTokenVerifyRejectsTampering(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret-a"))
	session := types.WorkflowSession{SessionID: "s", ProjectID: "p", WorkflowType: types.WorkflowGeneration}
	token, err := issuer.Issue(session)
	require.NoError(t, err)

	other := NewTokenIssuer([]byte("secret-b"))
	_, err = other.Verify(token)
	assert.Error(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "s", claims.SessionID)
}

func TestTokenExpiresAfterFiveMinutes(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"))
	issued := time.Now()
	issuer.now = func() time.Time { return issued }

	session := types.WorkflowSession{SessionID: "s", ProjectID: "p", WorkflowType: types.WorkflowRAG}
	token, err := issuer.Issue(session)
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(4 * time.Minute) }
	_, err = issuer.Verify(token)
	assert.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(6 * time.Minute) }
	_, err = issuer.Verify(token)
	assert.Error(t, err)
}
