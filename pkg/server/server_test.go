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

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/levelapp/pkg/orchestrator"
	"github.com/teradata-labs/levelapp/pkg/types"
)

func newTestServer() *Server {
	verifiers := orchestrator.DefaultVerifiers(nil, func() bool { return true })
	orch := orchestrator.New(orchestrator.Config{JWTSecret: "s", RateLimitPerMin: 10}, orchestrator.NewMemoryStore(), verifiers)
	return New(":0", orch, nil, nil, nil)
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer()
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestPrepareRouteSuccess(t *testing.T) {
	srv := newTestServer()
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/orchestrator/proj/generation/prepare", `{"seed": {"k": 1}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.LaunchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.LaunchToken)
}

func TestPrepareRouteVerificationFailureIs200(t *testing.T) {
	srv := newTestServer()
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/orchestrator/proj/quantum/prepare", `{"seed": {}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.LaunchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Verification)
	assert.Contains(t, resp.Verification.Codes, types.CodeValidationError)
}

func TestPrepareRouteRateLimitIs429(t *testing.T) {
	srv := newTestServer()

	saw429 := 0
	for k := 0; k <= 10; k++ {
		body := fmt.Sprintf(`{"seed": {"i": %d}}`, k)
		rec := doJSON(t, srv.Handler(), http.MethodPost, "/orchestrator/proj/generation/prepare", body)
		if rec.Code == http.StatusTooManyRequests {
			saw429++
			var resp types.LaunchResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Verification.Codes, types.CodeRateLimited)
		}
	}
	assert.Equal(t, 1, saw429)
}

func TestPrepareRouteMalformedBody(t *testing.T) {
	srv := newTestServer()
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/orchestrator/proj/generation/prepare", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnconfiguredSubsystems(t *testing.T) {
	srv := New(":0", nil, nil, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, srv.Handler(), http.MethodPost, "/simulator/run", `{}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, srv.Handler(), http.MethodPost, "/rag/initialize", `{}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, srv.Handler(), http.MethodPost, "/orchestrator/p/generation/prepare", `{}`).Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "http://studio.local")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}
