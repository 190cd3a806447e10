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
	"net/http"

	"go.uber.org/zap"

	"github.com/teradata-labs/levelapp/pkg/rag"
	"github.com/teradata-labs/levelapp/pkg/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type prepareRequest struct {
	Seed map[string]any `json:"seed"`
}

// handlePrepare binds POST /orchestrator/{project_id}/{workflow_type}/prepare.
// Only rate limiting maps to a non-200 status; other verification
// failures travel as success=false in a 200 body.
func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		writeError(w, http.StatusServiceUnavailable, "orchestrator not configured")
		return
	}
	var req prepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}

	projectID := r.PathValue("project_id")
	workflowType := types.WorkflowType(r.PathValue("workflow_type"))

	resp := s.orchestrator.PrepareWorkflow(r.Context(), projectID, workflowType, req.Seed)
	status := http.StatusOK
	if resp.RateLimited() {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, resp)
}

type simulatorRunRequest struct {
	Name     string                  `json:"name"`
	Attempts int                     `json:"attempts"`
	Batch    types.ConversationBatch `json:"batch"`
}

func (s *Server) handleSimulatorRun(w http.ResponseWriter, r *http.Request) {
	if s.simulator == nil {
		writeError(w, http.StatusServiceUnavailable, "simulator not configured")
		return
	}
	var req simulatorRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	if req.Name == "" {
		req.Name = "batch"
	}
	if req.Attempts < 1 {
		req.Attempts = 1
	}

	result, err := s.simulator.RunBatch(r.Context(), req.Batch, req.Name, req.Attempts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.sink.WriteBatchResult(r.Context(), req.Name, result); err != nil {
		s.logger.Warn("result sink failed", zap.String("name", req.Name), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRAGInitialize(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "rag pipeline not configured")
		return
	}
	var params rag.InitParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	result, err := s.pipeline.Initialize(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type generateExpectedRequest struct {
	SessionID     string `json:"session_id"`
	Prompt        string `json:"prompt"`
	ManualOrder   []int  `json:"manual_order"`
	ExpectedModel string `json:"expected_model"`
}

func (s *Server) handleRAGGenerateExpected(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "rag pipeline not configured")
		return
	}
	var req generateExpectedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	answer, err := s.pipeline.GenerateExpected(r.Context(), req.SessionID, req.Prompt, req.ManualOrder, req.ExpectedModel)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"expected_answer": answer})
}

type ragEvaluateRequest struct {
	SessionID      string `json:"session_id"`
	Prompt         string `json:"prompt"`
	ExpectedAnswer string `json:"expected_answer"`
}

func (s *Server) handleRAGEvaluate(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "rag pipeline not configured")
		return
	}
	var req ragEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	outcome, err := s.pipeline.Evaluate(r.Context(), req.SessionID, req.Prompt, req.ExpectedAnswer)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleRAGCleanup(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "rag pipeline not configured")
		return
	}
	s.pipeline.Cleanup(r.PathValue("session_id"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
