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

// Package server exposes the harness over HTTP: orchestrator prepare,
// simulator runs and the rag pipeline stages.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/levelapp/internal/log"
	"github.com/teradata-labs/levelapp/pkg/orchestrator"
	"github.com/teradata-labs/levelapp/pkg/rag"
	"github.com/teradata-labs/levelapp/pkg/simulator"
	"github.com/teradata-labs/levelapp/pkg/sink"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Enabled        bool
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// DefaultCORSConfig returns a permissive CORS configuration.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	}
}

// Server is the harness HTTP surface.
type Server struct {
	orchestrator *orchestrator.Service
	simulator    *simulator.Simulator
	pipeline     *rag.Pipeline
	sink         sink.Sink
	cors         CORSConfig
	httpServer   *http.Server
	logger       *zap.Logger
}

// New wires the HTTP surface over the given subsystems. Any subsystem
// may be nil; its routes then answer 503.
func New(addr string, orch *orchestrator.Service, sim *simulator.Simulator, pipeline *rag.Pipeline, resultSink sink.Sink) *Server {
	if resultSink == nil {
		resultSink = sink.NopSink{}
	}
	s := &Server{
		orchestrator: orch,
		simulator:    sim,
		pipeline:     pipeline,
		sink:         resultSink,
		cors:         DefaultCORSConfig(),
		logger:       log.Named("server"),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.corsMiddleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("POST /orchestrator/{project_id}/{workflow_type}/prepare", s.handlePrepare)
	mux.HandleFunc("POST /simulator/run", s.handleSimulatorRun)
	mux.HandleFunc("POST /rag/initialize", s.handleRAGInitialize)
	mux.HandleFunc("POST /rag/generate-expected", s.handleRAGGenerateExpected)
	mux.HandleFunc("POST /rag/evaluate", s.handleRAGEvaluate)
	mux.HandleFunc("DELETE /rag/sessions/{session_id}", s.handleRAGCleanup)
	return mux
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving HTTP until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping")
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware adds CORS headers and answers preflight requests.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	if !s.cors.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed := s.allowedOrigin(origin); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
		}
		if len(s.cors.AllowedMethods) > 0 {
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(s.cors.AllowedMethods, ", "))
		}
		if len(s.cors.AllowedHeaders) > 0 {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(s.cors.AllowedHeaders, ", "))
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, allowed := range s.cors.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if allowed == origin {
			return origin
		}
	}
	return ""
}
