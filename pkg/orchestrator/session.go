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
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/teradata-labs/levelapp/internal/log"
	"github.com/teradata-labs/levelapp/pkg/types"
)

// SessionStore holds minted workflow sessions. Implementations must be
// safe for concurrent use; the in-memory store is the single-process
// default and multi-process deployments substitute their own.
type SessionStore interface {
	Put(session types.WorkflowSession) error
	Get(sessionID string) (types.WorkflowSession, bool)
	FindBy(projectID string, workflowType types.WorkflowType, seedHash string) (types.WorkflowSession, bool)
	DeleteExpired(now time.Time) int
}

// MemoryStore is the in-process SessionStore. Expired sessions are
// evicted lazily on access and in bulk by the sweeper.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]types.WorkflowSession
}

var _ SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]types.WorkflowSession)}
}

// Put stores or replaces a session.
func (s *MemoryStore) Put(session types.WorkflowSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
	return nil
}

// Get returns a live session by id. Expired sessions are evicted and
// reported as absent.
func (s *MemoryStore) Get(sessionID string) (types.WorkflowSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return types.WorkflowSession{}, false
	}
	if session.Expired(time.Now()) {
		delete(s.sessions, sessionID)
		return types.WorkflowSession{}, false
	}
	return session, true
}

// FindBy returns a live session matching the idempotency key.
func (s *MemoryStore) FindBy(projectID string, workflowType types.WorkflowType, seedHash string) (types.WorkflowSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, session := range s.sessions {
		if session.ProjectID != projectID || session.WorkflowType != workflowType || session.SeedHash != seedHash {
			continue
		}
		if session.Expired(now) {
			delete(s.sessions, id)
			continue
		}
		return session, true
	}
	return types.WorkflowSession{}, false
}

// DeleteExpired evicts every session past its TTL and returns the count.
func (s *MemoryStore) DeleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored sessions, expired included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartSweeper runs DeleteExpired on the store every 5 minutes until the
// returned stop function is called.
func StartSweeper(store SessionStore) (stop func()) {
	c := cron.New()
	logger := log.Named("orchestrator.sweeper")
	_, err := c.AddFunc("@every 5m", func() {
		if n := store.DeleteExpired(time.Now()); n > 0 {
			logger.Info("evicted expired sessions", zap.Int("count", n))
		}
	})
	if err != nil {
		logger.Error("sweeper schedule rejected", zap.Error(err))
		return func() {}
	}
	c.Start()
	return func() { c.Stop() }
}
