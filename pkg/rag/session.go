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

package rag

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one initialized rag evaluation: the scraped chunks plus the
// chatbot coordinates needed by the later stages.
type Session struct {
	ID             string    `json:"id"`
	PageURL        string    `json:"page_url"`
	ChunkSize      int       `json:"chunk_size"`
	ModelID        string    `json:"model_id"`
	ChatbotBaseURL string    `json:"chatbot_base_url"`
	ChatbotPath    string    `json:"chatbot_chat_path"`
	Chunks         []string  `json:"chunks"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionStore holds rag sessions in process.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create mints a session with a fresh id and stores it.
func (s *SessionStore) Create(session Session) *Session {
	session.ID = uuid.NewString()
	session.CreatedAt = time.Now()
	s.mu.Lock()
	s.sessions[session.ID] = &session
	s.mu.Unlock()
	return &session
}

// Delete drops a session. Deleting an unknown id is a no-op.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Get returns a session by id.
func (s *SessionStore) Get(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("rag session %q not found", sessionID)
	}
	return session, nil
}
