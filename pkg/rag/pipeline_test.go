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
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/levelapp/pkg/types"
)

type fakeGenerator struct {
	calls   []string
	answers []string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls = append(f.calls, systemPrompt)
	answer := f.answers[0]
	if len(f.answers) > 1 {
		f.answers = f.answers[1:]
	}
	return answer, nil
}

type fakeEvaluator struct {
	level int
}

func (f *fakeEvaluator) EvaluateResponse(ctx context.Context, provider, outputText, referenceText, userMessage string) (types.EvaluationResult, error) {
	return types.EvaluationResult{MatchLevel: f.level, Justification: "scripted"}, nil
}

const samplePage = `<html><head><style>p{color:red}</style></head><body>
<p>First paragraph about databases.</p>
<script>var p = "not a paragraph";</script>
<p>Second paragraph about   indexing.</p>
<div><p>Third paragraph, nested.</p></div>
<p>   </p>
</body></html>`

func TestInitializeScrapesAndChunks(t *testing.T) {
	warmed := false
	chatbot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/init" {
			warmed = true
		}
	}))
	defer chatbot.Close()

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer page.Close()

	pipeline := NewPipeline(NewSessionStore(), &fakeGenerator{answers: []string{"x"}}, &fakeEvaluator{}, "openai")
	result, err := pipeline.Initialize(context.Background(), InitParams{
		PageURL:        page.URL,
		ChunkSize:      10000,
		ChatbotBaseURL: chatbot.URL,
	})
	require.NoError(t, err)

	assert.True(t, warmed)
	assert.NotEmpty(t, result.SessionID)
	require.Len(t, result.Chunks, 1)
	assert.Contains(t, result.Chunks[0], "First paragraph about databases.")
	assert.Contains(t, result.Chunks[0], "Second paragraph about indexing.")
	assert.Contains(t, result.Chunks[0], "Third paragraph, nested.")
	assert.NotContains(t, result.Chunks[0], "not a paragraph")
	assert.NotContains(t, result.Chunks[0], "color:red")
}

func TestInitializePageFetchFailure(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer page.Close()

	pipeline := NewPipeline(NewSessionStore(), &fakeGenerator{answers: []string{"x"}}, &fakeEvaluator{}, "openai")
	_, err := pipeline.Initialize(context.Background(), InitParams{PageURL: page.URL})
	assert.Error(t, err)
}

func TestGenerateExpectedRetriesOnRefusal(t *testing.T) {
	store := NewSessionStore()
	session := store.Create(Session{Chunks: []string{"chunk zero", "chunk one"}})

	gen := &fakeGenerator{answers: []string{NotFoundSentinel, "summarized answer"}}
	pipeline := NewPipeline(store, gen, &fakeEvaluator{}, "openai")

	answer, err := pipeline.GenerateExpected(context.Background(), session.ID, "what?", []int{1, 0}, "")
	require.NoError(t, err)
	assert.Equal(t, "summarized answer", answer)

	require.Len(t, gen.calls, 2)
	assert.Equal(t, strictSystemPrompt, gen.calls[0])
	assert.Equal(t, summarizeSystemPrompt, gen.calls[1])
}

func TestGenerateExpectedUnknownSession(t *testing.T) {
	pipeline := NewPipeline(NewSessionStore(), &fakeGenerator{answers: []string{"x"}}, &fakeEvaluator{}, "openai")
	_, err := pipeline.GenerateExpected(context.Background(), "missing", "q", nil, "")
	assert.Error(t, err)
}

func TestEvaluateScoresChatbotAnswer(t *testing.T) {
	chatbot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat", r.URL.Path)
		w.Write([]byte(`{"content": "the golden answer"}`))
	}))
	defer chatbot.Close()

	store := NewSessionStore()
	session := store.Create(Session{ChatbotBaseURL: chatbot.URL, ChatbotPath: "/chat", Chunks: []string{"c"}})

	pipeline := NewPipeline(store, &fakeGenerator{answers: []string{"x"}}, &fakeEvaluator{level: 4}, "openai")
	outcome, err := pipeline.Evaluate(context.Background(), session.ID, "q", "the golden answer")
	require.NoError(t, err)

	assert.Equal(t, "the golden answer", outcome.ChatbotAnswer)
	assert.Equal(t, 4, outcome.Judge.MatchLevel)
	assert.Equal(t, "chatbot", outcome.BetterAnswer)
	assert.Equal(t, 1.0, outcome.Metrics.RougeL)
}

func TestEvaluateFallsBackToRoot(t *testing.T) {
	chatbot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/chat" {
			http.Error(w, "wrong path", http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"content": "root answer"}`))
	}))
	defer chatbot.Close()

	store := NewSessionStore()
	session := store.Create(Session{ChatbotBaseURL: chatbot.URL, ChatbotPath: "/chat", Chunks: []string{"c"}})

	pipeline := NewPipeline(store, &fakeGenerator{answers: []string{"x"}}, &fakeEvaluator{level: 3}, "openai")
	outcome, err := pipeline.Evaluate(context.Background(), session.ID, "q", "root answer")
	require.NoError(t, err)

	assert.Equal(t, "root answer", outcome.ChatbotAnswer)
	assert.Equal(t, "tie", outcome.BetterAnswer)
}

func TestCleanupRemovesSession(t *testing.T) {
	store := NewSessionStore()
	session := store.Create(Session{Chunks: []string{"c"}})

	pipeline := NewPipeline(store, &fakeGenerator{answers: []string{"x"}}, &fakeEvaluator{}, "openai")
	pipeline.Cleanup(session.ID)

	_, err := store.Get(session.ID)
	assert.Error(t, err)

	// Unknown ids are a no-op.
	pipeline.Cleanup("missing")
}
