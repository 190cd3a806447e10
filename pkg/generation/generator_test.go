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

package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/levelapp/pkg/evaluation"
	"github.com/teradata-labs/levelapp/pkg/types"
)

func TestChatGenerator(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"choices": [{"message": {"content": "  golden answer  "}}]}`))
	}))
	defer srv.Close()

	gen, err := NewGenerator("openai", types.EvaluationConfig{APIURL: srv.URL, ModelID: "m"})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), "answer from context", "what is x?")
	require.NoError(t, err)
	assert.Equal(t, "golden answer", out)

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestChatGeneratorProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	gen, err := NewGenerator("openai", types.EvaluationConfig{APIURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "", "q")
	var httpErr *evaluation.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
}

func TestIonosGenerator(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"properties": {"output": "prediction text"}}`))
	}))
	defer srv.Close()

	gen, err := NewGenerator("ionos", types.EvaluationConfig{APIURL: srv.URL, ModelID: "model-x"})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "prediction text", out)
	assert.Equal(t, "/model-x/predictions", gotPath)
}

func TestNewGeneratorRequiresConfig(t *testing.T) {
	_, err := NewGenerator("openai", types.EvaluationConfig{})
	assert.Error(t, err)
	_, err = NewGenerator("ionos", types.EvaluationConfig{APIURL: "http://x"})
	assert.Error(t, err)
}
