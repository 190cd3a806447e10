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

package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/levelapp/pkg/types"
)

func TestFileSinkWritesVerbatim(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSink(dir)
	require.NoError(t, err)

	result := types.BatchResult{
		Scenarios:     []types.ScenarioResult{{ScenarioID: "s1", Attempts: []types.ScenarioAttemptResult{}, AverageScores: map[string]float64{"openai": 4.5}}},
		AverageScores: map[string]float64{"openai": 4.5},
		StartedAt:     "2026-01-01T00:00:00Z",
		FinishedAt:    "2026-01-01T00:00:09Z",
	}
	require.NoError(t, s.WriteBatchResult(context.Background(), "nightly", result))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "nightly-")

	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var parsed types.BatchResult
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, result.AverageScores, parsed.AverageScores)
	assert.Equal(t, "s1", parsed.Scenarios[0].ScenarioID)
}
