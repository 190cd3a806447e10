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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeMetricsIdenticalText(t *testing.T) {
	m := ComputeMetrics("the cat sat on the mat", "the cat sat on the mat")
	assert.Equal(t, 1.0, m.BLEU)
	assert.Equal(t, 1.0, m.RougeL)
	assert.Greater(t, m.Meteor, 0.9)
	assert.Equal(t, 0.0, m.BERTScore)
}

func TestComputeMetricsDisjointText(t *testing.T) {
	m := ComputeMetrics("alpha beta gamma delta", "one two three four")
	assert.Less(t, m.BLEU, 0.1)
	assert.Equal(t, 0.0, m.RougeL)
	assert.Equal(t, 0.0, m.Meteor)
}

func TestComputeMetricsEmpty(t *testing.T) {
	m := ComputeMetrics("", "reference text")
	assert.Equal(t, 0.0, m.BLEU)
	assert.Equal(t, 0.0, m.RougeL)
	assert.Equal(t, 0.0, m.Meteor)
}

func TestComputeMetricsPartialOverlap(t *testing.T) {
	m := ComputeMetrics("the cat sat quietly", "the cat sat on the mat")
	assert.Greater(t, m.RougeL, 0.5)
	assert.Less(t, m.RougeL, 1.0)
	assert.Greater(t, m.Meteor, 0.0)
}

func TestRougeLOrderMatters(t *testing.T) {
	inOrder := ComputeMetrics("a b c d", "a b c d").RougeL
	shuffled := ComputeMetrics("d c b a", "a b c d").RougeL
	assert.Greater(t, inOrder, shuffled)
}

func TestBetterAnswerMapping(t *testing.T) {
	assert.Equal(t, "chatbot", betterAnswer(5))
	assert.Equal(t, "chatbot", betterAnswer(4))
	assert.Equal(t, "tie", betterAnswer(3))
	assert.Equal(t, "expected", betterAnswer(2))
	assert.Equal(t, "expected", betterAnswer(0))
}

func TestPackChunks(t *testing.T) {
	paragraphs := []string{"aaaa", "bbbb", "cccc", "dddd"}
	chunks := PackChunks(paragraphs, 10)
	assert.Equal(t, []string{"aaaa\n\nbbbb", "cccc\n\ndddd"}, chunks)

	assert.Empty(t, PackChunks(nil, 10))

	oversized := PackChunks([]string{"this paragraph is longer than the chunk size"}, 10)
	assert.Len(t, oversized, 1)
}

func TestBuildContext(t *testing.T) {
	chunks := []string{"zero", "one", "two"}
	assert.Equal(t, "two"+ChunkSeparator+"zero", buildContext(chunks, []int{2, 0}))
	assert.Equal(t, "one", buildContext(chunks, []int{5, 1, -1}))
	assert.Equal(t, "", buildContext(chunks, nil))
}
