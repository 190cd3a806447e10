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
	"math"
	"strings"
)

// NLPMetrics are the lexical scores of a chatbot answer against the
// golden answer. BERTScore is a declared field without a model behind it
// and is always 0.
type NLPMetrics struct {
	BLEU      float64 `json:"bleu"`
	RougeL    float64 `json:"rouge_l"`
	Meteor    float64 `json:"meteor"`
	BERTScore float64 `json:"bert_score"`
}

// ComputeMetrics scores candidate against reference with all lexical
// metrics.
func ComputeMetrics(candidate, reference string) NLPMetrics {
	cand := tokenize(candidate)
	ref := tokenize(reference)
	return NLPMetrics{
		BLEU:      round3(bleu(cand, ref)),
		RougeL:    round3(rougeL(cand, ref)),
		Meteor:    round3(meteor(cand, ref)),
		BERTScore: 0.0,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.Trim(f, ".,;:!?\"'()[]"); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// bleu computes BLEU-4 with smoothing method 1: zero n-gram matches are
// replaced by a 0.1 pseudo-count.
func bleu(candidate, reference []string) float64 {
	if len(candidate) == 0 || len(reference) == 0 {
		return 0
	}
	const maxN = 4
	const epsilon = 0.1

	logSum := 0.0
	for n := 1; n <= maxN; n++ {
		total := len(candidate) - n + 1
		if total <= 0 {
			return 0
		}
		refCounts := ngramCounts(reference, n)
		matched := 0.0
		for gram, count := range ngramCounts(candidate, n) {
			if rc, ok := refCounts[gram]; ok {
				matched += float64(min(count, rc))
			}
		}
		if matched == 0 {
			matched = epsilon
		}
		logSum += math.Log(matched / float64(total))
	}
	precision := math.Exp(logSum / maxN)

	// Brevity penalty.
	bp := 1.0
	if len(candidate) < len(reference) {
		bp = math.Exp(1 - float64(len(reference))/float64(len(candidate)))
	}
	return bp * precision
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}

// rougeL computes the ROUGE-L F1 over a word-level longest common
// subsequence.
func rougeL(candidate, reference []string) float64 {
	if len(candidate) == 0 || len(reference) == 0 {
		return 0
	}
	lcs := lcsLength(candidate, reference)
	if lcs == 0 {
		return 0
	}
	precision := float64(lcs) / float64(len(candidate))
	recall := float64(lcs) / float64(len(reference))
	return 2 * precision * recall / (precision + recall)
}

func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// meteor computes a simplified unigram METEOR: harmonic mean weighted
// toward recall with a fragmentation penalty. When no alignment exists
// it falls back to symmetric token-set overlap.
func meteor(candidate, reference []string) float64 {
	if len(candidate) == 0 || len(reference) == 0 {
		return 0
	}

	matched, chunks := alignUnigrams(candidate, reference)
	if matched == 0 {
		return setOverlap(candidate, reference)
	}

	precision := float64(matched) / float64(len(candidate))
	recall := float64(matched) / float64(len(reference))
	fMean := 10 * precision * recall / (recall + 9*precision)
	penalty := 0.5 * math.Pow(float64(chunks)/float64(matched), 3)
	return fMean * (1 - penalty)
}

// alignUnigrams greedily matches candidate tokens against reference
// occurrences in order, returning the match count and the number of
// contiguous matched runs.
func alignUnigrams(candidate, reference []string) (matched, chunks int) {
	remaining := make(map[string]int, len(reference))
	for _, t := range reference {
		remaining[t]++
	}
	inChunk := false
	for _, t := range candidate {
		if remaining[t] > 0 {
			remaining[t]--
			matched++
			if !inChunk {
				chunks++
				inChunk = true
			}
		} else {
			inChunk = false
		}
	}
	return matched, chunks
}

// setOverlap is the symmetric token-set overlap fallback:
// 2|A∩B| / (|A|+|B|) over unique tokens.
func setOverlap(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	common := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			common++
		}
	}
	if len(setA)+len(setB) == 0 {
		return 0
	}
	return 2 * float64(common) / float64(len(setA)+len(setB))
}
