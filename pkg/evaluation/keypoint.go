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

package evaluation

import "strings"

// KeyPointMethod versions the key-point heuristic so downstream filters
// can detect a formula change.
const KeyPointMethod = "heuristic_v1"

const (
	keyPointShortLimit = 20
	keyPointMaxTokens  = 20
)

var keyPointStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"to": {}, "of": {}, "in": {}, "on": {}, "at": {}, "for": {},
	"with": {}, "by": {}, "from": {}, "as": {}, "that": {}, "this": {},
	"it": {}, "its": {}, "i": {}, "you": {}, "he": {}, "she": {},
	"we": {}, "they": {}, "do": {}, "does": {}, "did": {}, "have": {},
	"has": {}, "had": {}, "will": {}, "would": {}, "can": {}, "could": {},
	"should": {}, "not": {}, "no": {}, "so": {}, "if": {}, "then": {},
}

// ExtractKeyPoint produces a deterministic one-line summary of text.
// Inputs of at most 20 words pass through whitespace-normalized. Longer
// inputs reduce to the first non-trivial sentence with stopwords removed
// and duplicate tokens dropped, capped at 20 tokens.
func ExtractKeyPoint(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) <= keyPointShortLimit {
		return strings.Join(words, " ")
	}

	sentence := firstInformativeSentence(strings.Join(words, " "))
	seen := make(map[string]struct{})
	kept := make([]string, 0, keyPointMaxTokens)
	for _, w := range strings.Fields(sentence) {
		key := strings.ToLower(strings.Trim(w, ".,;:!?\"'()[]"))
		if key == "" {
			continue
		}
		if _, stop := keyPointStopwords[key]; stop {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, w)
		if len(kept) == keyPointMaxTokens {
			break
		}
	}
	if len(kept) == 0 {
		return sentence
	}
	return strings.Join(kept, " ")
}

// firstInformativeSentence returns the first sentence with more than three
// words, falling back to the first sentence, then the whole text.
func firstInformativeSentence(text string) string {
	sentences := splitSentences(text)
	for _, s := range sentences {
		if len(strings.Fields(s)) > 3 {
			return s
		}
	}
	if len(sentences) > 0 {
		return sentences[0]
	}
	return text
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
