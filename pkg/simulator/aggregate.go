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

package simulator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/teradata-labs/levelapp/pkg/types"
)

// maxGlobalJustifications caps the merged summary bullets per provider.
const maxGlobalJustifications = 5

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// interactionAverages computes per-provider mean match_level over one
// attempt's turns. Turns without a verdict for a provider do not count;
// an empty accumulator yields 0.
func interactionAverages(interactions []types.InteractionResult) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, ir := range interactions {
		for provider, res := range ir.EvaluationResults {
			sums[provider] += float64(res.MatchLevel)
			counts[provider]++
		}
	}
	out := make(map[string]float64, len(sums))
	for provider, sum := range sums {
		out[provider] = round3(sum / float64(counts[provider]))
	}
	return out
}

// attemptAverages computes per-provider means across attempt averages.
func attemptAverages(attempts []types.ScenarioAttemptResult) map[string]float64 {
	maps := make([]map[string]float64, len(attempts))
	for i, a := range attempts {
		maps[i] = a.AverageScores
	}
	return meanOfMaps(maps)
}

// batchAverages computes per-provider means across scenario averages.
func batchAverages(scenarios []types.ScenarioResult) map[string]float64 {
	maps := make([]map[string]float64, len(scenarios))
	for i, s := range scenarios {
		maps[i] = s.AverageScores
	}
	return meanOfMaps(maps)
}

func meanOfMaps(maps []map[string]float64) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, m := range maps {
		for provider, v := range m {
			sums[provider] += v
			counts[provider]++
		}
	}
	out := make(map[string]float64, len(sums))
	for provider, sum := range sums {
		out[provider] = round3(sum / float64(counts[provider]))
	}
	return out
}

// averageExecutionTime is the mean attempt execution time across the
// whole batch.
func averageExecutionTime(scenarios []types.ScenarioResult) float64 {
	var sum float64
	var count int
	for _, s := range scenarios {
		for _, a := range s.Attempts {
			sum += a.ExecutionTimeSeconds
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return round3(sum / float64(count))
}

// mergeJustifications groups judge justifications by normalized text and
// emits up to 5 merged bullet lines per provider, most frequent first.
func mergeJustifications(scenarios []types.ScenarioResult) map[string][]string {
	type bucket struct {
		text  string
		count int
		order int
	}
	perProvider := make(map[string]map[string]*bucket)
	orders := make(map[string]int)

	for _, s := range scenarios {
		for _, a := range s.Attempts {
			for _, ir := range a.Interactions {
				for provider, res := range ir.EvaluationResults {
					text := strings.Join(strings.Fields(res.Justification), " ")
					if text == "" {
						continue
					}
					key := strings.ToLower(text)
					buckets := perProvider[provider]
					if buckets == nil {
						buckets = make(map[string]*bucket)
						perProvider[provider] = buckets
					}
					if b, ok := buckets[key]; ok {
						b.count++
					} else {
						buckets[key] = &bucket{text: text, count: 1, order: orders[provider]}
						orders[provider]++
					}
				}
			}
		}
	}

	if len(perProvider) == 0 {
		return nil
	}
	out := make(map[string][]string, len(perProvider))
	for provider, buckets := range perProvider {
		sorted := make([]*bucket, 0, len(buckets))
		for _, b := range buckets {
			sorted = append(sorted, b)
		}
		// Most frequent first, first seen breaking ties.
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].count != sorted[j].count {
				return sorted[i].count > sorted[j].count
			}
			return sorted[i].order < sorted[j].order
		})
		lines := make([]string, 0, maxGlobalJustifications)
		for _, b := range sorted {
			if len(lines) == maxGlobalJustifications {
				break
			}
			if b.count > 1 {
				lines = append(lines, fmt.Sprintf("%s (x%d)", b.text, b.count))
			} else {
				lines = append(lines, b.text)
			}
		}
		out[provider] = lines
	}
	return out
}
