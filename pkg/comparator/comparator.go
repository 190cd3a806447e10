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

// Package comparator scores generated interaction metadata against
// reference metadata with edit-distance similarity.
package comparator

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var dmp = diffmatchpatch.New()

// Similarity returns the normalized edit-distance ratio of two strings
// in [0, 1]: (len(a)+len(b)-distance) / (len(a)+len(b)). Two empty
// strings are identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	lenSum := len(a) + len(b)
	if lenSum == 0 {
		return 1
	}
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	return float64(lenSum-distance) / float64(lenSum)
}

// CompareValues scores one metadata value pair in [0, 1]. Values that
// both parse as numbers or as dates compare exactly; everything else
// compares by edit-distance similarity of the string rendering.
func CompareValues(refValue, genValue any) float64 {
	ref, gen := render(refValue), render(genValue)

	if rf, ok1 := parseFloat(ref); ok1 {
		if gf, ok2 := parseFloat(gen); ok2 {
			if rf == gf {
				return 1
			}
			return 0
		}
	}
	if rt, ok1 := parseDate(ref); ok1 {
		if gt, ok2 := parseDate(gen); ok2 {
			if rt.Equal(gt) {
				return 1
			}
			return 0
		}
	}
	return Similarity(ref, gen)
}

// CompareMetadata scores generated metadata against the reference over
// the reference's keys. A missing key scores 0. Returns nil when the
// reference is empty.
func CompareMetadata(reference, generated map[string]any) *float64 {
	if len(reference) == 0 {
		return nil
	}
	var sum float64
	for key, refValue := range reference {
		genValue, ok := generated[key]
		if !ok {
			continue
		}
		sum += CompareValues(refValue, genValue)
	}
	score := sum / float64(len(reference))
	return &score
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "02/01/2006"}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func render(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
