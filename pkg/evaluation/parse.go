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

import (
	"encoding/json"
	"regexp"
)

// InvalidJSONMarker is the error value returned when model output cannot
// be parsed as JSON even after object extraction.
const InvalidJSONMarker = "Invalid JSON output"

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseJSONOutput parses model output into a verdict mapping. Models wrap
// JSON in prose or markdown fences often enough that a direct parse
// failure falls back to extracting the outermost {...} span. A second
// failure yields the invalid-output marker mapping.
func ParseJSONOutput(raw string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out
	}
	if span := jsonObjectPattern.FindString(raw); span != "" {
		if err := json.Unmarshal([]byte(span), &out); err == nil {
			return out
		}
	}
	return map[string]any{"error": InvalidJSONMarker}
}
