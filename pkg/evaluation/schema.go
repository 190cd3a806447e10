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
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// verdictSchema is the shape every judge must produce. match_level bounds
// are checked separately so legacy rubrics can be clamped instead of
// rejected.
var verdictSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["match_level", "justification"],
	"properties": {
		"match_level": {"type": "integer"},
		"justification": {"type": "string"},
		"metadata": {"type": "object"}
	}
}`)

// ValidateVerdict checks a parsed judge verdict against the canonical
// shape. A mapping carrying an "error" key is a judge-failure marker and
// is reported as such.
func ValidateVerdict(verdict map[string]any) error {
	if msg, ok := verdict["error"]; ok {
		return fmt.Errorf("judge failure: %v", msg)
	}
	res, err := gojsonschema.Validate(verdictSchema, gojsonschema.NewGoLoader(verdict))
	if err != nil {
		return fmt.Errorf("verdict validation: %w", err)
	}
	if !res.Valid() {
		details := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			details = append(details, e.String())
		}
		return fmt.Errorf("verdict schema: %s", strings.Join(details, "; "))
	}
	return nil
}
