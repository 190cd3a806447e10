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
	"encoding/json"
	"fmt"
	"os"
)

// Endpoint describes the agent under test: where to POST, which headers
// to send, and how to shape the request body. PayloadTemplate supports
// ${var} substitution over the per-turn variable mapping; when empty the
// default payload is {"prompt": <user_message>}.
type Endpoint struct {
	URL             string            `yaml:"url" mapstructure:"url"`
	Headers         map[string]string `yaml:"headers" mapstructure:"headers"`
	PayloadTemplate string            `yaml:"payload_template" mapstructure:"payload_template"`
}

// BuildPayload renders the request body for one turn. The rendered
// template must be valid JSON; substitution values are JSON-escaped
// before interpolation so message content cannot break the template.
func (e Endpoint) BuildPayload(vars map[string]string) ([]byte, error) {
	if e.PayloadTemplate == "" {
		return json.Marshal(map[string]string{"prompt": vars["user_message"]})
	}
	rendered := os.Expand(e.PayloadTemplate, func(name string) string {
		v, ok := vars[name]
		if !ok {
			return ""
		}
		escaped, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		// Strip the quotes json.Marshal adds; templates place their own.
		return string(escaped[1 : len(escaped)-1])
	})
	if !json.Valid([]byte(rendered)) {
		return nil, fmt.Errorf("payload template rendered invalid JSON")
	}
	return []byte(rendered), nil
}
