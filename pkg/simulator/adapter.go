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
	"sort"
	"strconv"
	"strings"

	"github.com/teradata-labs/levelapp/pkg/types"
)

// replyPaths is the fixed probe order for well-known reply locations in
// agent responses.
var replyPaths = [][]string{
	{"content"},
	{"message"},
	{"payload", "message"},
	{"choices", "0", "message", "content"},
	{"output", "text"},
	{"response", "content"},
	{"data", "0", "text"},
}

// AdaptResponse collapses a heterogeneous agent response body into one
// plain-text reply. JSON bodies are probed at the well-known paths first,
// then scanned for any non-empty string leaf; non-JSON bodies pass
// through trimmed; as a last resort the body is re-encoded canonically.
func AdaptResponse(body []byte) string {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return strings.TrimSpace(string(body))
	}

	// A bare JSON string is already the reply.
	if s, ok := parsed.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}

	for _, path := range replyPaths {
		if s, ok := probePath(parsed, path); ok {
			return s
		}
	}
	if s, ok := firstStringLeaf(parsed); ok {
		return s
	}
	if canonical, err := types.CanonicalJSON(parsed); err == nil {
		return string(canonical)
	}
	return strings.TrimSpace(string(body))
}

// metadataPaths is the probe order for agent-supplied interaction
// metadata in agent responses.
var metadataPaths = [][]string{
	{"payload", "metadata"},
	{"metadata"},
}

// ExtractMetadata pulls the agent-supplied metadata object out of a
// response body. Returns nil when the body is not JSON or carries no
// metadata object at a known location.
func ExtractMetadata(body []byte) map[string]any {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	for _, path := range metadataPaths {
		node, ok := walkPath(parsed, path)
		if !ok {
			continue
		}
		if m, ok := node.(map[string]any); ok && len(m) > 0 {
			return m
		}
	}
	return nil
}

// probePath walks a decoded JSON value along a path whose segments are
// object keys or numeric array indexes.
func probePath(v any, path []string) (string, bool) {
	cur, ok := walkPath(v, path)
	if !ok {
		return "", false
	}
	s, ok := cur.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func walkPath(v any, path []string) (any, bool) {
	cur := v
	for _, seg := range path {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// firstStringLeaf scans a decoded JSON value depth-first, object keys in
// sorted order for determinism, and returns the first non-empty string.
func firstStringLeaf(v any) (string, bool) {
	switch node := v.(type) {
	case string:
		if strings.TrimSpace(node) != "" {
			return node, true
		}
	case map[string]any:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := firstStringLeaf(node[k]); ok {
				return s, true
			}
		}
	case []any:
		for _, item := range node {
			if s, ok := firstStringLeaf(item); ok {
				return s, true
			}
		}
	}
	return "", false
}
