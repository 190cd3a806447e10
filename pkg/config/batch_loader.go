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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/levelapp/pkg/types"
)

// LoadBatch reads a conversation batch from a YAML or JSON file and
// validates it. Interactions without an id get one assigned.
func LoadBatch(path string) (types.ConversationBatch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.ConversationBatch{}, fmt.Errorf("read batch: %w", err)
	}

	var batch types.ConversationBatch
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(raw, &batch)
	} else {
		err = yaml.Unmarshal(raw, &batch)
	}
	if err != nil {
		return types.ConversationBatch{}, fmt.Errorf("parse batch %s: %w", path, err)
	}

	if err := validateBatch(&batch); err != nil {
		return types.ConversationBatch{}, fmt.Errorf("batch %s: %w", path, err)
	}
	return batch, nil
}

func validateBatch(batch *types.ConversationBatch) error {
	seen := make(map[string]struct{}, len(batch.Conversations))
	for i := range batch.Conversations {
		conv := &batch.Conversations[i]
		if conv.ID == "" {
			return fmt.Errorf("conversation %d: missing id", i)
		}
		if _, dup := seen[conv.ID]; dup {
			return fmt.Errorf("conversation %d: duplicate id %q", i, conv.ID)
		}
		seen[conv.ID] = struct{}{}
		if len(conv.Interactions) == 0 {
			return fmt.Errorf("conversation %q: no interactions", conv.ID)
		}
		for j := range conv.Interactions {
			interaction := &conv.Interactions[j]
			if interaction.UserMessage == "" {
				return fmt.Errorf("conversation %q interaction %d: missing user_message", conv.ID, j)
			}
			if interaction.ID == "" {
				interaction.ID = uuid.NewString()
			}
		}
	}
	return nil
}
