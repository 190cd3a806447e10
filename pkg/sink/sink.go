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

// Package sink persists batch results. The envelope is written verbatim;
// the sink never reshapes or drops fields.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/levelapp/internal/log"
	"github.com/teradata-labs/levelapp/pkg/types"
)

// Sink receives completed batch results.
type Sink interface {
	WriteBatchResult(ctx context.Context, name string, result types.BatchResult) error
}

// FileSink writes each result as a timestamped JSON document in a
// directory.
type FileSink struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

var _ Sink = (*FileSink)(nil)

// NewFileSink creates the sink directory if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sink dir: %w", err)
	}
	return &FileSink{dir: dir, logger: log.Named("sink"), now: time.Now}, nil
}

// WriteBatchResult persists one result document.
func (s *FileSink) WriteBatchResult(ctx context.Context, name string, result types.BatchResult) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	filename := fmt.Sprintf("%s-%s.json", name, s.now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	s.logger.Info("batch result written", zap.String("path", path))
	return nil
}

// NopSink discards results.
type NopSink struct{}

var _ Sink = NopSink{}

func (NopSink) WriteBatchResult(ctx context.Context, name string, result types.BatchResult) error {
	return nil
}
