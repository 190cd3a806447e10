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
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/levelapp/pkg/types"
)

// fakeJudge returns scripted verdicts or errors, one per call.
type fakeJudge struct {
	name    string
	rubric  string
	calls   atomic.Int64
	scripts []func() (map[string]any, error)
}

func (f *fakeJudge) Name() string { return f.name }

func (f *fakeJudge) BuildPrompt(userMessage, generated, expected string) string {
	return "judge: " + generated + " vs " + expected
}

func (f *fakeJudge) CallLLM(ctx context.Context, prompt string) (map[string]any, error) {
	n := int(f.calls.Add(1)) - 1
	if n >= len(f.scripts) {
		n = len(f.scripts) - 1
	}
	return f.scripts[n]()
}

func (f *fakeJudge) RubricTag() string { return f.rubric }

func fakeFactory(j *fakeJudge) Factory {
	return func(cfg types.EvaluationConfig) (Judge, error) { return j, nil }
}

func verdict(level int, justification string) func() (map[string]any, error) {
	return func() (map[string]any, error) {
		return map[string]any{"match_level": level, "justification": justification}, nil
	}
}

func newTestService(t *testing.T, j *fakeJudge) *Service {
	t.Helper()
	svc := NewService(map[string]Factory{j.name: fakeFactory(j)}, nil)
	require.NoError(t, svc.SetConfig(j.name, types.EvaluationConfig{ModelID: "test"}))
	return svc
}

func TestEvaluateResponseHappyPath(t *testing.T) {
	svc := newTestService(t, &fakeJudge{name: "openai", scripts: []func() (map[string]any, error){verdict(5, "exact")}})

	res, err := svc.EvaluateResponse(context.Background(), "openai", "Hi", "Hi", "Hello")
	require.NoError(t, err)

	assert.Equal(t, 5, res.MatchLevel)
	assert.Equal(t, "exact", res.Justification)
	assert.Equal(t, "Hi", res.Metadata["expected_key_point"])
	assert.Equal(t, "Hi", res.Metadata["generated_key_point"])
	assert.Equal(t, "Hello", res.Metadata["user_key_point"])
	assert.Equal(t, KeyPointMethod, res.Metadata["key_point_method"])
}

func TestEvaluateResponseUnknownProvider(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.EvaluateResponse(context.Background(), "nope", "a", "b", "")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestEvaluateResponseRetriesTransportErrors(t *testing.T) {
	transient := &net.DNSError{Err: "lookup failed", IsTimeout: true}
	j := &fakeJudge{name: "flaky", scripts: []func() (map[string]any, error){
		func() (map[string]any, error) { return nil, transient },
		verdict(4, "recovered"),
	}}
	svc := newTestService(t, j)

	res, err := svc.EvaluateResponse(context.Background(), "flaky", "x", "y", "")
	require.NoError(t, err)
	assert.Equal(t, 4, res.MatchLevel)
	assert.Equal(t, int64(2), j.calls.Load())
}

func TestEvaluateResponseDoesNotRetryProtocolErrors(t *testing.T) {
	j := &fakeJudge{name: "denied", scripts: []func() (map[string]any, error){
		func() (map[string]any, error) { return nil, &HTTPError{StatusCode: 401, Message: "unauthorized"} },
	}}
	svc := newTestService(t, j)

	res, err := svc.EvaluateResponse(context.Background(), "denied", "x", "y", "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.MatchLevel)
	assert.Contains(t, res.Metadata["error"], "HTTP 401")
	assert.Equal(t, int64(1), j.calls.Load())
}

func TestEvaluateResponseExhaustedRetries(t *testing.T) {
	transient := &net.DNSError{Err: "unreachable"}
	j := &fakeJudge{name: "down", scripts: []func() (map[string]any, error){
		func() (map[string]any, error) { return nil, transient },
	}}
	svc := newTestService(t, j)

	res, err := svc.EvaluateResponse(context.Background(), "down", "x", "y", "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.MatchLevel)
	assert.NotEmpty(t, res.Metadata["error"])
	assert.Equal(t, int64(3), j.calls.Load())
}

func TestEvaluateResponseClampsLegacyRubric(t *testing.T) {
	j := &fakeJudge{name: "legacy", rubric: "legacy_0_3", scripts: []func() (map[string]any, error){verdict(7, "over")}}
	svc := newTestService(t, j)

	res, err := svc.EvaluateResponse(context.Background(), "legacy", "x", "y", "")
	require.NoError(t, err)
	assert.Equal(t, 5, res.MatchLevel)
	assert.Equal(t, "legacy_0_3", res.Metadata["rubric"])
}

func TestEvaluateResponseInvalidVerdictShape(t *testing.T) {
	j := &fakeJudge{name: "weird", scripts: []func() (map[string]any, error){
		func() (map[string]any, error) { return map[string]any{"score": "high"}, nil },
	}}
	svc := newTestService(t, j)

	res, err := svc.EvaluateResponse(context.Background(), "weird", "x", "y", "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.MatchLevel)
	assert.NotEmpty(t, res.Metadata["error"])
}

func TestSetConfigRejectsUnknownFactoryWithoutFallback(t *testing.T) {
	svc := NewService(nil, nil)
	err := svc.SetConfig("mystery", types.EvaluationConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestIsTransportError(t *testing.T) {
	assert.True(t, IsTransportError(&net.DNSError{Err: "x"}))
	assert.True(t, IsTransportError(context.DeadlineExceeded))
	assert.False(t, IsTransportError(&HTTPError{StatusCode: 500}))
	assert.False(t, IsTransportError(errors.New("plain")))
	assert.False(t, IsTransportError(nil))
}
