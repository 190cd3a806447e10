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

package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/teradata-labs/levelapp/pkg/types"
)

// ProbeTimeout is the hard wall-clock budget for verifier external
// probes.
const ProbeTimeout = 2 * time.Second

// Authorizer decides whether a project may prepare workflows. A nil
// error authorizes.
type Authorizer func(ctx context.Context, projectID string) error

// AllowAll authorizes every non-empty project id.
func AllowAll(ctx context.Context, projectID string) error {
	if projectID == "" {
		return fmt.Errorf("empty project id")
	}
	return nil
}

// Verifier probes the prerequisites of one workflow type. Checks run in a
// fixed order and failures accumulate; only the authorization check
// short-circuits.
type Verifier interface {
	Verify(ctx context.Context, projectID string, seed map[string]any) types.VerificationResult
}

// verification accumulates check outcomes.
type verification struct {
	result types.VerificationResult
}

func (v *verification) ok(name string) {
	v.result.Checks = append(v.result.Checks, types.CheckResult{Name: name, Status: types.CheckOK})
}

func (v *verification) fail(name string, code types.ErrorCode, detail string) {
	v.result.Checks = append(v.result.Checks, types.CheckResult{Name: name, Status: types.CheckFail, Detail: detail})
	v.result.Reasons = append(v.result.Reasons, detail)
	v.result.Codes = append(v.result.Codes, code)
}

func (v *verification) warn(name, detail string) {
	v.result.Checks = append(v.result.Checks, types.CheckResult{Name: name, Status: types.CheckWarn, Detail: detail})
}

func (v *verification) finish() types.VerificationResult {
	v.result.Ready = len(v.result.Codes) == 0
	if v.result.Checks == nil {
		v.result.Checks = []types.CheckResult{}
	}
	if v.result.Reasons == nil {
		v.result.Reasons = []string{}
	}
	if v.result.Codes == nil {
		v.result.Codes = []types.ErrorCode{}
	}
	return v.result
}

// probeClient is shared by all verifiers; the timeout is the probe
// budget.
var probeClient = &http.Client{Timeout: ProbeTimeout}

// headProbe HEADs a URL under the probe budget. ok2xx3xx accepts
// redirects as healthy; otherwise only 200 passes.
func headProbe(ctx context.Context, url string, ok2xx3xx bool) error {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("bad probe url: %w", err)
	}
	resp, err := probeClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if ok2xx3xx {
		if resp.StatusCode >= 200 && resp.StatusCode < 400 {
			return nil
		}
	} else if resp.StatusCode == http.StatusOK {
		return nil
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}

// GenerationVerifier checks generation-workflow prerequisites:
// authorization, judge provider keys, optional endpoint reachability.
type GenerationVerifier struct {
	Authorize    Authorizer
	HasProviders func() bool
}

var _ Verifier = (*GenerationVerifier)(nil)

func (g *GenerationVerifier) Verify(ctx context.Context, projectID string, seed map[string]any) types.VerificationResult {
	var v verification
	auth := g.Authorize
	if auth == nil {
		auth = AllowAll
	}
	if err := auth(ctx, projectID); err != nil {
		v.fail("authorization", types.CodePermissionDenied, err.Error())
		return v.finish()
	}
	v.ok("authorization")

	if g.HasProviders != nil && !g.HasProviders() {
		v.fail("provider_keys", types.CodeConfigMissing, "no judge provider configured")
	} else {
		v.ok("provider_keys")
	}

	if endpoint, ok := seed["endpoint"].(string); ok && endpoint != "" {
		if err := headProbe(ctx, endpoint, true); err != nil {
			v.fail("endpoint_reachable", types.CodeConnectivityError, fmt.Sprintf("endpoint %s: %v", endpoint, err))
		} else {
			v.ok("endpoint_reachable")
		}
	}
	return v.finish()
}

// RAGVerifier checks rag-workflow prerequisites: authorization, source
// page reachability, pipeline availability.
type RAGVerifier struct {
	Authorize Authorizer
}

var _ Verifier = (*RAGVerifier)(nil)

func (r *RAGVerifier) Verify(ctx context.Context, projectID string, seed map[string]any) types.VerificationResult {
	var v verification
	auth := r.Authorize
	if auth == nil {
		auth = AllowAll
	}
	if err := auth(ctx, projectID); err != nil {
		v.fail("authorization", types.CodePermissionDenied, err.Error())
		return v.finish()
	}
	v.ok("authorization")

	if sourceURL, ok := seed["source_url"].(string); ok && sourceURL != "" {
		if err := headProbe(ctx, sourceURL, false); err != nil {
			v.fail("source_reachable", types.CodeConnectivityError, fmt.Sprintf("source %s: %v", sourceURL, err))
		} else {
			v.ok("source_reachable")
		}
	}

	// The scrape and metric stages are compiled in, so availability is a
	// constant check kept for parity with the checks list.
	v.ok("pipeline_available")
	return v.finish()
}

// ExtractionVerifier always reports not ready. Extraction workflows are a
// declared surface without an implementation behind them yet.
type ExtractionVerifier struct{}

var _ Verifier = (*ExtractionVerifier)(nil)

func (ExtractionVerifier) Verify(ctx context.Context, projectID string, seed map[string]any) types.VerificationResult {
	var v verification
	v.fail("extraction_backend", types.CodeResourceUnavailable, "extraction workflow not implemented")
	return v.finish()
}
