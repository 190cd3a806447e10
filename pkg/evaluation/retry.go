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
	"fmt"
	"net"
	"net/url"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/levelapp/internal/log"
)

// HTTPError is a completed HTTP exchange with a non-2xx status. It is a
// protocol error, not a transport error, and is never retried.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

const (
	retryMaxAttempts = 3
	retryBase        = 1 * time.Second

	// JudgeBackoffCap bounds the per-attempt wait for judge calls.
	JudgeBackoffCap = 8 * time.Second
	// GenerationBackoffCap bounds the per-attempt wait for generation calls.
	GenerationBackoffCap = 10 * time.Second
)

// IsTransportError reports whether err is a network-level failure
// (connection, DNS, timeout, TLS). Protocol errors after a completed
// exchange return false.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// backoffDelay computes the wait before attempt n (1-based):
// min(max(2^(n-1) seconds, base), cap).
func backoffDelay(attempt int, capDelay time.Duration) time.Duration {
	d := retryBase << uint(attempt-1)
	if d < retryBase {
		d = retryBase
	}
	if d > capDelay {
		d = capDelay
	}
	return d
}

// CallWithRetry runs fn with exponential backoff, retrying transport
// errors only. Up to 3 attempts; the wait before retry n is
// min(max(2^(n-1)s, 1s), capDelay). The last error is returned when the
// budget is exhausted.
func CallWithRetry(ctx context.Context, name string, capDelay time.Duration, fn func(context.Context) (map[string]any, error)) (map[string]any, error) {
	var lastErr error
	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsTransportError(err) {
			return nil, err
		}
		if attempt == retryMaxAttempts {
			break
		}
		delay := backoffDelay(attempt, capDelay)
		log.Warn("judge call failed, retrying",
			zap.String("judge", name),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%s: retries exhausted: %w", name, lastErr)
}
