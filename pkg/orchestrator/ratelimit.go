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
	"sync"
	"time"
)

// rateWindow is the rolling rate-limit window.
const rateWindow = 60 * time.Second

// RateLimiter enforces a per-project cap over a rolling 60-second window.
// Every prepare call counts against the bucket, rejected validation
// included.
type RateLimiter struct {
	mu      sync.Mutex
	cap     int
	buckets map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing cap calls per project per
// minute.
func NewRateLimiter(cap int) *RateLimiter {
	return &RateLimiter{
		cap:     cap,
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records one call for the project and reports whether it fits the
// window.
func (l *RateLimiter) Allow(projectID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-rateWindow)
	kept := l.buckets[projectID][:0]
	for _, t := range l.buckets[projectID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.cap {
		l.buckets[projectID] = kept
		return false
	}
	l.buckets[projectID] = append(kept, now)
	return true
}
