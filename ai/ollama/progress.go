// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ollama

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
)

// pullTracker reports model pull progress at a bounded rate.
type pullTracker struct {
	logger       *slog.Logger
	interval     time.Duration
	startTime    time.Time
	lastReported time.Time
	status       string
	completed    int64
	total        int64
	started      bool
	mu           sync.Mutex
}

func newPullTracker(logger *slog.Logger, interval time.Duration) *pullTracker {
	return &pullTracker{
		logger:   logger,
		interval: interval,
	}
}

// Start begins tracking progress.
func (p *pullTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.lastReported = p.startTime
	p.started = true
}

// Update records a progress event from the pull stream. Its signature
// matches api.PullProgressFunc.
func (p *pullTracker) Update(resp api.ProgressResponse) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return nil
	}

	statusChanged := resp.Status != p.status
	p.status = resp.Status
	p.completed = resp.Completed
	p.total = resp.Total

	if statusChanged || time.Since(p.lastReported) >= p.interval {
		p.report()
		p.lastReported = time.Now()
	}
	return nil
}

// Finish logs the total pull time.
func (p *pullTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.logger.Info("model pull complete", "elapsed", time.Since(p.startTime).Round(time.Millisecond))
}

// report logs the current progress. Must be called with lock held.
func (p *pullTracker) report() {
	if p.total <= 0 {
		p.logger.Info("pull progress", "status", p.status)
		return
	}
	percentage := float64(p.completed) / float64(p.total) * 100.0
	p.logger.Info("pull progress",
		"status", p.status,
		"completed", p.completed,
		"total", p.total,
		"percent", int(percentage))
}
