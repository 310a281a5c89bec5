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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/lakechain/ai"
	"golang.org/x/sync/semaphore"
)

// DefaultProgressInterval is the minimum time between pull progress log lines.
const DefaultProgressInterval = 5 * time.Second

// Client wraps the Ollama API with model management and a concurrency limit.
type Client struct {
	api              *api.Client
	httpClient       *http.Client
	sem              *semaphore.Weighted
	progressInterval time.Duration
	logger           *slog.Logger

	mu    sync.Mutex
	ready map[string]bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used to reach the server.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithProgressInterval sets how often pull progress is logged.
func WithProgressInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.progressInterval = d
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With("component", "ollama")
	}
}

// NewClient creates a client for the server at host (e.g. "http://localhost:11434").
// At most maxConcurrency requests are in flight at any time.
func NewClient(host string, maxConcurrency int, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(ai.NativeHost(host))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ollama host %q: %w", ai.ErrInvalidConfig, host, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid ollama host %q", ai.ErrInvalidConfig, host)
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	c := &Client{
		httpClient:       http.DefaultClient,
		sem:              semaphore.NewWeighted(int64(maxConcurrency)),
		progressInterval: DefaultProgressInterval,
		logger:           slog.Default().With("component", "ollama"),
		ready:            make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = api.NewClient(base, c.httpClient)
	return c, nil
}

// EnsureModel makes sure model is available on the server, pulling it if needed.
// Successful checks are cached for the lifetime of the client.
func (c *Client) EnsureModel(ctx context.Context, model string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready[model] {
		return nil
	}

	_, err := c.api.Show(ctx, &api.ShowRequest{Model: model})
	if err == nil {
		c.ready[model] = true
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("checking model %s: %w", model, err)
	}

	c.logger.Info("pulling model", "model", model)
	tracker := newPullTracker(c.logger.With("model", model), c.progressInterval)
	tracker.Start()
	if err := c.api.Pull(ctx, &api.PullRequest{Model: model}, tracker.Update); err != nil {
		return fmt.Errorf("%w: pulling %s: %w", ai.ErrModelUnavailable, model, err)
	}
	tracker.Finish()

	c.ready[model] = true
	return nil
}

// acquire blocks until a request slot is free or ctx is done.
func (c *Client) acquire(ctx context.Context) (func(), error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { c.sem.Release(1) }, nil
}

func isNotFound(err error) bool {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusNotFound
	}
	return false
}
