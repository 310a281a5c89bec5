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

package openai

import (
	"log/slog"

	"github.com/poiesic/lakechain/ai"
	"golang.org/x/sync/semaphore"
)

// Provider implements ai.Provider on OpenAI-compatible services. The
// embedder and generator share one concurrency limit.
type Provider struct {
	embedder  *Embedder
	generator *Generator
	logger    *slog.Logger
}

// NewProvider validates config and creates the embedder and generator.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	limit := semaphore.NewWeighted(int64(config.MaxConcurrency))

	embedder, err := newEmbedder(config, limit)
	if err != nil {
		return nil, err
	}
	generator, err := newGenerator(config, limit)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("provider ready",
		"embeddingHost", config.EmbeddingHost,
		"generationHost", config.GenerationHost,
		"maxConcurrency", config.MaxConcurrency)

	return &Provider{
		embedder:  embedder,
		generator: generator,
		logger:    logger,
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the text generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close implements ai.Provider. The HTTP clients hold no resources.
func (p *Provider) Close() error {
	return nil
}
