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

	"github.com/poiesic/lakechain/ai"
)

// Provider implements ai.Provider on the native Ollama API.
type Provider struct {
	embedder  *Embedder
	generator *Generator
}

// NewProvider validates config, connects to the generation host and makes
// sure both configured models are present, pulling them when missing.
func NewProvider(ctx context.Context, config *ai.Config, opts ...ClientOption) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	genClient, err := NewClient(config.GenerationHost, config.MaxConcurrency, opts...)
	if err != nil {
		return nil, err
	}
	embedClient := genClient
	if ai.NativeHost(config.EmbeddingHost) != ai.NativeHost(config.GenerationHost) {
		if embedClient, err = NewClient(config.EmbeddingHost, config.MaxConcurrency, opts...); err != nil {
			return nil, err
		}
	}

	err = errors.Join(
		embedClient.EnsureModel(ctx, config.EmbeddingModel),
		genClient.EnsureModel(ctx, config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Provider{
		embedder:  NewEmbedder(embedClient, config.EmbeddingModel),
		generator: NewGenerator(genClient, config.GenerationModel),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the text generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the HTTP client holds no per-provider resources.
func (p *Provider) Close() error {
	return nil
}
