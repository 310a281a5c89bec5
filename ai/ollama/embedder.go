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
	"log/slog"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/lakechain/ai"
)

// Embedder implements ai.Embedder with the Ollama embed endpoint.
type Embedder struct {
	client *Client
	model  string
	logger *slog.Logger
}

// NewEmbedder returns an embedder for model served by client.
func NewEmbedder(client *Client, model string) *Embedder {
	return &Embedder{
		client: client,
		model:  model,
		logger: client.logger.With("model", model),
	}
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.model
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for a batch of texts in one request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := e.client.EnsureModel(ctx, e.model); err != nil {
		return nil, err
	}

	release, err := e.client.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	e.logger.Debug("generating embeddings", "count", len(texts))
	resp, err := e.client.api.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, ai.ErrEmptyResponse
	}
	return resp.Embeddings, nil
}

var _ ai.Embedder = (*Embedder)(nil)
