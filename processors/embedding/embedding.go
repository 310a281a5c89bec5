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

// Package embedding stores a vector embedding of text documents.
//
// The vector is uploaded as a JSON array to {service}/{etag} in the cache
// bucket and referenced from properties.attrs.embeddings. The current
// document of the event is left unchanged.
package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

// Processor embeds text documents.
type Processor struct {
	env      *processors.Env
	embedder ai.Embedder
	model    string
	logger   *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates an embedding processor. model is recorded in the metadata;
// when empty, the name reported by the embedder's Model method is used.
func New(env *processors.Env, embedder ai.Embedder, model string) (*Processor, error) {
	if err := env.RequireCache(); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", processors.ErrInvalidEnv)
	}
	if model == "" {
		if named, ok := embedder.(interface{ Model() string }); ok {
			model = named.Model()
		}
	}
	return &Processor{
		env:      env,
		embedder: embedder,
		model:    model,
		logger:   env.Log("embedding"),
	}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if err := processors.Require(doc, core.IsText); err != nil {
		return err
	}

	text, err := p.env.LoadText(ctx, doc)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("%w: %s", processors.ErrEmptyDocument, doc.URL)
	}

	vector, err := p.embedder.EmbedText(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed %s: %w", doc.URL, err)
	}

	body, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	stored, err := p.env.PutCache(ctx, path.Join(p.env.Service, doc.ETag), body, "application/json")
	if err != nil {
		return err
	}

	err = event.Data.Metadata.SetAttr(core.KindText, "embeddings", map[string]any{
		"vectors":    stored.URL,
		"model":      p.model,
		"dimensions": len(vector),
	})
	if err != nil {
		return err
	}

	p.logger.Debug("document embedded", "url", doc.URL, "dimensions", len(vector))
	return emit.Emit(ctx, event)
}
