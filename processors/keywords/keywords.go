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

// Package keywords extracts the key phrases of text documents.
//
// Phrases are ranked by the cosine similarity between their embedding and
// the embedding of the text they come from. Long documents are split into
// sentence chunks first; the best phrases across chunks are stored in
// metadata.keywords.
package keywords

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

// Config holds the keyword extraction settings.
type Config struct {
	// TopN is the number of keywords kept. Default: 5
	TopN int

	// MaxWords is the maximum number of words in a phrase. Default: 1
	MaxWords int

	// UseMaxSum picks the TopN least similar phrases among the Candidates
	// most relevant ones. Default: true
	UseMaxSum bool

	// Candidates is the pool size of max sum selection. Default: 20
	Candidates int

	// UseMMR selects with maximal marginal relevance instead of max sum.
	UseMMR bool

	// Diversity weighs redundancy against relevance in MMR, between 0 and 1.
	// Default: 0.5
	Diversity float64

	// ChunkSize is the maximum byte length of a sentence chunk. Default: 2000
	ChunkSize int
}

// DefaultConfig returns the default extraction settings.
func DefaultConfig() Config {
	return Config{
		TopN:       5,
		MaxWords:   1,
		UseMaxSum:  true,
		Candidates: 20,
		Diversity:  0.5,
		ChunkSize:  2000,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TopN < 1 {
		return fmt.Errorf("%w: top n must be positive", processors.ErrInvalidEnv)
	}
	if c.UseMaxSum && c.Candidates < c.TopN {
		return fmt.Errorf("%w: candidates (%d) must be at least top n (%d)", processors.ErrInvalidEnv, c.Candidates, c.TopN)
	}
	if c.Diversity < 0 || c.Diversity > 1 {
		return fmt.Errorf("%w: diversity must be between 0 and 1", processors.ErrInvalidEnv)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be positive", processors.ErrInvalidEnv)
	}
	return nil
}

// Processor stores the keywords of text documents in their metadata.
type Processor struct {
	env       *processors.Env
	extractor *extractor
	logger    *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a keyword processor.
func New(env *processors.Env, embedder ai.Embedder, config Config) (*Processor, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", processors.ErrInvalidEnv)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Processor{
		env:       env,
		extractor: &extractor{embedder: embedder, config: config},
		logger:    env.Log("keywords"),
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

	found, err := p.Extract(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to extract keywords from %s: %w", doc.URL, err)
	}

	phrases := make([]string, 0, len(found))
	for _, k := range found {
		phrases = append(phrases, k.Phrase)
	}
	event.Data.Metadata["keywords"] = phrases
	p.logger.Debug("keywords extracted", "url", doc.URL, "keywords", phrases)
	return emit.Emit(ctx, event)
}

// Extract returns the best keywords of text across all of its chunks.
func (p *Processor) Extract(ctx context.Context, text string) ([]Keyword, error) {
	var found []Keyword
	for _, c := range chunk(text, p.extractor.config.ChunkSize) {
		keywords, err := p.extractor.extract(ctx, c)
		if err != nil {
			return nil, err
		}
		found = append(found, keywords...)
	}
	return merge(found, p.extractor.config.TopN), nil
}
