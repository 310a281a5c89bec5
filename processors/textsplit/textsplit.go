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

// Package textsplit splits text documents into overlapping chunks.
package textsplit

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
	"github.com/tmc/langchaingo/textsplitter"
)

// Config holds the splitter settings. Sizes are counted in runes.
type Config struct {
	ChunkSize    int
	ChunkOverlap int

	// Separators are tried in order; "" splits between runes.
	Separators []string
}

// DefaultConfig returns the default splitter settings.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    4000,
		ChunkOverlap: 200,
		Separators:   []string{"\n\n", "\n", " ", ""},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be positive", processors.ErrInvalidEnv)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", processors.ErrInvalidEnv)
	}
	return nil
}

// Processor emits one event per chunk.
type Processor struct {
	env      *processors.Env
	splitter textsplitter.TextSplitter
	logger   *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a text splitter processor.
func New(env *processors.Env, config Config) (*Processor, error) {
	if err := env.RequireTarget(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(config.Separators) == 0 {
		config.Separators = DefaultConfig().Separators
	}
	return &Processor{
		env: env,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
			textsplitter.WithSeparators(config.Separators),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		),
		logger: env.Log("textsplit"),
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

	chunks, err := p.splitter.SplitText(text)
	if err != nil {
		return fmt.Errorf("failed to split %s: %w", doc.URL, err)
	}

	order := 0
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		if err := p.emitChunk(ctx, event, chunk, order, emit); err != nil {
			return err
		}
		order++
	}
	p.logger.Debug("document split", "url", doc.URL, "chunks", order)
	return nil
}

func (p *Processor) emitChunk(ctx context.Context, event *core.Event, chunk string, order int, emit middleware.Emitter) error {
	out, err := event.Clone()
	if err != nil {
		return err
	}
	key := path.Join(event.Data.ChainID, fmt.Sprintf("text-splitter-%s-%d.txt", event.Document().ETag, order))
	stored, err := p.env.Put(ctx, key, []byte(chunk), "text/plain")
	if err != nil {
		return err
	}
	out.WithDocument(stored)

	err = out.Data.Metadata.SetAttr(core.KindText, "chunk", map[string]any{
		"id":    core.ChunkID(chunk),
		"order": order,
	})
	if err != nil {
		return err
	}
	return emit.Emit(ctx, out)
}
