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

// Package summarize produces an abstractive summary of text documents.
//
// Long documents are cleaned, split into chunks that fit the model context
// and summarized chunk by chunk. The partial summaries are joined with blank
// lines and stored as {chainId}/{etag}.txt.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize   = 4000
	DefaultSummarySize = 1024
	DefaultPrompt      = "Summarize the text provided by the user. " +
		"Answer with the summary only, in the language of the text."
)

// tableMarkers start lines that belong to tables, box drawings or
// truncated references. Such lines are dropped before summarizing.
var tableMarkers = []string{"+", "╒", "│", "╘", "╞", "├", "|", "[", "]", "…"}

// Config holds the summarizer settings.
type Config struct {
	// ChunkSize is the maximum number of runes sent to the model at once.
	ChunkSize int

	// SummarySize caps the tokens generated for each chunk.
	SummarySize int

	// Prompt is the system prompt.
	Prompt string
}

// DefaultConfig returns the default summarizer settings.
func DefaultConfig() Config {
	return Config{
		ChunkSize:   DefaultChunkSize,
		SummarySize: DefaultSummarySize,
		Prompt:      DefaultPrompt,
	}
}

// Processor summarizes text documents.
type Processor struct {
	env       *processors.Env
	generator ai.Generator
	config    Config
	splitter  textsplitter.RecursiveCharacter
	logger    *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a summarizer. Zero config values take their defaults.
func New(env *processors.Env, generator ai.Generator, config Config) (*Processor, error) {
	if err := env.RequireTarget(); err != nil {
		return nil, err
	}
	if generator == nil {
		return nil, fmt.Errorf("%w: generator is required", processors.ErrInvalidEnv)
	}
	defaults := DefaultConfig()
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaults.ChunkSize
	}
	if config.SummarySize <= 0 {
		config.SummarySize = defaults.SummarySize
	}
	if config.Prompt == "" {
		config.Prompt = defaults.Prompt
	}

	return &Processor{
		env:       env,
		generator: generator,
		config:    config,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChunkSize),
			textsplitter.WithChunkOverlap(0),
			textsplitter.WithSeparators([]string{". ", "? ", "! ", " ", ""}),
			textsplitter.WithKeepSeparator(true),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		),
		logger: env.Log("summarize"),
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

	summary, err := p.Summarize(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to summarize %s: %w", doc.URL, err)
	}

	key := path.Join(event.Data.ChainID, doc.ETag+".txt")
	out, err := p.env.Put(ctx, key, []byte(summary), "text/plain")
	if err != nil {
		return err
	}
	return emit.Emit(ctx, event.WithDocument(out))
}

// Summarize cleans text and summarizes it chunk by chunk.
func (p *Processor) Summarize(ctx context.Context, text string) (string, error) {
	cleaned := Clean(text)
	if cleaned == "" {
		return "", processors.ErrEmptyDocument
	}
	chunks, err := p.splitter.SplitText(cleaned)
	if err != nil {
		return "", err
	}

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		p.logger.Debug("summarizing chunk", "chunk", i+1, "chunks", len(chunks))
		summary, err := p.generator.Generate(ctx, ai.GenerateRequest{
			System:    p.config.Prompt,
			Prompt:    chunk,
			MaxTokens: p.config.SummarySize,
		})
		if err != nil {
			return "", err
		}
		summaries = append(summaries, strings.TrimSpace(summary))
	}
	return strings.Join(summaries, "\n\n"), nil
}

// Clean drops table and box drawing lines, then collapses whitespace.
func Clean(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !isTableLine(line) {
			kept = append(kept, line)
		}
	}
	return processors.NormalizeSpace(strings.Join(kept, "\n"))
}

func isTableLine(line string) bool {
	for _, marker := range tableMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}
