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

// Package transcribe converts speech audio documents into transcripts.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

// Config holds the transcription settings.
type Config struct {
	Format ai.TranscriptFormat

	// Language is an optional ISO-639-1 hint. The document language is used
	// when empty.
	Language string

	Prompt string
}

// Processor replaces audio documents with their transcript.
type Processor struct {
	env         *processors.Env
	transcriber ai.Transcriber
	config      Config
	logger      *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a transcription processor.
func New(env *processors.Env, transcriber ai.Transcriber, config Config) (*Processor, error) {
	if err := env.RequireTarget(); err != nil {
		return nil, err
	}
	if transcriber == nil {
		return nil, fmt.Errorf("%w: transcriber is required", processors.ErrInvalidEnv)
	}
	format, err := ai.ParseTranscriptFormat(string(config.Format))
	if err != nil {
		return nil, err
	}
	config.Format = format
	return &Processor{env: env, transcriber: transcriber, config: config, logger: env.Log("transcribe")}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if err := processors.Require(doc, core.IsAudio, core.IsVideo); err != nil {
		return err
	}
	audio, err := p.env.Load(ctx, doc)
	if err != nil {
		return err
	}

	language := p.config.Language
	if language == "" {
		language = event.Metadata().Language()
	}
	transcript, err := p.transcriber.Transcribe(ctx, ai.TranscribeRequest{
		Audio:    audio,
		Filename: doc.Filename(),
		Language: language,
		Prompt:   p.config.Prompt,
		Format:   p.config.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to transcribe %s: %w", doc.URL, err)
	}

	stored, err := p.env.Put(ctx, OutputKey(doc, p.config.Format), transcript, p.config.Format.MimeType())
	if err != nil {
		return err
	}
	p.logger.Debug("audio transcribed", "url", doc.URL, "bytes", len(transcript))
	return emit.Emit(ctx, event.WithDocument(stored))
}

// OutputKey returns transcriptions/{name}-transcript.{ext} where name is the
// document file name without its extension.
func OutputKey(doc core.Document, format ai.TranscriptFormat) string {
	name := doc.Filename()
	name = strings.TrimSuffix(name, path.Ext(name))
	return path.Join("transcriptions", name+"-transcript."+format.Extension())
}
