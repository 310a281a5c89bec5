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

// Package synthesize converts text documents into speech.
package synthesize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path"
	"strings"

	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

// DefaultLanguage is used when neither an override nor the document
// metadata names a language.
const DefaultLanguage = "en"

// ErrNoVoice indicates no voice is configured for the document language.
var ErrNoVoice = errors.New("no voice available")

// Config holds the synthesis settings.
type Config struct {
	// LanguageOverride forces the language used to select a voice.
	LanguageOverride string

	// VoiceMapping lists candidate voices per language. One is picked at
	// random for each document.
	VoiceMapping map[string][]string

	// DefaultVoice is used for languages missing from VoiceMapping.
	DefaultVoice string

	Format ai.AudioFormat
	Speed  float64
}

// ParseVoiceMapping decodes a JSON object of language to voice lists.
func ParseVoiceMapping(raw string) (map[string][]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var mapping map[string][]string
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		return nil, fmt.Errorf("%w: malformed voice mapping: %w", processors.ErrInvalidEnv, err)
	}
	return mapping, nil
}

// Processor replaces text documents with synthesized speech.
type Processor struct {
	env         *processors.Env
	synthesizer ai.Synthesizer
	config      Config
	pick        func(n int) int
	logger      *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a speech synthesis processor.
func New(env *processors.Env, synthesizer ai.Synthesizer, config Config) (*Processor, error) {
	if err := env.RequireTarget(); err != nil {
		return nil, err
	}
	if synthesizer == nil {
		return nil, fmt.Errorf("%w: synthesizer is required", processors.ErrInvalidEnv)
	}
	format, err := ai.ParseAudioFormat(string(config.Format))
	if err != nil {
		return nil, err
	}
	config.Format = format
	return &Processor{
		env:         env,
		synthesizer: synthesizer,
		config:      config,
		pick:        rand.IntN,
		logger:      env.Log("synthesize"),
	}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if err := processors.Require(doc, core.IsText); err != nil {
		return err
	}
	voice, err := p.Voice(event.Metadata())
	if err != nil {
		return fmt.Errorf("%s: %w", doc.URL, err)
	}
	text, err := p.env.LoadText(ctx, doc)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: %s", processors.ErrEmptyDocument, doc.URL)
	}

	audio, err := p.synthesizer.Synthesize(ctx, ai.SynthesizeRequest{
		Text:   text,
		Voice:  voice,
		Format: p.config.Format,
		Speed:  p.config.Speed,
	})
	if err != nil {
		return fmt.Errorf("failed to synthesize %s: %w", doc.URL, err)
	}

	key := path.Join(event.Data.ChainID, doc.ETag)
	stored, err := p.env.Put(ctx, key, audio, p.config.Format.MimeType())
	if err != nil {
		return err
	}
	p.logger.Debug("speech synthesized", "url", doc.URL, "voice", voice)
	return emit.Emit(ctx, event.WithDocument(stored))
}

// Language returns the language used to select a voice.
func (p *Processor) Language(meta core.Metadata) string {
	if p.config.LanguageOverride != "" {
		return p.config.LanguageOverride
	}
	if lang := meta.Language(); lang != "" {
		return lang
	}
	return DefaultLanguage
}

// Voice selects a voice for a document with the given metadata.
func (p *Processor) Voice(meta core.Metadata) (string, error) {
	lang := p.Language(meta)
	if voices := p.config.VoiceMapping[lang]; len(voices) > 0 {
		return voices[p.pick(len(voices))], nil
	}
	if p.config.DefaultVoice != "" {
		return p.config.DefaultVoice, nil
	}
	return "", fmt.Errorf("%w for language %q", ErrNoVoice, lang)
}
