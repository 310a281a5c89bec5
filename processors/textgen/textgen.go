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

// Package textgen runs a generative model over text and image documents.
//
// In the default mode the model answer becomes a new text/plain document
// stored at {service}/{etag}. In caption mode, images keep flowing down the
// chain and the answer is stored as metadata.description instead.
package textgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

// DefaultCaptionPrompt is used in caption mode when no prompt is configured.
const DefaultCaptionPrompt = "Describe this image in a single short sentence."

// ErrPromptRequired is returned when a text generation processor has no prompt.
var ErrPromptRequired = errors.New("prompt is required")

// Config holds the textgen processor settings.
type Config struct {
	// Prompt is the instruction sent to the model. For text documents it is
	// the system prompt and the document is the user prompt. For images it
	// is the user prompt.
	Prompt string

	// Caption stores the answer in metadata.description instead of
	// emitting a new document. Only images are accepted in this mode.
	Caption bool

	// Temperature is the sampling temperature.
	Temperature float64

	// MaxTokens caps the answer length. Zero leaves the model default.
	MaxTokens int
}

// Processor generates text with an ai.Generator.
type Processor struct {
	env       *processors.Env
	generator ai.Generator
	config    Config
	logger    *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a text generation processor.
func New(env *processors.Env, generator ai.Generator, config Config) (*Processor, error) {
	if config.Caption {
		if err := env.Validate(); err != nil {
			return nil, err
		}
		if config.Prompt == "" {
			config.Prompt = DefaultCaptionPrompt
		}
	} else {
		if err := env.RequireTarget(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(config.Prompt) == "" {
			return nil, ErrPromptRequired
		}
	}
	if generator == nil {
		return nil, fmt.Errorf("%w: generator is required", processors.ErrInvalidEnv)
	}
	return &Processor{
		env:       env,
		generator: generator,
		config:    config,
		logger:    env.Log("textgen"),
	}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if p.config.Caption {
		return p.caption(ctx, event, emit)
	}

	req, err := p.request(ctx, doc)
	if err != nil {
		return err
	}
	answer, err := p.generator.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate text for %s: %w", doc.URL, err)
	}

	out, err := p.env.Put(ctx, path.Join(p.env.Service, doc.ETag), []byte(answer), "text/plain")
	if err != nil {
		return err
	}
	p.logger.Debug("text generated", "url", doc.URL, "output", out.URL)
	return emit.Emit(ctx, event.WithDocument(out))
}

func (p *Processor) request(ctx context.Context, doc core.Document) (ai.GenerateRequest, error) {
	if err := processors.Require(doc, core.IsText, core.IsImage); err != nil {
		return ai.GenerateRequest{}, err
	}
	data, err := p.env.Load(ctx, doc)
	if err != nil {
		return ai.GenerateRequest{}, err
	}

	req := ai.GenerateRequest{
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}
	if core.IsText(doc.Type) {
		req.System = p.config.Prompt
		req.Prompt = string(data)
	} else {
		req.Prompt = p.config.Prompt
		req.Images = []ai.Image{{Data: data, MimeType: doc.Type}}
	}
	return req, nil
}

func (p *Processor) caption(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if err := processors.Require(doc, core.IsImage); err != nil {
		return err
	}
	data, err := p.env.Load(ctx, doc)
	if err != nil {
		return err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", doc.URL, err)
	}

	description, err := p.generator.Generate(ctx, ai.GenerateRequest{
		Prompt:      p.config.Prompt,
		Images:      []ai.Image{{Data: data, MimeType: doc.Type}},
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to caption %s: %w", doc.URL, err)
	}

	metadata := &event.Data.Metadata
	if description != "" {
		(*metadata)["description"] = description
	}
	kind := metadata.Kind()
	if kind == "" {
		kind = core.KindImage
	}
	bounds := img.Bounds()
	err = metadata.SetAttr(kind, "dimensions", map[string]any{
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
	})
	if err != nil {
		return err
	}
	return emit.Emit(ctx, event)
}
