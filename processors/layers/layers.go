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

// Package layers pixelates or highlights detected faces, objects and text
// areas on images.
package layers

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"path"

	"github.com/disintegration/imaging"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

// Operation is the transformation a filter applies.
type Operation string

const (
	Pixelate  Operation = "pixelate"
	Highlight Operation = "highlight"
)

// Args selects the layers a filter applies to. Landmarks only apply to
// highlights.
type Args struct {
	Faces     bool `json:"faces"`
	Objects   bool `json:"objects"`
	Text      bool `json:"text"`
	Landmarks bool `json:"landmarks"`
}

// Filter is one step of the layer pipeline.
type Filter struct {
	Op   Operation `json:"op"`
	Args Args      `json:"args"`
}

// ParseFilters decodes a JSON list of filters.
func ParseFilters(raw string) ([]Filter, error) {
	var filters []Filter
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, fmt.Errorf("%w: malformed filters: %w", processors.ErrInvalidEnv, err)
	}
	return filters, validate(filters)
}

func validate(filters []Filter) error {
	if len(filters) == 0 {
		return fmt.Errorf("%w: at least one filter is required", processors.ErrInvalidEnv)
	}
	for _, f := range filters {
		if f.Op != Pixelate && f.Op != Highlight {
			return fmt.Errorf("%w: unknown filter operation %q", processors.ErrInvalidEnv, f.Op)
		}
	}
	return nil
}

// Processor applies filters to images and stores the result.
type Processor struct {
	env     *processors.Env
	filters []Filter
	logger  *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a layer processor.
func New(env *processors.Env, filters []Filter) (*Processor, error) {
	if err := env.RequireTarget(); err != nil {
		return nil, err
	}
	if err := validate(filters); err != nil {
		return nil, err
	}
	return &Processor{env: env, filters: filters, logger: env.Log("layers")}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if err := processors.Require(doc, core.IsImage); err != nil {
		return err
	}
	src, err := p.env.LoadImage(ctx, doc)
	if err != nil {
		return err
	}
	layers := &entities{env: p.env, attrs: event.Metadata().Attrs(), loaded: map[string][]Entity{}}
	img := imaging.Clone(src)
	if err := p.apply(ctx, img, layers); err != nil {
		return err
	}

	data, contentType, err := processors.EncodeImage(img, doc.Type)
	if err != nil {
		return err
	}
	name := doc.Key()
	if name == "" {
		name = doc.Filename()
	}
	stored, err := p.env.Put(ctx, path.Join(doc.ETag, name), data, contentType)
	if err != nil {
		return err
	}
	return emit.Emit(ctx, event.WithDocument(stored))
}

func (p *Processor) apply(ctx context.Context, img *image.NRGBA, layers *entities) error {
	for _, f := range p.filters {
		for _, layer := range []struct {
			enabled bool
			attr    string
		}{
			{f.Args.Faces, "faces"},
			{f.Args.Objects, "objects"},
			{f.Args.Text, "text"},
		} {
			if !layer.enabled {
				continue
			}
			items, err := layers.get(ctx, layer.attr)
			if err != nil {
				return err
			}
			for _, item := range items {
				if f.Op == Pixelate {
					pixelate(img, item.BoundingBox)
					continue
				}
				label := ""
				if layer.attr == "objects" {
					label = item.Name
				}
				highlight(img, item.BoundingBox, label)
			}
		}
		if f.Op == Highlight && f.Args.Landmarks {
			faces, err := layers.get(ctx, "faces")
			if err != nil {
				return err
			}
			for _, face := range faces {
				for _, lm := range face.Landmarks {
					point(img, lm, landmarkColor)
				}
			}
		}
	}
	return nil
}

// entities loads the detections referenced by the document attributes once
// per event.
type entities struct {
	env    *processors.Env
	attrs  map[string]any
	loaded map[string][]Entity
}

func (e *entities) get(ctx context.Context, attr string) ([]Entity, error) {
	if items, ok := e.loaded[attr]; ok {
		return items, nil
	}
	url, _ := e.attrs[attr].(string)
	if url == "" {
		e.loaded[attr] = nil
		return nil, nil
	}
	data, err := e.env.Load(ctx, core.Document{URL: url})
	if err != nil {
		return nil, err
	}
	var items []Entity
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("malformed %s entities at %s: %w", attr, url, err)
	}
	e.loaded[attr] = items
	return items, nil
}
