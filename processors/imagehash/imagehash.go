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

// Package imagehash computes perceptual hashes of images.
package imagehash

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

// MaxSide is the largest width or height hashed without downscaling.
const MaxSide = 1024

// Config toggles the computed hashes.
type Config struct {
	Average    bool
	Perceptual bool
	Difference bool
}

// DefaultConfig enables every hash.
func DefaultConfig() Config {
	return Config{Average: true, Perceptual: true, Difference: true}
}

// Processor stores image hashes in the document metadata.
type Processor struct {
	env    *processors.Env
	config Config
	logger *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates an image hash processor.
func New(env *processors.Env, config Config) (*Processor, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if !config.Average && !config.Perceptual && !config.Difference {
		return nil, fmt.Errorf("%w: at least one hash must be enabled", processors.ErrInvalidEnv)
	}
	return &Processor{env: env, config: config, logger: env.Log("imagehash")}, nil
}

// Process implements middleware.Processor.
func (p *Processor) Process(ctx context.Context, event *core.Event, emit middleware.Emitter) error {
	doc := event.Document()
	if err := processors.Require(doc, core.IsImage); err != nil {
		return err
	}
	img, err := p.env.LoadImage(ctx, doc)
	if err != nil {
		return err
	}
	hashes, err := Compute(img, p.config)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", doc.URL, err)
	}

	err = event.Data.Metadata.MergeMissing(core.Properties(core.KindImage, map[string]any{"hashes": hashes}))
	if err != nil {
		return err
	}
	return emit.Emit(ctx, event)
}

// Compute returns the enabled hashes of img as 16 hex digit strings.
func Compute(img image.Image, config Config) (map[string]string, error) {
	b := img.Bounds()
	if b.Dx() > MaxSide || b.Dy() > MaxSide {
		img = imaging.Fit(img, MaxSide, MaxSide, imaging.Lanczos)
	}

	hashes := map[string]string{}
	add := func(name string, fn func(image.Image) (*goimagehash.ImageHash, error)) error {
		h, err := fn(img)
		if err != nil {
			return fmt.Errorf("%s hash: %w", name, err)
		}
		hashes[name] = fmt.Sprintf("%016x", h.GetHash())
		return nil
	}
	if config.Average {
		if err := add("average", goimagehash.AverageHash); err != nil {
			return nil, err
		}
	}
	if config.Perceptual {
		if err := add("perceptual", goimagehash.PerceptionHash); err != nil {
			return nil, err
		}
	}
	if config.Difference {
		if err := add("difference", goimagehash.DifferenceHash); err != nil {
			return nil, err
		}
	}
	return hashes, nil
}
