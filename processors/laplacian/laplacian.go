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

// Package laplacian scores image sharpness with the variance of the
// Laplacian. Low variances indicate blurry images.
package laplacian

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
)

// gaussian3x3 is the binomial approximation of a 3x3 Gaussian blur.
var gaussian3x3 = [9]float64{
	1, 2, 1,
	2, 4, 2,
	1, 2, 1,
}

var kernels = map[int][3][3]float64{
	1: {{0, 1, 0}, {1, -4, 1}, {0, 1, 0}},
	3: {{2, 0, 2}, {0, -8, 0}, {2, 0, 2}},
}

// Processor stores the Laplacian variance of images in attrs.variance.
type Processor struct {
	env        *processors.Env
	kernelSize int
	logger     *slog.Logger
}

var _ middleware.Processor = (*Processor)(nil)

// New creates a Laplacian variance processor. Supported kernel sizes are 1
// and 3; zero selects 3.
func New(env *processors.Env, kernelSize int) (*Processor, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if kernelSize == 0 {
		kernelSize = 3
	}
	if _, ok := kernels[kernelSize]; !ok {
		return nil, fmt.Errorf("%w: unsupported kernel size %d", processors.ErrInvalidEnv, kernelSize)
	}
	return &Processor{env: env, kernelSize: kernelSize, logger: env.Log("laplacian")}, nil
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
	variance := Variance(img, p.kernelSize)
	p.logger.Debug("laplacian computed", "url", doc.URL, "variance", variance)

	err = event.Data.Metadata.MergeMissing(core.Properties(core.KindImage, map[string]any{"variance": variance}))
	if err != nil {
		return err
	}
	return emit.Emit(ctx, event)
}

// Variance returns the variance of the Laplacian of the denoised grayscale
// image. kernelSize must be 1 or 3.
func Variance(img image.Image, kernelSize int) float64 {
	kernel, ok := kernels[kernelSize]
	if !ok {
		kernel = kernels[3]
	}
	gray := denoise(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		x, y = reflect101(x, w), reflect101(y, h)
		return float64(gray.Pix[y*gray.Stride+x*4])
	}

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					if k := kernel[ky+1][kx+1]; k != 0 {
						v += k * at(x+kx, y+ky)
					}
				}
			}
			sum += v
			sumSq += v * v
		}
	}
	n := float64(w * h)
	mean := sum / n
	return sumSq/n - mean*mean
}

// denoise converts img to grayscale and smooths it with a normalized 3x3
// Gaussian kernel.
func denoise(img image.Image) *image.NRGBA {
	return imaging.Convolve3x3(imaging.Grayscale(img), gaussian3x3, &imaging.ConvolveOptions{Normalize: true})
}

// reflect101 mirrors out of range coordinates without repeating the edge.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*n - i - 2
	}
	return i
}
