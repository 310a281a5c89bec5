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

package layers

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	highlightColor = color.NRGBA{R: 255, A: 255}
	landmarkColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// pixelBlocks is the number of blocks per side of a pixelated area.
const pixelBlocks = 10

// Box is a bounding box relative to the image dimensions.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a landmark position relative to the image dimensions.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Entity is a detected face, object or text area.
type Entity struct {
	BoundingBox Box     `json:"boundingBox"`
	Name        string  `json:"name,omitempty"`
	Landmarks   []Point `json:"landmarks,omitempty"`
}

// rect converts a relative box to pixel coordinates within bounds.
func (b Box) rect(bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	left := bounds.Min.X + int(b.Left*w)
	top := bounds.Min.Y + int(b.Top*h)
	r := image.Rect(left, top, left+int(b.Width*w), top+int(b.Height*h))
	return r.Intersect(bounds)
}

func diagonal(bounds image.Rectangle) float64 {
	return math.Hypot(float64(bounds.Dx()), float64(bounds.Dy()))
}

// pixelate replaces the area under box with a grid of mean colored blocks.
func pixelate(img *image.NRGBA, box Box) {
	r := box.rect(img.Bounds())
	if r.Empty() {
		return
	}
	w, h := r.Dx(), r.Dy()
	for i := 1; i <= pixelBlocks; i++ {
		for j := 1; j <= pixelBlocks; j++ {
			block := image.Rect(
				r.Min.X+(j-1)*w/pixelBlocks, r.Min.Y+(i-1)*h/pixelBlocks,
				r.Min.X+j*w/pixelBlocks, r.Min.Y+i*h/pixelBlocks,
			)
			if block.Empty() {
				continue
			}
			draw.Draw(img, block, image.NewUniform(mean(img, block)), image.Point{}, draw.Src)
		}
	}
}

func mean(img *image.NRGBA, r image.Rectangle) color.NRGBA {
	var sr, sg, sb, sa, n int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			sr += int(c.R)
			sg += int(c.G)
			sb += int(c.B)
			sa += int(c.A)
			n++
		}
	}
	return color.NRGBA{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n), A: uint8(sa / n)}
}

// highlight outlines box and writes the optional label above it. The line
// thickness grows with the image size.
func highlight(img *image.NRGBA, box Box, label string) {
	bounds := img.Bounds()
	r := box.rect(bounds)
	if r.Empty() {
		return
	}
	thickness := max(1, int(diagonal(bounds)*0.0005))
	src := image.NewUniform(highlightColor)
	sides := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, side := range sides {
		draw.Draw(img, side.Intersect(r), src, image.Point{}, draw.Src)
	}

	if label == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  src,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(r.Min.X, max(r.Min.Y-4, basicfont.Face7x13.Ascent)),
	}
	d.DrawString(label)
}

// point draws a filled disc centered on p.
func point(img *image.NRGBA, p Point, c color.NRGBA) {
	bounds := img.Bounds()
	cx := bounds.Min.X + int(p.X*float64(bounds.Dx()))
	cy := bounds.Min.Y + int(p.Y*float64(bounds.Dy()))
	radius := int(diagonal(bounds) * 0.001)
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			if (image.Point{X: x, Y: y}).In(bounds) {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}
