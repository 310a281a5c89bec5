package layers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
	"github.com/poiesic/lakechain/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripes(w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.White)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x += 2 {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func TestPixelate(t *testing.T) {
	img := stripes(100, 100)
	pixelate(img, Box{Left: 0, Top: 0, Width: 0.5, Height: 0.5})

	// Each 5x5 block is filled with the mean of black and white columns.
	inside := img.NRGBAAt(2, 2)
	assert.Equal(t, inside, img.NRGBAAt(3, 3))
	assert.InDelta(t, 102, int(inside.R), 2)

	// Pixels outside the box are untouched.
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(60, 60))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(61, 60))
}

func TestHighlight(t *testing.T) {
	img := imaging.New(100, 100, color.White)
	highlight(img, Box{Left: 0.1, Top: 0.1, Width: 0.5, Height: 0.5}, "")
	assert.Equal(t, highlightColor, img.NRGBAAt(10, 10))
	assert.Equal(t, highlightColor, img.NRGBAAt(30, 10))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(30, 30))
}

func TestPointClipsToBounds(t *testing.T) {
	img := imaging.New(2000, 2000, color.Black)
	point(img, Point{X: 0, Y: 0}, landmarkColor)
	assert.Equal(t, landmarkColor, img.NRGBAAt(0, 0))
	assert.Equal(t, landmarkColor, img.NRGBAAt(1, 1))
	point(img, Point{X: 1, Y: 1}, landmarkColor)
}

func TestParseFilters(t *testing.T) {
	filters, err := ParseFilters(`[{"op":"pixelate","args":{"faces":true}},{"op":"highlight","args":{"objects":true,"landmarks":true}}]`)
	require.NoError(t, err)
	assert.Equal(t, []Filter{
		{Op: Pixelate, Args: Args{Faces: true}},
		{Op: Highlight, Args: Args{Objects: true, Landmarks: true}},
	}, filters)

	_, err = ParseFilters(`[{"op":"blur"}]`)
	assert.ErrorIs(t, err, processors.ErrInvalidEnv)
	_, err = ParseFilters(`[]`)
	assert.ErrorIs(t, err, processors.ErrInvalidEnv)
	_, err = ParseFilters(`{`)
	assert.ErrorIs(t, err, processors.ErrInvalidEnv)
}

func TestProcess(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, stripes(64, 64), imaging.PNG))
	doc, err := store.Put(ctx, "input", "photos/cat.png", buf.Bytes(), "image/png")
	require.NoError(t, err)

	faces, err := json.Marshal([]Entity{{
		BoundingBox: Box{Left: 0.25, Top: 0.25, Width: 0.5, Height: 0.5},
		Landmarks:   []Point{{X: 0.5, Y: 0.5}},
	}})
	require.NoError(t, err)
	facesDoc, err := store.Put(ctx, "cache", "faces.json", faces, "application/json")
	require.NoError(t, err)

	event := core.NewEvent("c", doc)
	require.NoError(t, event.Data.Metadata.SetAttr(core.KindImage, "faces", facesDoc.URL))

	p, err := New(&processors.Env{Service: "layers", Store: store, TargetBucket: "target"}, []Filter{
		{Op: Pixelate, Args: Args{Faces: true, Objects: true}},
		{Op: Highlight, Args: Args{Faces: true, Landmarks: true}},
	})
	require.NoError(t, err)

	out, err := middleware.Collect(ctx, p, event)
	require.NoError(t, err)
	require.Len(t, out, 1)

	key := doc.ETag + "/photos/cat.png"
	assert.Equal(t, "s3://target/"+key, out[0].Document().URL)
	assert.Equal(t, "image/png", out[0].Document().Type)

	obj, ok := store.Object("target", key)
	require.True(t, ok)
	result, err := imaging.Decode(bytes.NewReader(obj.Data))
	require.NoError(t, err)
	r, g, b, _ := result.At(16, 16).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestProcessJPEGFallback(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, stripes(16, 16), imaging.BMP))
	doc, err := store.Put(ctx, "input", "a.webp", buf.Bytes(), "image/webp")
	require.NoError(t, err)

	p, err := New(&processors.Env{Service: "layers", Store: store, TargetBucket: "target"},
		[]Filter{{Op: Pixelate, Args: Args{Faces: true}}})
	require.NoError(t, err)
	out, err := middleware.Collect(ctx, p, core.NewEvent("c", doc))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out[0].Document().Type)
}
