package textgen

import (
	"bytes"
	"context"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/ai/mock"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
	"github.com/poiesic/lakechain/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(store *memory.Store) *processors.Env {
	return &processors.Env{Service: "ollama-processor", Store: store, TargetBucket: "target"}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.White), imaging.PNG))
	return buf.Bytes()
}

func TestTextDocument(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	doc, err := store.Put(ctx, "input", "a.txt", []byte("The quick brown fox."), "text/plain")
	require.NoError(t, err)

	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, req ai.GenerateRequest) (string, error) {
		return "summary of: " + req.Prompt, nil
	}
	p, err := New(newEnv(store), gen, Config{Prompt: "Summarize"})
	require.NoError(t, err)

	out, err := middleware.Collect(ctx, p, core.NewEvent("chain", doc))
	require.NoError(t, err)
	require.Len(t, out, 1)

	reqs := gen.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Summarize", reqs[0].System)
	assert.Equal(t, "The quick brown fox.", reqs[0].Prompt)
	assert.Empty(t, reqs[0].Images)

	result := out[0].Document()
	assert.Equal(t, "s3://target/ollama-processor/"+doc.ETag, result.URL)
	assert.Equal(t, "text/plain", result.Type)
	obj, ok := store.Object("target", "ollama-processor/"+doc.ETag)
	require.True(t, ok)
	assert.Equal(t, "summary of: The quick brown fox.", string(obj.Data))
}

func TestImageDocument(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	doc, err := store.Put(ctx, "input", "a.png", pngBytes(t, 4, 4), "image/png")
	require.NoError(t, err)

	gen := mock.NewMockGenerator()
	p, err := New(newEnv(store), gen, Config{Prompt: "What is this?"})
	require.NoError(t, err)

	out, err := middleware.Collect(ctx, p, core.NewEvent("chain", doc))
	require.NoError(t, err)
	require.Len(t, out, 1)

	reqs := gen.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "What is this?", reqs[0].Prompt)
	assert.Empty(t, reqs[0].System)
	require.Len(t, reqs[0].Images, 1)
	assert.Equal(t, "image/png", reqs[0].Images[0].MimeType)

	obj, ok := store.Object("target", "ollama-processor/"+doc.ETag)
	require.True(t, ok)
	assert.Equal(t, "[1 image(s)] What is this?", string(obj.Data))
}

func TestUnsupportedType(t *testing.T) {
	store := memory.New()
	p, err := New(newEnv(store), mock.NewMockGenerator(), Config{Prompt: "x"})
	require.NoError(t, err)

	event := core.NewEvent("chain", core.Document{URL: "s3://input/a.pdf", Type: "application/pdf"})
	_, err = middleware.Collect(context.Background(), p, event)
	assert.ErrorIs(t, err, processors.ErrUnsupportedType)
}

func TestPromptRequired(t *testing.T) {
	_, err := New(newEnv(memory.New()), mock.NewMockGenerator(), Config{})
	assert.ErrorIs(t, err, ErrPromptRequired)
}

func TestCaption(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	doc, err := store.Put(ctx, "input", "cat.png", pngBytes(t, 6, 3), "image/png")
	require.NoError(t, err)

	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, req ai.GenerateRequest) (string, error) {
		return "a white square", nil
	}
	env := &processors.Env{Service: "captioner", Store: store}
	p, err := New(env, gen, Config{Caption: true})
	require.NoError(t, err)

	out, err := middleware.Collect(ctx, p, core.NewEvent("chain", doc))
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, DefaultCaptionPrompt, gen.Requests()[0].Prompt)
	result := out[0]
	assert.Equal(t, doc, result.Document())
	assert.Equal(t, "a white square", result.Metadata().String("description"))
	assert.Equal(t, core.KindImage, result.Metadata().Kind())
	dims := result.Metadata().Attrs()["dimensions"].(map[string]any)
	assert.EqualValues(t, 6, dims["width"])
	assert.EqualValues(t, 3, dims["height"])
	assert.Equal(t, 1, store.Len())
}

func TestCaptionRejectsText(t *testing.T) {
	env := &processors.Env{Service: "captioner", Store: memory.New()}
	p, err := New(env, mock.NewMockGenerator(), Config{Caption: true})
	require.NoError(t, err)

	event := core.NewEvent("chain", core.Document{URL: "s3://input/a.txt", Type: "text/plain"})
	_, err = middleware.Collect(context.Background(), p, event)
	assert.ErrorIs(t, err, processors.ErrUnsupportedType)
}
