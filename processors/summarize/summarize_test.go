package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/ai/mock"
	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
	"github.com/poiesic/lakechain/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	text := "Intro line.\n+----+\n| a | b |\n╒══╕\n[1] ref\n  Body\ttext  here.\n"
	assert.Equal(t, "Intro line. Body text here.", Clean(text))
}

func TestSummarizeSingleChunk(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	doc, err := store.Put(ctx, "input", "a.txt", []byte("Some   text.\n| table |\nMore text."), "text/plain")
	require.NoError(t, err)

	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, req ai.GenerateRequest) (string, error) {
		return " summary(" + req.Prompt + ") ", nil
	}
	env := &processors.Env{Service: "summarizer", Store: store, TargetBucket: "target"}
	p, err := New(env, gen, Config{})
	require.NoError(t, err)

	out, err := middleware.Collect(ctx, p, core.NewEvent("chain-1", doc))
	require.NoError(t, err)
	require.Len(t, out, 1)

	reqs := gen.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, DefaultPrompt, reqs[0].System)
	assert.Equal(t, DefaultSummarySize, reqs[0].MaxTokens)
	assert.Equal(t, "Some text. More text.", reqs[0].Prompt)

	assert.Equal(t, "s3://target/chain-1/"+doc.ETag+".txt", out[0].Document().URL)
	obj, ok := store.Object("target", "chain-1/"+doc.ETag+".txt")
	require.True(t, ok)
	assert.Equal(t, "summary(Some text. More text.)", string(obj.Data))
}

func TestSummarizeChunks(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, req ai.GenerateRequest) (string, error) {
		return "S", nil
	}
	env := &processors.Env{Service: "summarizer", Store: memory.New(), TargetBucket: "target"}
	p, err := New(env, gen, Config{ChunkSize: 50})
	require.NoError(t, err)

	text := strings.Repeat("This is a sentence. ", 20)
	summary, err := p.Summarize(context.Background(), text)
	require.NoError(t, err)

	n := gen.CallCount()
	assert.Greater(t, n, 1)
	for _, req := range gen.Requests() {
		assert.LessOrEqual(t, len([]rune(req.Prompt)), 50)
	}
	assert.Equal(t, strings.TrimSuffix(strings.Repeat("S\n\n", n), "\n\n"), summary)
}

func TestSummarizeEmpty(t *testing.T) {
	env := &processors.Env{Service: "summarizer", Store: memory.New(), TargetBucket: "target"}
	p, err := New(env, mock.NewMockGenerator(), DefaultConfig())
	require.NoError(t, err)

	_, err = p.Summarize(context.Background(), "| only | a | table |\n")
	assert.ErrorIs(t, err, processors.ErrEmptyDocument)
}

func TestSummarizeGeneratorError(t *testing.T) {
	boom := errors.New("boom")
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, req ai.GenerateRequest) (string, error) {
		return "", boom
	}
	env := &processors.Env{Service: "summarizer", Store: memory.New(), TargetBucket: "target"}
	p, err := New(env, gen, DefaultConfig())
	require.NoError(t, err)

	_, err = p.Summarize(context.Background(), "text")
	assert.ErrorIs(t, err, boom)
}
