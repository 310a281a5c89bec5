package textsplit

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/lakechain/core"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
	"github.com/poiesic/lakechain/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	text := strings.Repeat("alpha beta gamma delta\n\n", 10)
	doc, err := store.Put(ctx, "input", "a.txt", []byte(text), "text/plain")
	require.NoError(t, err)

	env := &processors.Env{Service: "text-splitter", Store: store, TargetBucket: "target"}
	p, err := New(env, Config{ChunkSize: 50, ChunkOverlap: 0})
	require.NoError(t, err)

	event := core.NewEvent("chain-1", doc)
	event.Data.Metadata["title"] = "source"
	out, err := middleware.Collect(ctx, p, event)
	require.NoError(t, err)
	require.Greater(t, len(out), 1)

	for i, e := range out {
		key := fmt.Sprintf("chain-1/text-splitter-%s-%d.txt", doc.ETag, i)
		assert.Equal(t, "s3://target/"+key, e.Document().URL)
		assert.Equal(t, "text/plain", e.Document().Type)
		assert.Equal(t, "source", e.Metadata().String("title"))

		obj, ok := store.Object("target", key)
		require.True(t, ok)
		assert.LessOrEqual(t, len([]rune(string(obj.Data))), 50)

		chunk := e.Metadata().Attrs()["chunk"].(map[string]any)
		assert.Equal(t, core.ChunkID(string(obj.Data)), chunk["id"])
		assert.EqualValues(t, i, chunk["order"])
		assert.Equal(t, core.KindText, e.Metadata().Kind())
	}

	// The input event is not mutated by the fan-out.
	assert.Equal(t, doc, event.Document())
	assert.False(t, event.Metadata().HasAttr("chunk"))
}

func TestSplitShortText(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	doc, err := store.Put(ctx, "input", "a.txt", []byte("tiny"), "text/plain")
	require.NoError(t, err)

	p, err := New(&processors.Env{Service: "s", Store: store, TargetBucket: "target"}, DefaultConfig())
	require.NoError(t, err)
	out, err := middleware.Collect(ctx, p, core.NewEvent("c", doc))
	require.NoError(t, err)
	require.Len(t, out, 1)

	chunk := out[0].Metadata().Attrs()["chunk"].(map[string]any)
	assert.Equal(t, core.ChunkID("tiny"), chunk["id"])
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{ChunkSize: 0}.Validate(), processors.ErrInvalidEnv)
	assert.ErrorIs(t, Config{ChunkSize: 10, ChunkOverlap: 10}.Validate(), processors.ErrInvalidEnv)
}

func TestRejectsNonText(t *testing.T) {
	p, err := New(&processors.Env{Service: "s", Store: memory.New(), TargetBucket: "t"}, DefaultConfig())
	require.NoError(t, err)
	_, err = middleware.Collect(context.Background(), p,
		core.NewEvent("c", core.Document{URL: "s3://b/k", Type: "application/pdf"}))
	assert.ErrorIs(t, err, processors.ErrUnsupportedType)
}
