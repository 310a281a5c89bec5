package synthesize

import (
	"context"
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

func newProcessor(t *testing.T, store *memory.Store, config Config) (*Processor, *mock.MockSynthesizer) {
	t.Helper()
	synth := mock.NewMockSynthesizer()
	p, err := New(&processors.Env{Service: "tts", Store: store, TargetBucket: "target"}, synth, config)
	require.NoError(t, err)
	p.pick = func(n int) int { return n - 1 }
	return p, synth
}

func TestVoiceSelection(t *testing.T) {
	p, _ := newProcessor(t, memory.New(), Config{
		VoiceMapping: map[string][]string{"en": {"alloy", "echo"}, "fr": {"nova"}},
		DefaultVoice: "shimmer",
	})

	voice, err := p.Voice(core.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "echo", voice)

	voice, err = p.Voice(core.Metadata{"language": "fr"})
	require.NoError(t, err)
	assert.Equal(t, "nova", voice)

	voice, err = p.Voice(core.Metadata{"language": "ja"})
	require.NoError(t, err)
	assert.Equal(t, "shimmer", voice)

	p.config.LanguageOverride = "fr"
	voice, err = p.Voice(core.Metadata{"language": "en"})
	require.NoError(t, err)
	assert.Equal(t, "nova", voice)

	p.config.DefaultVoice = ""
	p.config.LanguageOverride = "ja"
	_, err = p.Voice(core.Metadata{})
	assert.ErrorIs(t, err, ErrNoVoice)
}

func TestProcess(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	doc, err := store.Put(ctx, "input", "a.txt", []byte("Bonjour"), "text/plain")
	require.NoError(t, err)

	p, synth := newProcessor(t, store, Config{VoiceMapping: map[string][]string{"fr": {"nova"}}})
	event := core.NewEvent("chain-1", doc)
	event.Data.Metadata["language"] = "fr"

	out, err := middleware.Collect(ctx, p, event)
	require.NoError(t, err)
	require.Len(t, out, 1)

	key := "chain-1/" + doc.ETag
	assert.Equal(t, "s3://target/"+key, out[0].Document().URL)
	assert.Equal(t, "audio/mpeg", out[0].Document().Type)
	obj, ok := store.Object("target", key)
	require.True(t, ok)
	assert.Equal(t, "nova:Bonjour", string(obj.Data))
	assert.Equal(t, ai.AudioMP3, synth.Requests()[0].Format)
}

func TestProcessWithoutVoiceFails(t *testing.T) {
	store := memory.New()
	doc, err := store.Put(context.Background(), "input", "a.txt", []byte("hi"), "text/plain")
	require.NoError(t, err)
	p, synth := newProcessor(t, store, Config{})

	_, err = middleware.Collect(context.Background(), p, core.NewEvent("c", doc))
	assert.ErrorIs(t, err, ErrNoVoice)
	assert.Empty(t, synth.Requests())
}

func TestParseVoiceMapping(t *testing.T) {
	m, err := ParseVoiceMapping(`{"en":["alloy"]}`)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"en": {"alloy"}}, m)

	m, err = ParseVoiceMapping("")
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = ParseVoiceMapping("[")
	assert.ErrorIs(t, err, processors.ErrInvalidEnv)
}
