package transcribe

import (
	"context"
	"errors"
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

func TestTranscribeDefaultsToVTT(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	doc, err := store.Put(ctx, "input", "podcasts/episode-1.mp3", []byte("audio"), "audio/mpeg")
	require.NoError(t, err)

	transcriber := mock.NewMockTranscriber()
	p, err := New(&processors.Env{Service: "whisper", Store: store, TargetBucket: "target"}, transcriber, Config{})
	require.NoError(t, err)

	event := core.NewEvent("c", doc)
	event.Data.Metadata["language"] = "fr"
	out, err := middleware.Collect(ctx, p, event)
	require.NoError(t, err)
	require.Len(t, out, 1)

	key := "transcriptions/episode-1-transcript.vtt"
	assert.Equal(t, "s3://target/"+key, out[0].Document().URL)
	assert.Equal(t, "text/vtt", out[0].Document().Type)
	obj, ok := store.Object("target", key)
	require.True(t, ok)
	assert.Contains(t, string(obj.Data), "WEBVTT")

	reqs := transcriber.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "fr", reqs[0].Language)
	assert.Equal(t, "episode-1.mp3", reqs[0].Filename)
	assert.Equal(t, ai.TranscriptVTT, reqs[0].Format)
}

func TestTranscribeFormatAndLanguage(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	doc, err := store.Put(ctx, "input", "talk.wav", []byte("audio"), "audio/wav")
	require.NoError(t, err)

	transcriber := mock.NewMockTranscriber()
	p, err := New(&processors.Env{Service: "whisper", Store: store, TargetBucket: "target"}, transcriber,
		Config{Format: ai.TranscriptText, Language: "de"})
	require.NoError(t, err)

	out, err := middleware.Collect(ctx, p, core.NewEvent("c", doc))
	require.NoError(t, err)
	assert.Equal(t, "s3://target/transcriptions/talk-transcript.txt", out[0].Document().URL)
	assert.Equal(t, "text/plain", out[0].Document().Type)
	assert.Equal(t, "de", transcriber.Requests()[0].Language)
}

func TestTranscribeErrors(t *testing.T) {
	store := memory.New()
	env := &processors.Env{Service: "whisper", Store: store, TargetBucket: "target"}

	_, err := New(env, nil, Config{})
	assert.ErrorIs(t, err, processors.ErrInvalidEnv)
	_, err = New(env, mock.NewMockTranscriber(), Config{Format: "docx"})
	assert.Error(t, err)

	transcriber := mock.NewMockTranscriber()
	transcriber.TranscribeFunc = func(context.Context, ai.TranscribeRequest) ([]byte, error) {
		return nil, errors.New("model offline")
	}
	p, err := New(env, transcriber, Config{})
	require.NoError(t, err)
	doc, err := store.Put(context.Background(), "input", "a.mp3", []byte("x"), "audio/mpeg")
	require.NoError(t, err)
	_, err = middleware.Collect(context.Background(), p, core.NewEvent("c", doc))
	assert.ErrorContains(t, err, "model offline")

	_, err = middleware.Collect(context.Background(), p,
		core.NewEvent("c", core.Document{URL: "s3://b/k", Type: "text/plain"}))
	assert.ErrorIs(t, err, processors.ErrUnsupportedType)
}
