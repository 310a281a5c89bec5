package speech

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/lakechain/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	path   string
	form   map[string]string
	file   []byte
	speech map[string]any
}

func newServer(t *testing.T) (*captured, *httptest.Server) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		switch r.URL.Path {
		case "/v1/audio/transcriptions":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			c.form = map[string]string{}
			for k, v := range r.MultipartForm.Value {
				c.form[k] = v[0]
			}
			f, _, err := r.FormFile("file")
			require.NoError(t, err)
			c.file, _ = io.ReadAll(f)

			if c.form["response_format"] == "json" {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"text":"hello world"}`))
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhello world\n"))
		case "/v1/audio/speech":
			_ = json.NewDecoder(r.Body).Decode(&c.speech)
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("ID3-fake-mp3"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return c, srv
}

func newClient(t *testing.T, host string) *Client {
	t.Helper()
	cfg := ai.NewConfig(ai.WithSpeechHost(host), ai.WithAPIKey("sk-test"))
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestTranscribe(t *testing.T) {
	got, srv := newServer(t)
	c := newClient(t, srv.URL)

	t.Run("vtt", func(t *testing.T) {
		out, err := c.Transcribe(t.Context(), ai.TranscribeRequest{
			Audio:    []byte("fake-audio"),
			Filename: "talks/intro.mp3",
			Language: "en",
		})
		require.NoError(t, err)
		assert.Contains(t, string(out), "WEBVTT")
		assert.Equal(t, "/v1/audio/transcriptions", got.path)
		assert.Equal(t, "vtt", got.form["response_format"])
		assert.Equal(t, "whisper-1", got.form["model"])
		assert.Equal(t, "en", got.form["language"])
		assert.Equal(t, []byte("fake-audio"), got.file)
	})

	t.Run("json", func(t *testing.T) {
		out, err := c.Transcribe(t.Context(), ai.TranscribeRequest{
			Audio:    []byte("x"),
			Filename: "a.wav",
			Format:   ai.TranscriptJSON,
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"text":"hello world"}`, string(out))
	})
}

func TestSynthesize(t *testing.T) {
	got, srv := newServer(t)
	c := newClient(t, srv.URL)

	audio, err := c.Synthesize(t.Context(), ai.SynthesizeRequest{Text: "bonjour", Speed: 1.25})
	require.NoError(t, err)
	assert.Equal(t, "ID3-fake-mp3", string(audio))
	assert.Equal(t, "/v1/audio/speech", got.path)
	assert.Equal(t, "bonjour", got.speech["input"])
	assert.Equal(t, DefaultVoice, got.speech["voice"])
	assert.Equal(t, "tts-1", got.speech["model"])
	assert.Equal(t, "mp3", got.speech["response_format"])
	assert.Equal(t, 1.25, got.speech["speed"])
}

func TestNewValidates(t *testing.T) {
	_, err := New(&ai.Config{})
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)
}
