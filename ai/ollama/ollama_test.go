package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/lakechain/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOllama struct {
	mu        sync.Mutex
	models    map[string]bool
	pulls     []string
	generates []map[string]any
	inFlight  atomic.Int32
	peak      atomic.Int32
	delay     time.Duration
}

func newFakeOllama(t *testing.T, models ...string) (*fakeOllama, *httptest.Server) {
	t.Helper()
	f := &fakeOllama{models: map[string]bool{}}
	for _, m := range models {
		f.models[m] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeOllama) handle(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	model, _ := body["model"].(string)

	switch r.URL.Path {
	case "/api/show":
		f.mu.Lock()
		ok := f.models[model]
		f.mu.Unlock()
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"error":"model '%s' not found"}`, model)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"modelfile":"FROM x","parameters":"","template":""}`)
	case "/api/pull":
		f.mu.Lock()
		f.pulls = append(f.pulls, model)
		f.models[model] = true
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"status":"pulling manifest"}`)
		fmt.Fprintln(w, `{"status":"downloading","digest":"sha256:abc","total":100,"completed":50}`)
		fmt.Fprintln(w, `{"status":"downloading","digest":"sha256:abc","total":100,"completed":100}`)
		fmt.Fprintln(w, `{"status":"success"}`)
	case "/api/embed":
		inputs, _ := body["input"].([]any)
		vectors := make([][]float32, len(inputs))
		for i := range inputs {
			vectors[i] = []float32{float32(i), 1}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"model": model, "embeddings": vectors})
	case "/api/generate":
		n := f.inFlight.Add(1)
		for {
			peak := f.peak.Load()
			if n <= peak || f.peak.CompareAndSwap(peak, n) {
				break
			}
		}
		time.Sleep(f.delay)
		f.inFlight.Add(-1)

		f.mu.Lock()
		f.generates = append(f.generates, body)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/x-ndjson")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    model,
			"response": " generated text ",
			"done":     true,
		})
	default:
		http.NotFound(w, r)
	}
}

func TestNewClientRejectsBadHost(t *testing.T) {
	_, err := NewClient("localhost", 1)
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)
}

func TestEnsureModel(t *testing.T) {
	ctx := context.Background()

	t.Run("present model is not pulled", func(t *testing.T) {
		f, srv := newFakeOllama(t, "llava")
		client, err := NewClient(srv.URL+"/v1", 1)
		require.NoError(t, err)

		require.NoError(t, client.EnsureModel(ctx, "llava"))
		assert.Empty(t, f.pulls)
	})

	t.Run("missing model is pulled once", func(t *testing.T) {
		f, srv := newFakeOllama(t)
		client, err := NewClient(srv.URL, 1, WithProgressInterval(time.Millisecond))
		require.NoError(t, err)

		require.NoError(t, client.EnsureModel(ctx, "qwen2.5:3b"))
		require.NoError(t, client.EnsureModel(ctx, "qwen2.5:3b"))
		assert.Equal(t, []string{"qwen2.5:3b"}, f.pulls)
	})
}

func TestEmbedder(t *testing.T) {
	_, srv := newFakeOllama(t, "nomic-embed-text")
	client, err := NewClient(srv.URL, 2)
	require.NoError(t, err)

	e := NewEmbedder(client, "nomic-embed-text")
	assert.Equal(t, "nomic-embed-text", e.Model())

	vectors, err := e.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{2, 1}, vectors[2])

	vector, err := e.EmbedText(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vector)

	empty, err := e.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGenerator(t *testing.T) {
	f, srv := newFakeOllama(t, "llava")
	client, err := NewClient(srv.URL, 1)
	require.NoError(t, err)

	g := NewGenerator(client, "llava")
	out, err := g.Generate(context.Background(), ai.GenerateRequest{
		System:    "caption",
		Prompt:    "describe",
		Images:    []ai.Image{{Data: []byte("img")}},
		JSON:      true,
		MaxTokens: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, "generated text", out)

	require.Len(t, f.generates, 1)
	req := f.generates[0]
	assert.Equal(t, "describe", req["prompt"])
	assert.Equal(t, "caption", req["system"])
	assert.Equal(t, "json", req["format"])
	assert.Equal(t, false, req["stream"])
	assert.Len(t, req["images"], 1)
	assert.EqualValues(t, 64, req["options"].(map[string]any)["num_predict"])
}

func TestGeneratorConcurrencyLimit(t *testing.T) {
	f, srv := newFakeOllama(t, "qwen")
	f.delay = 20 * time.Millisecond
	client, err := NewClient(srv.URL, 2)
	require.NoError(t, err)

	g := NewGenerator(client, "qwen")
	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Generate(context.Background(), ai.GenerateRequest{Prompt: "x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, f.peak.Load(), int32(2))
	assert.Len(t, f.generates, 6)
}

func TestProvider(t *testing.T) {
	f, srv := newFakeOllama(t)
	cfg := ai.NewConfig(
		ai.WithHost(srv.URL),
		ai.WithEmbeddingModel("embed"),
		ai.WithGenerationModel("gen"),
	)

	p, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	defer p.Close()

	assert.ElementsMatch(t, []string{"embed", "gen"}, f.pulls)
	assert.NotNil(t, p.Embedder())
	assert.NotNil(t, p.Generator())
}
