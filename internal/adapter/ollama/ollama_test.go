package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestEmbedderEncode(t *testing.T) {
	t.Run("posts model and input, returns embeddings", func(t *testing.T) {
		var got embedRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/embed", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintln(w, `{"embeddings":[[0.1,0.2],[0.3,0.4]]}`)
		}))
		defer server.Close()

		e := NewEmbedder(server.URL, "nomic-embed-text", 0, testLogger())
		vectors, err := e.Encode(context.Background(), []string{"first", "second"})
		require.NoError(t, err)

		assert.Equal(t, "nomic-embed-text", got.Model)
		assert.Equal(t, []string{"first", "second"}, got.Input)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
		assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprintln(w, `{"embeddings":[[0.1,0.2]]}`)
		}))
		defer server.Close()

		e := NewEmbedder(server.URL, "nomic-embed-text", 0, testLogger())
		_, err := e.Encode(context.Background(), []string{"first", "second"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 embeddings for 2 texts")
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		e := NewEmbedder(server.URL, "nomic-embed-text", 0, testLogger())
		_, err := e.Encode(context.Background(), []string{"first"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestGeneratorGenerate(t *testing.T) {
	t.Run("sends prompt with options, trims response", func(t *testing.T) {
		var got chatRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/chat", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintln(w, `{"message":{"content":"  The court held X.  "},"done":true}`)
		}))
		defer server.Close()

		g := NewGenerator(server.URL, "qwen2.5:14b", 0, testLogger())
		resp, err := g.Generate(context.Background(), "question with context", 512)
		require.NoError(t, err)

		assert.Equal(t, "qwen2.5:14b", got.Model)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "user", got.Messages[0].Role)
		assert.Equal(t, "question with context", got.Messages[0].Content)
		assert.False(t, got.Stream)
		assert.InDelta(t, generationTemperature, got.Options["temperature"], 1e-9)
		assert.EqualValues(t, 512, got.Options["num_predict"])

		assert.Equal(t, "The court held X.", resp.Text)
		assert.True(t, resp.Done)
	})

	t.Run("omits num_predict when max tokens is zero", func(t *testing.T) {
		var got chatRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = fmt.Fprintln(w, `{"message":{"content":"ok"},"done":true}`)
		}))
		defer server.Close()

		g := NewGenerator(server.URL, "qwen2.5:14b", 0, testLogger())
		_, err := g.Generate(context.Background(), "prompt", 0)
		require.NoError(t, err)
		_, ok := got.Options["num_predict"]
		assert.False(t, ok)
	})

	t.Run("non-200 includes body in error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, `{"error":"model not found"}`)
		}))
		defer server.Close()

		g := NewGenerator(server.URL, "missing-model", 0, testLogger())
		_, err := g.Generate(context.Background(), "prompt", 128)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model not found")
	})
}
