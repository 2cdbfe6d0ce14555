package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, Model: "test-model"}, opts...)
	return client, server
}

func respondWith(t *testing.T, text string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, generatePath, r.URL.Path)

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)

		json.NewEncoder(w).Encode(GenerateResponse{Response: text})
	}
}

func TestClient_Generate(t *testing.T) {
	client, _ := newTestClient(t, respondWith(t, "generated text"))

	text, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "generated text", text)
}

func TestClient_GenerateSendsModelAndOptions(t *testing.T) {
	var captured GenerateRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(GenerateResponse{Response: "ok"})
	})

	_, err := client.Generate(context.Background(), "hello",
		WithTemperature(0.3), WithMaxTokens(128))
	require.NoError(t, err)

	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, "hello", captured.Prompt)
	assert.Equal(t, 0.3, captured.Options.Temperature)
	assert.Equal(t, 128, captured.Options.NumPredict)
}

func TestClient_GenerateEmptyPrompt(t *testing.T) {
	client := NewClient(Config{})

	_, err := client.Generate(context.Background(), "")
	require.Error(t, err)
	assert.True(t, types.HasCode(err, ErrInvalidRequest))
	assert.False(t, IsRetryable(err))
}

func TestClient_GenerateServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, types.HasCode(err, ErrGenerationUnavailable))
	assert.True(t, IsUnavailable(err))
	assert.True(t, IsRetryable(err))
}

func TestClient_GenerateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing listens on this address anymore

	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.True(t, IsRetryable(err))
}

func TestClient_GenerateTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	client.config.Timeout = 50 * time.Millisecond

	_, err := client.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, types.HasCode(err, ErrNetworkTimeout))
	assert.True(t, IsRetryable(err))
}

func TestClient_GenerateUsesCache(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(GenerateResponse{Response: "cached answer"})
	}, WithCache(NewResponseCache(16, time.Minute)))

	for i := 0; i < 3; i++ {
		text, err := client.Generate(context.Background(), "same prompt")
		require.NoError(t, err)
		assert.Equal(t, "cached answer", text)
	}
	assert.Equal(t, int32(1), hits.Load(), "identical calls should hit the network once")

	// Different sampling parameters are a different cache entry.
	_, err := client.Generate(context.Background(), "same prompt", WithTemperature(0.1))
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_GenerateFailureNotCached(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(GenerateResponse{Response: "recovered"})
	}, WithCache(NewResponseCache(16, time.Minute)))

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)

	text, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_GenerateBatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Prompt == "fail" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(GenerateResponse{Response: "answer to " + req.Prompt})
	})

	results := client.GenerateBatch(context.Background(), []string{"one", "fail", "two"})
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "answer to one", results[0].Text)

	assert.Error(t, results[1].Err)
	assert.True(t, IsUnavailable(results[1].Err))

	// A failed sibling never affects the others.
	assert.NoError(t, results[2].Err)
	assert.Equal(t, "answer to two", results[2].Text)
}

func TestClient_InFlightBound(t *testing.T) {
	var current, max atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		now := current.Add(1)
		for {
			seen := max.Load()
			if now <= seen || max.CompareAndSwap(seen, now) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		current.Add(-1)
		json.NewEncoder(w).Encode(GenerateResponse{Response: "ok"})
	}

	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL, MaxInFlight: 2})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := client.Generate(context.Background(), fmt.Sprintf("prompt %d", n))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, max.Load(), int32(2), "in-flight requests must respect the bound")
}

func streamHandler(t *testing.T, frames ...string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, frame := range frames {
			fmt.Fprintln(w, frame)
			flusher.Flush()
		}
	}
}

func TestClient_StreamCollect(t *testing.T) {
	client, _ := newTestClient(t, streamHandler(t,
		`{"response": "Hello ", "done": false}`,
		`{"response": "world", "done": true, "eval_count": 42}`,
	))

	stream, err := client.Stream(context.Background(), "greet me")
	require.NoError(t, err)
	defer stream.Close()

	text, err := stream.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestClient_StreamChunkOrder(t *testing.T) {
	client, _ := newTestClient(t, streamHandler(t,
		`{"response": "a", "done": false}`,
		`{"response": "b", "done": false}`,
		`{"response": "c", "done": true, "eval_count": 7}`,
	))

	stream, err := client.Stream(context.Background(), "spell abc")
	require.NoError(t, err)
	defer stream.Close()

	ctx := context.Background()

	chunk, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", chunk.Text)
	assert.False(t, chunk.Done)

	chunk, err = stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", chunk.Text)

	chunk, err = stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", chunk.Text)
	assert.True(t, chunk.Done)
	assert.Equal(t, 7, chunk.EvalCount)

	_, err = stream.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestClient_StreamMalformedFrame(t *testing.T) {
	client, _ := newTestClient(t, streamHandler(t,
		`{"response": "ok so far", "done": false}`,
		`this is not json`,
	))

	stream, err := client.Stream(context.Background(), "prompt")
	require.NoError(t, err)
	defer stream.Close()

	_, err = stream.Collect(context.Background())
	require.Error(t, err)
	assert.True(t, types.HasCode(err, ErrStreamMalformed))
}

func TestClient_StreamEmptyPrompt(t *testing.T) {
	client := NewClient(Config{})

	_, err := client.Stream(context.Background(), "")
	require.Error(t, err)
	assert.True(t, types.HasCode(err, ErrInvalidRequest))
}

func TestClient_StreamCloseReleasesSlot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if !req.Stream {
			json.NewEncoder(w).Encode(GenerateResponse{Response: "after close"})
			return
		}

		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `{"response": "partial", "done": false}`)
		flusher.Flush()
		<-r.Context().Done() // hold the stream open until the client cancels
	}))
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL, MaxInFlight: 1})

	stream, err := client.Stream(context.Background(), "stream prompt")
	require.NoError(t, err)

	chunk, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "partial", chunk.Text)

	stream.Close()

	// With MaxInFlight=1 this only succeeds if Close released the slot.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	text, err := client.Generate(ctx, "buffered prompt")
	require.NoError(t, err)
	assert.Equal(t, "after close", text)
}

func TestClient_StreamConsumerCancel(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `{"response": "partial", "done": false}`)
		flusher.Flush()
		<-r.Context().Done()
	})

	stream, err := client.Stream(context.Background(), "prompt")
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())

	_, err = stream.Next(ctx)
	require.NoError(t, err)

	cancel()
	_, err = stream.Next(ctx)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, ErrContextCanceled))
	assert.False(t, IsRetryable(err))
}

func TestClient_ConfigDefaults(t *testing.T) {
	client := NewClient(Config{})

	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultModel, client.Model())
	assert.Equal(t, DefaultMaxInFlight, client.config.MaxInFlight)
	assert.Equal(t, DefaultTimeout, client.config.Timeout)
	assert.Nil(t, client.Cache())
}
