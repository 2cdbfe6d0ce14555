package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Client defaults.
const (
	DefaultBaseURL     = "http://localhost:11434"
	DefaultModel       = "llama3.2"
	DefaultMaxInFlight = 4
	DefaultTimeout     = 2 * time.Minute

	generatePath = "/api/generate"
)

// Config configures the generation client.
type Config struct {
	// BaseURL is the generation service endpoint root.
	BaseURL string

	// Model is the default model identifier sent with each request.
	Model string

	// MaxInFlight bounds the number of simultaneously in-flight network
	// calls. Requests beyond the bound queue in arrival order.
	MaxInFlight int

	// RequestsPerSecond paces request starts. Zero disables pacing.
	RequestsPerSecond float64

	// Timeout bounds a single buffered request. Streamed requests are
	// bounded by their context instead.
	Timeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// ClientOption configures optional client collaborators.
type ClientOption func(*Client)

// WithCache attaches a response cache consulted before buffered requests.
func WithCache(cache *ResponseCache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithMetrics attaches request instrumentation.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the pooled HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client talks to an external generation service over its fixed wire
// contract. It pools connections, enforces a FIFO bound on in-flight
// requests, paces request starts, records latency and error metrics, and
// consults an optional response cache for buffered calls.
//
// The client never retries internally. Failures surface as typed
// LLM_GENERATION_UNAVAILABLE (or network) errors; retry and fallback policy
// belongs to the caller.
type Client struct {
	config     Config
	httpClient *http.Client
	sem        *semaphore.Weighted
	limiter    *rate.Limiter
	cache      *ResponseCache
	metrics    *Metrics
	logger     *slog.Logger
}

// NewClient creates a generation client from config. Zero-value config fields
// fall back to package defaults.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	cfg.applyDefaults()

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        cfg.MaxInFlight * 2,
				MaxIdleConnsPerHost: cfg.MaxInFlight,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		sem:     semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		limiter: rate.NewLimiter(limit, 1),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "llm")
	return c
}

// Model returns the default model identifier used by this client.
func (c *Client) Model() string {
	return c.config.Model
}

// Cache returns the attached response cache, or nil.
func (c *Client) Cache() *ResponseCache {
	return c.cache
}

// Generate sends a buffered generation request and returns the full response
// text. The response cache, when attached, is consulted first and updated on
// success.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	if prompt == "" {
		return "", NewInvalidRequestError("prompt must not be empty")
	}

	options := ApplyOptions(opts...)

	var key string
	if c.cache != nil {
		key = CacheKey(prompt, c.config.Model, options)
		if text, ok := c.cache.Get(key); ok {
			c.metrics.recordCache(ctx, true)
			c.logger.Debug("prompt cache hit", "key", key[:12])
			return text, nil
		}
		c.metrics.recordCache(ctx, false)
	}

	if err := c.acquire(ctx); err != nil {
		return "", err
	}
	defer c.release(ctx)

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	text, err := c.doGenerate(reqCtx, prompt, options)
	c.metrics.recordRequest(ctx, c.config.Model, time.Since(start), err)
	if err != nil {
		c.logger.Debug("generation failed", "error", err)
		return "", err
	}

	if c.cache != nil {
		c.cache.Put(key, text)
	}
	return text, nil
}

// GenerateBatch answers multiple buffered prompts in one scheduling pass.
// Each prompt is still answered independently and a failed prompt never
// fails its siblings; per-prompt outcomes come back in input order.
func (c *Client) GenerateBatch(ctx context.Context, prompts []string, opts ...Option) []BatchResult {
	results := make([]BatchResult, len(prompts))

	var g errgroup.Group
	for i, prompt := range prompts {
		g.Go(func() error {
			text, err := c.Generate(ctx, prompt, opts...)
			results[i] = BatchResult{Text: text, Err: err}
			return nil
		})
	}
	// Closures never return errors; outcomes live in results.
	_ = g.Wait()

	return results
}

// Stream sends a streaming generation request. Chunks are delivered in order
// through the returned Stream until a terminal Done chunk. The in-flight
// slot is held until the stream completes or is closed.
func (c *Client) Stream(ctx context.Context, prompt string, opts ...Option) (*Stream, error) {
	if prompt == "" {
		return nil, NewInvalidRequestError("prompt must not be empty")
	}

	options := ApplyOptions(opts...)

	if err := c.acquire(ctx); err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)

	resp, err := c.post(streamCtx, GenerateRequest{
		Model:   c.config.Model,
		Prompt:  prompt,
		Stream:  true,
		Options: options,
	})
	if err != nil {
		cancel()
		c.release(ctx)
		return nil, err
	}

	var once sync.Once
	cleanup := func() {
		cancel()
		resp.Body.Close()
		c.release(context.Background())
	}

	items := make(chan streamItem)
	go func() {
		c.readStream(streamCtx, resp.Body, items)
		once.Do(cleanup)
	}()

	return &Stream{items: items, cancel: func() { once.Do(cleanup) }}, nil
}

// readStream decodes newline-delimited JSON frames until the done frame,
// a malformed frame, or cancellation.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, items chan<- streamItem) {
	defer close(items)

	start := time.Now()
	var streamErr error
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var frame streamFrame
		if err := json.Unmarshal(line, &frame); err != nil {
			streamErr = NewStreamMalformedError("malformed stream frame", err)
			c.deliver(ctx, items, streamItem{err: streamErr})
			break
		}

		delivered := c.deliver(ctx, items, streamItem{chunk: Chunk{
			Text:      frame.Response,
			Done:      frame.Done,
			EvalCount: frame.EvalCount,
		}})
		if !delivered || frame.Done {
			break
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		streamErr = NewGenerationUnavailableError("stream interrupted", err)
		c.deliver(ctx, items, streamItem{err: streamErr})
	}

	c.metrics.recordRequest(ctx, c.config.Model, time.Since(start), streamErr)
}

// deliver sends one item unless the stream consumer is gone.
func (c *Client) deliver(ctx context.Context, items chan<- streamItem, item streamItem) bool {
	select {
	case <-ctx.Done():
		return false
	case items <- item:
		return true
	}
}

func (c *Client) doGenerate(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	resp, err := c.post(ctx, GenerateRequest{
		Model:   c.config.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", NewGenerationUnavailableError("malformed generation response", err)
	}
	return out.Response, nil
}

// post issues the HTTP call and translates transport failures into typed
// errors. Callers own the response body on success.
func (c *Client) post(ctx context.Context, payload GenerateRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewInvalidRequestError("failed to encode request: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, NewInvalidRequestError("failed to build request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, translateTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, NewGenerationUnavailableError(
			fmt.Sprintf("generation service returned status %d", resp.StatusCode), nil)
	}

	return resp, nil
}

// acquire takes an in-flight slot, queuing FIFO behind earlier requests, then
// waits for the rate limiter.
func (c *Client) acquire(ctx context.Context) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return NewGenerationUnavailableError("cancelled while queued", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		c.sem.Release(1)
		return NewGenerationUnavailableError("cancelled while rate limited", err)
	}
	c.metrics.addInFlight(ctx, 1)
	return nil
}

func (c *Client) release(ctx context.Context) {
	c.metrics.addInFlight(ctx, -1)
	c.sem.Release(1)
}

func translateTransportError(err error) error {
	var netErr net.Error
	if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return &types.Error{
			Code:      ErrNetworkTimeout,
			Message:   "generation request timed out",
			Retryable: true,
			Cause:     err,
		}
	}
	return NewNetworkError("generation service unreachable", err)
}
