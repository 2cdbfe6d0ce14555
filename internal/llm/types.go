package llm

// GenerateRequest is the wire format accepted by the generation endpoint.
// The shape is fixed by the external service contract.
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

// GenerateOptions carries the sampling parameters for a generation request.
type GenerateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

// GenerateResponse is the buffered (non-streamed) response body.
type GenerateResponse struct {
	Response string `json:"response"`
}

// streamFrame is one newline-delimited JSON frame of a streamed response.
// The final frame carries done=true and, optionally, an eval_count.
type streamFrame struct {
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count,omitempty"`
}

// Chunk is a single fragment of a streamed response as delivered to callers.
type Chunk struct {
	// Text is the incremental text content of this fragment.
	Text string

	// Done marks the terminal fragment of the stream.
	Done bool

	// EvalCount is the number of tokens evaluated, reported on the final
	// frame by some backends. Zero when not reported.
	EvalCount int
}

// BatchResult holds the outcome of one prompt in a batch generation pass.
// Failures are per-prompt; a failed sibling never affects the others.
type BatchResult struct {
	Text string
	Err  error
}
