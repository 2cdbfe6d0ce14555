package llm

// Default sampling parameters and their allowed ranges. Out-of-range values
// are clamped rather than rejected so a misconfigured caller still gets a
// usable request.
const (
	DefaultTemperature = 0.7
	DefaultTopP        = 0.9
	DefaultNumPredict  = 2048

	MinTemperature = 0.0
	MaxTemperature = 1.0
	MinTopP        = 0.0
	MaxTopP        = 1.0
	MinNumPredict  = 1
	MaxNumPredict  = 8192
)

// Option is a functional option for configuring generation requests.
type Option func(*GenerateOptions)

// WithTemperature sets the temperature for the request.
// Temperature controls randomness in the output (0.0 - 1.0).
// Lower values make output more focused and deterministic.
func WithTemperature(temperature float64) Option {
	return func(o *GenerateOptions) {
		o.Temperature = temperature
	}
}

// WithTopP sets the nucleus sampling parameter (0.0 - 1.0).
// Only tokens comprising the top-P probability mass are considered.
func WithTopP(topP float64) Option {
	return func(o *GenerateOptions) {
		o.TopP = topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(o *GenerateOptions) {
		o.NumPredict = maxTokens
	}
}

// DefaultGenerateOptions returns the default sampling parameters.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		NumPredict:  DefaultNumPredict,
	}
}

// ApplyOptions applies opts on top of the defaults and clamps the result to
// the allowed sampling ranges.
func ApplyOptions(opts ...Option) GenerateOptions {
	o := DefaultGenerateOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.clamp()
	return o
}

func (o *GenerateOptions) clamp() {
	if o.Temperature < MinTemperature {
		o.Temperature = MinTemperature
	}
	if o.Temperature > MaxTemperature {
		o.Temperature = MaxTemperature
	}
	if o.TopP < MinTopP {
		o.TopP = MinTopP
	}
	if o.TopP > MaxTopP {
		o.TopP = MaxTopP
	}
	if o.NumPredict < MinNumPredict {
		o.NumPredict = MinNumPredict
	}
	if o.NumPredict > MaxNumPredict {
		o.NumPredict = MaxNumPredict
	}
}
