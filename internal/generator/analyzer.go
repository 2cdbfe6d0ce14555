package generator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/catalog"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/llm"
)

// Analyzer converts a natural-language requirement into a classified
// RequirementAnalysis. The AI path runs through the cached client; any
// failure there (network, timeout, unparseable or malformed response) falls
// back to deterministic keyword heuristics. Analyze is total: it never
// returns an error to the caller.
type Analyzer struct {
	client *llm.Client
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer. A nil client forces the fallback path,
// which tests and offline use rely on.
func NewAnalyzer(client *llm.Client, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{client: client, logger: logger.With("component", "analyzer")}
}

// Analyze classifies the requirement via the model, falling back to rule
// heuristics when the AI layer is unavailable or answers garbage.
func (a *Analyzer) Analyze(ctx context.Context, req *Requirements) RequirementAnalysis {
	if a.client != nil {
		prompt := buildAnalysisPrompt(req)
		text, err := a.client.Generate(ctx, prompt, llm.WithTemperature(0.3))
		if err == nil {
			if analysis, ok := parseAnalysis(text); ok {
				return analysis
			}
			a.logger.Warn("analysis response unparseable, using fallback")
		} else {
			a.logger.Warn("analysis call failed, using fallback", "error", err)
		}
	}
	return fallbackAnalysis(req)
}

// parseAnalysis extracts the trailing JSON object and checks it is shaped
// like an analysis before trusting it. Model output is untrusted input.
func parseAnalysis(text string) (RequirementAnalysis, bool) {
	analysis, err := llm.ExtractLastJSONAs[RequirementAnalysis](text)
	if err != nil {
		return RequirementAnalysis{}, false
	}

	if !analysis.Shape.IsValid() {
		return RequirementAnalysis{}, false
	}
	analysis.Complexity = clampComplexity(analysis.Complexity)
	if analysis.KeyComponents == nil {
		analysis.KeyComponents = []string{}
	}
	if analysis.SuggestedNodeTypes == nil {
		analysis.SuggestedNodeTypes = []string{}
	}
	return analysis, true
}

// fallbackAnalysis derives a structurally valid analysis from keyword and
// type heuristics on the input alone.
func fallbackAnalysis(req *Requirements) RequirementAnalysis {
	text := strings.ToLower(req.Description + " " + strings.Join(req.Steps, " "))

	analysis := RequirementAnalysis{
		Shape:              inferShape(req, text),
		KeyComponents:      inferComponents(text, req),
		Challenges:         []string{},
		Recommendations:    []string{"review generated parameters before activating the workflow"},
		DataFlow:           "items flow sequentially from the trigger through each processing node",
	}

	analysis.SuggestedNodeTypes = suggestNodeTypes(analysis.Shape, analysis.KeyComponents)
	analysis.Complexity = fallbackComplexity(req, analysis)
	return analysis
}

func inferShape(req *Requirements, text string) AnalysisShape {
	for _, in := range req.Inputs {
		if strings.EqualFold(in.Type, "webhook") {
			return ShapeEventDriven
		}
	}
	switch {
	case containsAny(text, "webhook", "when called", "incoming request", "on event"):
		return ShapeEventDriven
	case containsAny(text, "every hour", "every day", "hourly", "daily", "weekly", "schedule", "cron", "every minute", "periodically"):
		return ShapeScheduled
	case containsAny(text, " if ", "condition", "branch", "otherwise", "depending on"):
		return ShapeConditional
	case containsAny(text, "in parallel", "simultaneously", "fan out", "concurrently"):
		return ShapeParallel
	default:
		return ShapeLinear
	}
}

func inferComponents(text string, req *Requirements) []string {
	var components []string
	add := func(c string) {
		for _, existing := range components {
			if existing == c {
				return
			}
		}
		components = append(components, c)
	}

	if containsAny(text, "http", "api", "fetch", "request", "url", "endpoint", "rest") {
		add("HTTP")
	}
	if containsAny(text, "transform", "process", "parse", "filter", "map", "convert", "log", "format") {
		add("data-processing")
	}
	if containsAny(text, "email", "mail") {
		add("email")
	}
	if containsAny(text, "slack", "notify", "notification", "alert", "message") {
		add("notification")
	}
	if containsAny(text, "database", "postgres", "sql", "query", "store", "persist") {
		add("database")
	}
	if containsAny(text, "agent", " ai ", "llm", "language model", "chatbot", "summarize") {
		add("ai-agent")
	}
	if req.Type == TypeNotification {
		add("notification")
	}
	if req.Type == TypeAPIIntegration {
		add("HTTP")
	}
	return components
}

func suggestNodeTypes(shape AnalysisShape, components []string) []string {
	suggested := []string{triggerTypeForShape(shape)}
	for _, c := range components {
		if t, ok := componentNodeTypes[c]; ok {
			suggested = append(suggested, t)
		}
	}
	if shape == ShapeConditional {
		suggested = append(suggested, catalog.TypeIf)
	}
	return suggested
}

// componentNodeTypes maps a detected key component to the node type that
// serves it.
var componentNodeTypes = map[string]string{
	"HTTP":            catalog.TypeHTTPRequest,
	"data-processing": catalog.TypeSet,
	"email":           catalog.TypeEmailSend,
	"notification":    catalog.TypeSlack,
	"database":        catalog.TypePostgres,
	"ai-agent":        catalog.TypeAgent,
}

func triggerTypeForShape(shape AnalysisShape) string {
	switch shape {
	case ShapeEventDriven:
		return catalog.TypeWebhook
	case ShapeScheduled:
		return catalog.TypeScheduleTrigger
	default:
		return catalog.TypeManualTrigger
	}
}

func fallbackComplexity(req *Requirements, analysis RequirementAnalysis) int {
	score := 3
	switch {
	case len(req.Steps) > 5:
		score += 2
	case len(req.Steps) > 2:
		score++
	}
	if len(req.Inputs)+len(req.Outputs) > 4 {
		score++
	}
	if req.Type == TypeDataProcessing || req.Type == TypeAPIIntegration {
		score++
	}
	if analysis.Shape == ShapeConditional || analysis.Shape == ShapeParallel {
		score++
	}
	return clampComplexity(score)
}

func clampComplexity(c int) int {
	if c < 1 {
		return 1
	}
	if c > 10 {
		return 10
	}
	return c
}

func containsAny(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
