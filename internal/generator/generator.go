package generator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/catalog"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/graph"
)

// Config bounds the generation pipeline.
type Config struct {
	// ComplexityThreshold triggers a simplification pass when the generated
	// graph scores above it.
	ComplexityThreshold int

	// MaxOptimizationPasses caps the re-optimization loop. Each pass costs
	// an AI call, so the default is a single bounded retry.
	MaxOptimizationPasses int

	// DefaultTags are appended to every generated workflow.
	DefaultTags []string
}

// DefaultConfig returns the standard pipeline bounds.
func DefaultConfig() Config {
	return Config{
		ComplexityThreshold:   8,
		MaxOptimizationPasses: 1,
	}
}

// Result is everything a generation produces. The workflow is always
// complete: callers receive either a full graph (possibly with validation
// errors attached) or a terminal error, never a partial one.
type Result struct {
	Workflow   *graph.Workflow        `json:"workflow"`
	Analysis   RequirementAnalysis    `json:"analysis"`
	Plan       Plan                   `json:"plan"`
	Structure  graph.Analysis         `json:"structure"`
	Validation graph.ValidationResult `json:"validation"`
	Warnings   []string               `json:"warnings,omitempty"`

	// OptimizationPasses counts the simplification passes that ran.
	OptimizationPasses int `json:"optimizationPasses"`
}

// RequirementAnalyzer classifies a requirement. Implementations must be
// total: AI-layer failures resolve to a deterministic fallback, never an
// error.
type RequirementAnalyzer interface {
	Analyze(ctx context.Context, req *Requirements) RequirementAnalysis
}

// WorkflowPlanner produces node plans and simplification suggestions.
// Plan must be total and non-empty for any analysis.
type WorkflowPlanner interface {
	Plan(ctx context.Context, analysis RequirementAnalysis, req *Requirements) Plan
	SuggestSimplifications(ctx context.Context, w *graph.Workflow, analysis graph.Analysis) []Simplification
}

// Generator sequences the full pipeline: analyze → plan → create nodes →
// build connections → layout → assemble → validate, with one bounded
// re-optimization pass when validation fails or complexity exceeds the
// threshold.
type Generator struct {
	cfg      Config
	analyzer RequirementAnalyzer
	planner  WorkflowPlanner
	factory  *Factory
	builder  *ConnectionBuilder
	registry *catalog.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

// GeneratorOption configures optional collaborators.
type GeneratorOption func(*Generator)

// WithTracer attaches a tracer; stages emit one span each.
func WithTracer(tracer trace.Tracer) GeneratorOption {
	return func(g *Generator) {
		g.tracer = tracer
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a generator from its stage components.
func New(cfg Config, analyzer RequirementAnalyzer, planner WorkflowPlanner, factory *Factory,
	builder *ConnectionBuilder, registry *catalog.Registry, opts ...GeneratorOption) *Generator {

	if cfg.ComplexityThreshold <= 0 {
		cfg.ComplexityThreshold = DefaultConfig().ComplexityThreshold
	}
	if cfg.MaxOptimizationPasses < 0 {
		cfg.MaxOptimizationPasses = 0
	}

	g := &Generator{
		cfg:      cfg,
		analyzer: analyzer,
		planner:  planner,
		factory:  factory,
		builder:  builder,
		registry: registry,
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer("workflowgen"),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "generator")
	return g
}

// Generate runs one generation request as a single sequential pipeline.
// AI-layer failures never surface here; the only terminal errors are invalid
// input and a plan naming an unknown node type.
func (g *Generator) Generate(ctx context.Context, req *Requirements) (*Result, error) {
	ctx, span := g.tracer.Start(ctx, "generator.Generate")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	analysis := g.stage1Analyze(ctx, req)
	plan := g.stage2Plan(ctx, analysis, req)

	nodes, err := g.factory.CreateNodes(plan.Nodes)
	if err != nil {
		// Plan-integrity failure: no safe fallback graph exists.
		return nil, err
	}

	conns, warnings := g.builder.Build(nodes, plan.Flow)
	shape := graph.Layout(nodes, conns)
	span.SetAttributes(
		attribute.Int("workflow.nodes", len(nodes)),
		attribute.String("workflow.shape", string(shape)),
	)

	w := g.assemble(req, nodes, conns)
	result := &Result{
		Workflow:   w,
		Analysis:   analysis,
		Plan:       plan,
		Structure:  graph.Analyze(w),
		Validation: graph.Validate(w, g.registry),
		Warnings:   warnings,
	}

	for result.OptimizationPasses < g.cfg.MaxOptimizationPasses &&
		(!result.Validation.Valid || result.Structure.ComplexityScore > g.cfg.ComplexityThreshold) {

		result.OptimizationPasses++
		if !g.simplify(ctx, result) {
			break
		}
	}

	g.logger.Info("workflow generated",
		"nodes", result.Structure.NodeCount,
		"connections", result.Structure.ConnectionCount,
		"complexity", result.Structure.ComplexityScore,
		"valid", result.Validation.Valid,
		"passes", result.OptimizationPasses)
	return result, nil
}

func (g *Generator) stage1Analyze(ctx context.Context, req *Requirements) RequirementAnalysis {
	ctx, span := g.tracer.Start(ctx, "generator.Analyze")
	defer span.End()
	return g.analyzer.Analyze(ctx, req)
}

func (g *Generator) stage2Plan(ctx context.Context, analysis RequirementAnalysis, req *Requirements) Plan {
	ctx, span := g.tracer.Start(ctx, "generator.Plan")
	defer span.End()
	return g.planner.Plan(ctx, analysis, req)
}

// simplify runs one re-optimization pass: ask the planner's AI path for
// suggestions, apply them, re-layout and re-validate. Returns false when
// nothing changed, which ends the loop early.
func (g *Generator) simplify(ctx context.Context, result *Result) bool {
	ctx, span := g.tracer.Start(ctx, "generator.Simplify")
	defer span.End()

	suggestions := g.planner.SuggestSimplifications(ctx, result.Workflow, result.Structure)
	if len(suggestions) == 0 {
		return false
	}

	changed := false
	for _, s := range suggestions {
		if g.applySimplification(result.Workflow, s) {
			changed = true
		}
	}
	if !changed {
		return false
	}

	graph.Layout(result.Workflow.Nodes, result.Workflow.Connections)
	result.Workflow.UpdatedAt = time.Now().UTC()
	result.Structure = graph.Analyze(result.Workflow)
	result.Validation = graph.Validate(result.Workflow, g.registry)
	return true
}

// applySimplification removes or merges one node, rewiring connections so
// the graph stays whole. The last trigger in a workflow is never removed.
func (g *Generator) applySimplification(w *graph.Workflow, s Simplification) bool {
	node := w.NodeByName(s.Node)
	if node == nil {
		return false
	}
	if g.registry.IsTrigger(node.Type) && g.triggerCount(w) == 1 {
		return false
	}

	redirect := ""
	if s.Action == "merge" {
		if w.NodeByName(s.Into) == nil || s.Into == s.Node {
			return false
		}
		redirect = s.Into
	}

	g.logger.Debug("applying simplification", "action", s.Action, "node", s.Node, "into", s.Into)
	removeNode(w, s.Node, redirect)
	return true
}

func (g *Generator) triggerCount(w *graph.Workflow) int {
	count := 0
	for _, n := range w.Nodes {
		if g.registry.IsTrigger(n.Type) {
			count++
		}
	}
	return count
}

// EnhanceErrorHandling attaches a retry/failure policy to every node that
// performs external work and has none. Returns the number of nodes changed.
func (g *Generator) EnhanceErrorHandling(w *graph.Workflow) int {
	changed := 0
	for _, n := range w.Nodes {
		if !g.registry.IsHeavy(n.Type) {
			continue
		}
		if n.RetryOnFail || n.OnError != "" {
			continue
		}
		n.RetryOnFail = true
		n.MaxTries = 3
		n.OnError = "continueRegularOutput"
		changed++
	}
	if changed > 0 {
		w.UpdatedAt = time.Now().UTC()
	}
	return changed
}

// assemble builds the final workflow document in the execution engine's
// exact shape.
func (g *Generator) assemble(req *Requirements, nodes []*graph.Node, conns graph.Connections) *graph.Workflow {
	now := time.Now().UTC()
	tags := append(append([]string{}, req.Tags...), g.cfg.DefaultTags...)

	return &graph.Workflow{
		ID:          uuid.NewString(),
		Name:        workflowName(req.Description),
		Nodes:       nodes,
		Connections: conns,
		Active:      false,
		Settings:    map[string]any{"executionOrder": "v1"},
		Meta: map[string]any{
			"workflowType": string(req.Type),
		},
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// workflowName derives a display name from the first words of the
// description.
func workflowName(description string) string {
	words := strings.Fields(description)
	if len(words) > 8 {
		words = words[:8]
	}
	name := strings.Join(words, " ")
	if len(name) > 60 {
		name = name[:60]
	}
	if name == "" {
		name = "Generated Workflow"
	}
	return name
}

// removeNode drops a node from the workflow. With a redirect target, every
// edge touching the node is repointed at the target (a merge); without one,
// inbound edges are spliced onto the node's own outbound main targets
// (a bypass).
func removeNode(w *graph.Workflow, name, redirect string) {
	var outbound []graph.Target
	if ports := w.Connections[name]; ports != nil {
		for _, targets := range ports[graph.PortMain] {
			outbound = append(outbound, targets...)
		}
	}

	for source, ports := range w.Connections {
		if source == name {
			continue
		}
		for port, slots := range ports {
			for i, targets := range slots {
				var rewired []graph.Target
				for _, t := range targets {
					if t.Node != name {
						rewired = append(rewired, t)
						continue
					}
					if redirect != "" {
						if source != redirect {
							rewired = appendUniqueTarget(rewired, graph.Target{Node: redirect, Type: t.Type, Index: t.Index})
						}
						continue
					}
					for _, out := range outbound {
						if out.Node == source {
							continue // don't create a self-loop
						}
						rewired = appendUniqueTarget(rewired, out)
					}
				}
				slots[i] = rewired
			}
			ports[port] = slots
		}
	}

	if redirect != "" {
		// The merge target inherits the removed node's outbound edges.
		for _, out := range outbound {
			if out.Node != redirect {
				w.Connections.Add(redirect, graph.PortMain, 0, out)
			}
		}
	}
	delete(w.Connections, name)

	kept := w.Nodes[:0:0]
	for _, n := range w.Nodes {
		if n.Name != name {
			kept = append(kept, n)
		}
	}
	w.Nodes = kept
}

func appendUniqueTarget(targets []graph.Target, t graph.Target) []graph.Target {
	for _, existing := range targets {
		if existing == t {
			return targets
		}
	}
	return append(targets, t)
}
