package generator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/catalog"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/graph"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/llm"
)

// Planner converts a requirement analysis into a concrete plan: node
// specifications plus abstract flow connections. Same discipline as the
// analyzer: AI path through the cached client, deterministic total fallback
// on any AI-layer failure. Plan never returns an error and never returns an
// empty plan.
type Planner struct {
	client   *llm.Client
	registry *catalog.Registry
	logger   *slog.Logger
}

// NewPlanner creates a planner over the given template registry. A nil
// client forces the fallback path.
func NewPlanner(client *llm.Client, registry *catalog.Registry, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{client: client, registry: registry, logger: logger.With("component", "planner")}
}

// Plan produces the node plan for an analysis. The prompt enumerates the
// registry's type vocabulary so the model is constrained to valid ids; the
// response is still treated as untrusted and falls back on any parse issue.
func (p *Planner) Plan(ctx context.Context, analysis RequirementAnalysis, req *Requirements) Plan {
	if p.client != nil {
		prompt := buildPlanPrompt(analysis, req, p.registry.Types())
		text, err := p.client.Generate(ctx, prompt, llm.WithTemperature(0.3))
		if err == nil {
			if plan, ok := parsePlan(text); ok {
				return p.normalize(plan, req)
			}
			p.logger.Warn("plan response unparseable, using fallback")
		} else {
			p.logger.Warn("plan call failed, using fallback", "error", err)
		}
	}
	return p.normalize(p.fallbackPlan(analysis, req), req)
}

// SuggestSimplifications asks the AI path for reduction suggestions for an
// invalid or overly complex graph. The fallback is an empty suggestion list,
// which callers treat as "nothing to do".
func (p *Planner) SuggestSimplifications(ctx context.Context, w *graph.Workflow, analysis graph.Analysis) []Simplification {
	if p.client == nil {
		return nil
	}

	prompt := buildSimplificationPrompt(w, analysis)
	text, err := p.client.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		p.logger.Warn("simplification call failed, skipping pass", "error", err)
		return nil
	}

	payload, err := llm.ExtractLastJSONAs[struct {
		Simplifications []Simplification `json:"simplifications"`
	}](text)
	if err != nil {
		p.logger.Warn("simplification response unparseable, skipping pass")
		return nil
	}

	var out []Simplification
	for _, s := range payload.Simplifications {
		if s.Node == "" {
			continue
		}
		if s.Action != "remove" && s.Action != "merge" {
			continue
		}
		if s.Action == "merge" && s.Into == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// parsePlan extracts the trailing JSON object and rejects plans without
// nodes; everything else is repaired downstream.
func parsePlan(text string) (Plan, bool) {
	plan, err := llm.ExtractLastJSONAs[Plan](text)
	if err != nil {
		return Plan{}, false
	}
	if len(plan.Nodes) == 0 {
		return Plan{}, false
	}
	for i := range plan.Nodes {
		if plan.Nodes[i].Type == "" {
			return Plan{}, false
		}
	}
	plan.Complexity = clampComplexity(plan.Complexity)
	return plan, true
}

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// fallbackPlan always emits at least one trigger-class node and, for each
// relevant key component, the matching node type chained sequentially. Total
// for any analysis.
func (p *Planner) fallbackPlan(analysis RequirementAnalysis, req *Requirements) Plan {
	triggerType := triggerTypeForShape(analysis.Shape)

	plan := Plan{
		Complexity: analysis.Complexity,
		Rationale:  "deterministic fallback plan derived from requirement heuristics",
		Nodes: []NodeSpec{{
			Name: nodeDisplayName(triggerType, 1),
			Type: triggerType,
		}},
	}

	position := 2
	for _, component := range analysis.KeyComponents {
		nodeType, ok := componentNodeTypes[component]
		if !ok || !p.registry.Has(nodeType) {
			continue
		}
		spec := NodeSpec{
			Name: nodeDisplayName(nodeType, position),
			Type: nodeType,
		}
		if nodeType == catalog.TypeHTTPRequest {
			if url := urlPattern.FindString(req.Description); url != "" {
				spec.Parameters = map[string]any{"url": url}
			}
		}
		plan.Nodes = append(plan.Nodes, spec)
		position++
	}

	for i := 0; i+1 < len(plan.Nodes); i++ {
		plan.Flow = append(plan.Flow, FlowConnection{
			From: plan.Nodes[i].Name,
			To:   plan.Nodes[i+1].Name,
			Kind: FlowKindSuccess,
		})
	}
	return plan
}

// normalize applies the requirement constraints to a plan: forbidden types
// are dropped, required types are appended to the chain, and the node count
// is capped. The trigger node always survives.
func (p *Planner) normalize(plan Plan, req *Requirements) Plan {
	if req.Constraints == nil {
		return plan
	}

	if len(req.Constraints.ForbiddenNodeTypes) > 0 {
		kept := plan.Nodes[:0:0]
		removed := map[string]bool{}
		for i, spec := range plan.Nodes {
			if i > 0 && req.forbidden(spec.Type) {
				removed[spec.Name] = true
				p.logger.Debug("dropping forbidden node type from plan", "type", spec.Type)
				continue
			}
			kept = append(kept, spec)
		}
		plan.Nodes = kept
		if len(removed) > 0 {
			flow := plan.Flow[:0:0]
			for _, f := range plan.Flow {
				if removed[f.From] || removed[f.To] {
					continue
				}
				flow = append(flow, f)
			}
			plan.Flow = flow
		}
	}

	for _, required := range req.Constraints.RequiredNodeTypes {
		if !p.registry.Has(required) || planHasType(plan, required) {
			continue
		}
		spec := NodeSpec{
			Name: nodeDisplayName(required, len(plan.Nodes)+1),
			Type: required,
		}
		if len(plan.Nodes) > 0 {
			plan.Flow = append(plan.Flow, FlowConnection{
				From: plan.Nodes[len(plan.Nodes)-1].Name,
				To:   spec.Name,
				Kind: FlowKindSuccess,
			})
		}
		plan.Nodes = append(plan.Nodes, spec)
	}

	if max := req.Constraints.MaxNodes; max > 0 && len(plan.Nodes) > max {
		dropped := map[string]bool{}
		for _, spec := range plan.Nodes[max:] {
			dropped[spec.Name] = true
		}
		plan.Nodes = plan.Nodes[:max]
		flow := plan.Flow[:0:0]
		for _, f := range plan.Flow {
			if dropped[f.From] || dropped[f.To] {
				continue
			}
			flow = append(flow, f)
		}
		plan.Flow = flow
	}

	return plan
}

func planHasType(plan Plan, typeID string) bool {
	for _, spec := range plan.Nodes {
		if spec.Type == typeID {
			return true
		}
	}
	return false
}

// nodeDisplayName derives a readable default name from a node type id.
func nodeDisplayName(typeID string, position int) string {
	short := typeID
	if idx := lastDot(typeID); idx >= 0 {
		short = typeID[idx+1:]
	}
	return fmt.Sprintf("%s %d", titleFromCamel(short), position)
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

// titleFromCamel turns "httpRequest" into "Http Request".
func titleFromCamel(s string) string {
	if s == "" {
		return s
	}
	var out []rune
	for i, r := range s {
		if i == 0 {
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			out = append(out, r)
			continue
		}
		if r >= 'A' && r <= 'Z' {
			out = append(out, ' ')
		}
		out = append(out, r)
	}
	return string(out)
}
