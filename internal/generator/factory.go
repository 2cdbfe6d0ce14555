package generator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/catalog"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/graph"
)

// Factory materializes node specifications into concrete graph nodes using
// the template registry. An unresolvable node type is a plan-integrity
// failure: it propagates untouched and terminates the generation, because no
// safe fallback graph exists for an invalid plan.
type Factory struct {
	registry *catalog.Registry
}

// NewFactory creates a node factory over the given registry.
func NewFactory(registry *catalog.Registry) *Factory {
	return &Factory{registry: registry}
}

// CreateNode materializes one specification. Parameters are deep-merged with
// the template defaults, override values winning at every nesting level. A
// missing id is auto-assigned; templates that declare credentials get their
// default credential reference attached.
func (f *Factory) CreateNode(spec NodeSpec) (*graph.Node, error) {
	tmpl, err := f.registry.Get(spec.Type)
	if err != nil {
		return nil, err
	}

	node := &graph.Node{
		ID:          spec.ID,
		Name:        spec.Name,
		Type:        tmpl.Type,
		TypeVersion: tmpl.TypeVersion,
		Parameters:  deepMerge(tmpl.DefaultParameters, spec.Parameters),
	}
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.Name == "" {
		node.Name = nodeDisplayName(tmpl.Type, 1)
	}
	if node.Parameters == nil {
		node.Parameters = map[string]any{}
	}
	if spec.Position != nil {
		node.Position = *spec.Position
	}

	if tmpl.CredentialsRequired && tmpl.DefaultCredentials != "" {
		node.Credentials = map[string]any{
			tmpl.DefaultCredentials: map[string]any{
				"id":   "",
				"name": tmpl.DefaultCredentials + " account",
			},
		}
	}

	return node, nil
}

// CreateNodes materializes a whole plan. Display names are deduplicated with
// a numeric suffix because connections reference nodes by name.
func (f *Factory) CreateNodes(specs []NodeSpec) ([]*graph.Node, error) {
	nodes := make([]*graph.Node, 0, len(specs))
	seen := make(map[string]int, len(specs))

	for _, spec := range specs {
		node, err := f.CreateNode(spec)
		if err != nil {
			return nil, err
		}

		base := node.Name
		seen[base]++
		if seen[base] > 1 {
			node.Name = fmt.Sprintf("%s (%d)", base, seen[base])
			seen[node.Name]++
		}

		nodes = append(nodes, node)
	}
	return nodes, nil
}

// deepMerge merges override onto base. Nested maps merge key-by-key;
// non-map override values replace the base value. Neither input is mutated.
func deepMerge(base, override map[string]any) map[string]any {
	if base == nil && override == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepMerge(nested, nil)
			continue
		}
		out[k] = v
	}

	for k, v := range override {
		overrideNested, overrideIsMap := v.(map[string]any)
		if !overrideIsMap {
			out[k] = v
			continue
		}
		if baseNested, ok := out[k].(map[string]any); ok {
			out[k] = deepMerge(baseNested, overrideNested)
			continue
		}
		out[k] = deepMerge(nil, overrideNested)
	}
	return out
}
