package graph

import (
	"fmt"
)

// Issue categories. Errors block correctness; warnings are advisory.
const (
	CategoryStructure  = "structure"
	CategoryNode       = "node"
	CategoryConnection = "connection"
	CategoryParameter  = "parameter"

	CategoryPerformance   = "performance"
	CategoryCompatibility = "compatibility"
	CategoryBestPractice  = "best-practice"
)

// Issue is one categorized validation finding.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Node     string `json:"node,omitempty"`
}

// ValidationResult aggregates the structural findings for a workflow.
// Validation reports, it never throws: a graph with errors is still returned
// to the caller alongside this result.
type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// TemplateSource is the slice of the node template registry the validator
// needs: trigger classification and required-parameter lookup.
type TemplateSource interface {
	Has(typeID string) bool
	IsTrigger(typeID string) bool
	RequiredParameters(typeID string) []string
}

// Validate runs all structural checks against a workflow:
//   - node names are unique (connections are keyed by name)
//   - every connection source and target resolves to a real node
//   - at least one trigger exists and every non-trigger node is reachable
//     from some trigger
//   - node parameter bags satisfy the owning template's required fields
//
// Unknown node types, oversized graphs and missing failure policies produce
// warnings rather than errors.
func Validate(w *Workflow, templates TemplateSource) ValidationResult {
	var result ValidationResult

	if len(w.Nodes) == 0 {
		result.Errors = append(result.Errors, Issue{
			Category: CategoryStructure,
			Message:  "workflow has no nodes",
		})
		return finalize(result)
	}

	names := make(map[string]bool, len(w.Nodes))
	for _, n := range w.Nodes {
		if names[n.Name] {
			result.Errors = append(result.Errors, Issue{
				Category: CategoryStructure,
				Message:  fmt.Sprintf("duplicate node name %q", n.Name),
				Node:     n.Name,
			})
		}
		names[n.Name] = true
	}

	checkConnections(w, names, &result)
	checkReachability(w, templates, &result)
	checkParameters(w, templates, &result)

	if len(w.Nodes) > 20 {
		result.Warnings = append(result.Warnings, Issue{
			Category: CategoryPerformance,
			Message:  fmt.Sprintf("workflow has %d nodes; consider splitting it", len(w.Nodes)),
		})
	}

	return finalize(result)
}

func finalize(r ValidationResult) ValidationResult {
	r.Valid = len(r.Errors) == 0
	return r
}

func checkConnections(w *Workflow, names map[string]bool, result *ValidationResult) {
	for source, ports := range w.Connections {
		if !names[source] {
			result.Errors = append(result.Errors, Issue{
				Category: CategoryConnection,
				Message:  fmt.Sprintf("connection source %q is not a node in this workflow", source),
				Node:     source,
			})
		}
		for port, slots := range ports {
			for _, targets := range slots {
				for _, t := range targets {
					if !names[t.Node] {
						result.Errors = append(result.Errors, Issue{
							Category: CategoryConnection,
							Message: fmt.Sprintf("connection from %q (%s) targets unknown node %q",
								source, port, t.Node),
							Node: source,
						})
					}
				}
			}
		}
	}
}

func checkReachability(w *Workflow, templates TemplateSource, result *ValidationResult) {
	var triggers []string
	for _, n := range w.Nodes {
		if templates.IsTrigger(n.Type) {
			triggers = append(triggers, n.Name)
		}
	}

	if len(triggers) == 0 {
		result.Errors = append(result.Errors, Issue{
			Category: CategoryStructure,
			Message:  "workflow has no trigger node",
		})
		return
	}

	adj := adjacency(w.Nodes, w.Connections)
	reachable := make(map[string]bool, len(w.Nodes))
	queue := append([]string(nil), triggers...)
	for _, t := range triggers {
		reachable[t] = true
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adj[current] {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, n := range w.Nodes {
		if !reachable[n.Name] {
			result.Errors = append(result.Errors, Issue{
				Category: CategoryNode,
				Message:  fmt.Sprintf("node %q is not reachable from any trigger", n.Name),
				Node:     n.Name,
			})
		}
	}

	if len(triggers) > 1 {
		result.Warnings = append(result.Warnings, Issue{
			Category: CategoryBestPractice,
			Message:  fmt.Sprintf("workflow has %d trigger nodes; one entry point is easier to reason about", len(triggers)),
		})
	}
}

func checkParameters(w *Workflow, templates TemplateSource, result *ValidationResult) {
	for _, n := range w.Nodes {
		if !templates.Has(n.Type) {
			result.Warnings = append(result.Warnings, Issue{
				Category: CategoryCompatibility,
				Message:  fmt.Sprintf("node %q uses type %q not present in the template catalog", n.Name, n.Type),
				Node:     n.Name,
			})
			continue
		}

		for _, key := range templates.RequiredParameters(n.Type) {
			value, ok := n.Parameters[key]
			if !ok || value == nil || value == "" {
				result.Errors = append(result.Errors, Issue{
					Category: CategoryParameter,
					Message:  fmt.Sprintf("node %q is missing required parameter %q", n.Name, key),
					Node:     n.Name,
				})
			}
		}

		if isHeavyType(n.Type) && !n.RetryOnFail && n.OnError == "" {
			result.Warnings = append(result.Warnings, Issue{
				Category: CategoryBestPractice,
				Message:  fmt.Sprintf("node %q performs external work but has no failure policy", n.Name),
				Node:     n.Name,
			})
		}
	}
}
