package generator

import (
	"fmt"
	"strings"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/graph"
)

// buildAnalysisPrompt embeds the free-text description, declared
// inputs/outputs, step list and constraints into a structured prompt.
// The model is asked to finish with a single JSON object; everything before
// the final object is treated as reasoning and ignored by the parser.
func buildAnalysisPrompt(req *Requirements) string {
	var b strings.Builder

	b.WriteString("You are a workflow automation architect. Analyze the following requirement ")
	b.WriteString("and classify the workflow it implies.\n\n")
	fmt.Fprintf(&b, "Requirement type: %s\n", req.Type)
	fmt.Fprintf(&b, "Description: %s\n", req.Description)

	writeIOFields(&b, "Inputs", req.Inputs)
	writeIOFields(&b, "Outputs", req.Outputs)

	if len(req.Steps) > 0 {
		b.WriteString("Steps:\n")
		for i, step := range req.Steps {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	}

	writeConstraints(&b, req.Constraints)

	b.WriteString("\nThink through the requirement, then end your answer with exactly one JSON object:\n")
	b.WriteString(`{
  "workflowShape": "linear|event-driven|scheduled|conditional|parallel|complex",
  "complexity": 1-10,
  "keyComponents": ["..."],
  "suggestedNodeTypes": ["..."],
  "dataFlow": "...",
  "challenges": ["..."],
  "recommendations": ["..."]
}`)
	b.WriteString("\n")
	return b.String()
}

// buildPlanPrompt enumerates the allowed node-type vocabulary so the model is
// constrained to valid ids.
func buildPlanPrompt(analysis RequirementAnalysis, req *Requirements, vocabulary []string) string {
	var b strings.Builder

	b.WriteString("You are a workflow automation architect. Produce a concrete node plan ")
	b.WriteString("for the analyzed requirement.\n\n")
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	fmt.Fprintf(&b, "Workflow shape: %s\n", analysis.Shape)
	fmt.Fprintf(&b, "Estimated complexity: %d\n", analysis.Complexity)
	if len(analysis.KeyComponents) > 0 {
		fmt.Fprintf(&b, "Key components: %s\n", strings.Join(analysis.KeyComponents, ", "))
	}
	if analysis.DataFlow != "" {
		fmt.Fprintf(&b, "Data flow: %s\n", analysis.DataFlow)
	}

	writeConstraints(&b, req.Constraints)

	b.WriteString("\nYou may ONLY use these node types:\n")
	for _, t := range vocabulary {
		fmt.Fprintf(&b, "  - %s\n", t)
	}

	b.WriteString("\nEvery workflow starts with a trigger node. End your answer with exactly one JSON object:\n")
	b.WriteString(`{
  "nodes": [{"name": "...", "type": "<node type>", "parameters": {}, "description": "..."}],
  "connections": [{"from": "<node name>", "to": "<node name>", "kind": "success|error|data|tool|memory|model|document", "branch": "true|false"}],
  "complexity": 1-10,
  "rationale": "..."
}`)
	b.WriteString("\n")
	return b.String()
}

// buildSimplificationPrompt asks for reduction suggestions targeting the most
// complex nodes of an already generated graph.
func buildSimplificationPrompt(w *graph.Workflow, analysis graph.Analysis) string {
	var b strings.Builder

	b.WriteString("The following generated workflow is too complex or structurally invalid. ")
	fmt.Fprintf(&b, "It has %d nodes, %d connections and complexity %d/10.\n\nNodes:\n",
		analysis.NodeCount, analysis.ConnectionCount, analysis.ComplexityScore)
	for _, n := range w.Nodes {
		fmt.Fprintf(&b, "  - %s (%s)\n", n.Name, n.Type)
	}

	b.WriteString("\nSuggest how to simplify it. Prefer removing or merging the heaviest nodes. ")
	b.WriteString("End your answer with exactly one JSON object:\n")
	b.WriteString(`{"simplifications": [{"action": "remove|merge", "node": "<node name>", "into": "<node name>", "reason": "..."}]}`)
	b.WriteString("\n")
	return b.String()
}

func writeIOFields(b *strings.Builder, label string, fields []IOField) {
	if len(fields) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, f := range fields {
		fmt.Fprintf(b, "  - %s (%s): %s\n", f.Name, f.Type, f.Description)
	}
}

func writeConstraints(b *strings.Builder, c *Constraints) {
	if c == nil {
		return
	}
	b.WriteString("Constraints:\n")
	if c.MaxNodes > 0 {
		fmt.Fprintf(b, "  - at most %d nodes\n", c.MaxNodes)
	}
	if c.MaxComplexity > 0 {
		fmt.Fprintf(b, "  - complexity at most %d\n", c.MaxComplexity)
	}
	if len(c.RequiredNodeTypes) > 0 {
		fmt.Fprintf(b, "  - must include node types: %s\n", strings.Join(c.RequiredNodeTypes, ", "))
	}
	if len(c.ForbiddenNodeTypes) > 0 {
		fmt.Fprintf(b, "  - must not use node types: %s\n", strings.Join(c.ForbiddenNodeTypes, ", "))
	}
}
