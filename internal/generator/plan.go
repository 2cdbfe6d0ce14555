package generator

import (
	"github.com/Defantinis/n8n-ultimate-sub007/internal/graph"
)

// AnalysisShape is the closed set of workflow shape classifications.
type AnalysisShape string

const (
	ShapeLinear      AnalysisShape = "linear"
	ShapeEventDriven AnalysisShape = "event-driven"
	ShapeScheduled   AnalysisShape = "scheduled"
	ShapeConditional AnalysisShape = "conditional"
	ShapeParallel    AnalysisShape = "parallel"
	ShapeComplex     AnalysisShape = "complex"
)

// IsValid checks if the shape is one of the closed set.
func (s AnalysisShape) IsValid() bool {
	switch s {
	case ShapeLinear, ShapeEventDriven, ShapeScheduled, ShapeConditional,
		ShapeParallel, ShapeComplex:
		return true
	default:
		return false
	}
}

// RequirementAnalysis is the classified view of a requirement, produced by
// the analyzer and consumed by the planner within one generation request.
type RequirementAnalysis struct {
	Shape              AnalysisShape `json:"workflowShape"`
	Complexity         int           `json:"complexity"`
	KeyComponents      []string      `json:"keyComponents"`
	SuggestedNodeTypes []string      `json:"suggestedNodeTypes"`
	DataFlow           string        `json:"dataFlow"`
	Challenges         []string      `json:"challenges"`
	Recommendations    []string      `json:"recommendations"`
}

// NodeSpec is one planned node before materialization. Consumed exactly once
// by the factory.
type NodeSpec struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Parameters  map[string]any  `json:"parameters,omitempty"`
	Description string          `json:"description,omitempty"`
	Position    *graph.Position `json:"position,omitempty"`
}

// Flow connection kinds as the planner emits them. The connection builder
// maps these logical kinds onto physical port classes.
const (
	FlowKindSuccess  = "success"
	FlowKindError    = "error"
	FlowKindData     = "data"
	FlowKindTool     = "tool"
	FlowKindMemory   = "memory"
	FlowKindModel    = "model"
	FlowKindDocument = "document"
)

// FlowConnection is one abstract edge of the plan. From and To reference
// nodes by id or display name.
type FlowConnection struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Kind   string `json:"kind,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// Plan is the intermediate structure between analysis and materialization.
type Plan struct {
	Nodes      []NodeSpec       `json:"nodes"`
	Flow       []FlowConnection `json:"connections"`
	Complexity int              `json:"complexity"`
	Rationale  string           `json:"rationale"`
}

// Simplification is one re-optimization suggestion for an overly complex or
// invalid graph.
type Simplification struct {
	// Action is "remove" (bypass and delete the node) or "merge"
	// (fold the node into Into, keeping Into's wiring).
	Action string `json:"action"`
	Node   string `json:"node"`
	Into   string `json:"into,omitempty"`
	Reason string `json:"reason,omitempty"`
}
