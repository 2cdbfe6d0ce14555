// Package generator turns a free-text automation request into a validated,
// laid-out workflow graph. The pipeline runs analyze → plan → create nodes →
// build connections → layout → validate, with a bounded re-optimization pass,
// using the LLM client where available and deterministic fallbacks otherwise.
package generator

import (
	"github.com/Defantinis/n8n-ultimate-sub007/internal/types"
)

// WorkflowType classifies the automation request.
type WorkflowType string

const (
	TypeAutomation     WorkflowType = "automation"
	TypeDataProcessing WorkflowType = "data-processing"
	TypeAPIIntegration WorkflowType = "api-integration"
	TypeNotification   WorkflowType = "notification"
	TypeMonitoring     WorkflowType = "monitoring"
	TypeTemplate       WorkflowType = "template"
	TypeEnhancement    WorkflowType = "enhancement"
)

// IsValid checks if the workflow type is one of the fixed enumeration.
func (t WorkflowType) IsValid() bool {
	switch t {
	case TypeAutomation, TypeDataProcessing, TypeAPIIntegration,
		TypeNotification, TypeMonitoring, TypeTemplate, TypeEnhancement:
		return true
	default:
		return false
	}
}

// IOField declares one named input or output of the requested workflow.
type IOField struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Constraints bound what the generator may produce.
type Constraints struct {
	MaxNodes           int      `json:"maxNodes,omitempty" yaml:"maxNodes,omitempty"`
	MaxComplexity      int      `json:"maxComplexity,omitempty" yaml:"maxComplexity,omitempty"`
	RequiredNodeTypes  []string `json:"requiredNodeTypes,omitempty" yaml:"requiredNodeTypes,omitempty"`
	ForbiddenNodeTypes []string `json:"forbiddenNodeTypes,omitempty" yaml:"forbiddenNodeTypes,omitempty"`
}

// Requirements is the generation input consumed from the calling layer.
type Requirements struct {
	Description string       `json:"description" yaml:"description"`
	Type        WorkflowType `json:"type" yaml:"type"`
	Inputs      []IOField    `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs     []IOField    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Steps       []string     `json:"steps,omitempty" yaml:"steps,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Tags        []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Validate checks the requirement object. An empty type defaults to
// automation rather than failing.
func (r *Requirements) Validate() error {
	if r.Description == "" {
		return types.NewError(types.GENERATION_INVALID_INPUT, "description must not be empty")
	}
	if r.Type == "" {
		r.Type = TypeAutomation
	}
	if !r.Type.IsValid() {
		return types.NewError(types.GENERATION_INVALID_INPUT,
			"unknown workflow type: "+string(r.Type))
	}
	return nil
}

// forbidden reports whether a node type is excluded by the constraints.
func (r *Requirements) forbidden(typeID string) bool {
	if r.Constraints == nil {
		return false
	}
	for _, t := range r.Constraints.ForbiddenNodeTypes {
		if t == typeID {
			return true
		}
	}
	return false
}
