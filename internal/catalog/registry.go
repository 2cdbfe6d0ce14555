// Package catalog holds the static node template registry: the mapping from
// node-type identifier to default parameters, type version, and credential
// requirements. Templates are loaded once at startup and are immutable
// afterwards; the registry hands out deep copies so callers can never mutate
// shared defaults.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/types"
)

// Category groups node types by their role in a workflow.
type Category string

const (
	CategoryTrigger Category = "trigger"
	CategoryAction  Category = "action"
	CategoryFlow    Category = "flow"
	CategoryData    Category = "data"
	CategoryAI      Category = "ai"
)

// NodeTemplate is the immutable default configuration for one node type.
type NodeTemplate struct {
	// Type is the node-type identifier understood by the execution engine.
	Type string `yaml:"type"`

	// TypeVersion is the schema version stamped onto created nodes.
	TypeVersion float64 `yaml:"typeVersion"`

	// Category classifies the node's role.
	Category Category `yaml:"category"`

	// Description is free text shown in listings.
	Description string `yaml:"description"`

	// DefaultParameters is the parameter bag merged under plan overrides.
	DefaultParameters map[string]any `yaml:"defaultParameters"`

	// RequiredParameters lists parameter keys validation insists on.
	RequiredParameters []string `yaml:"requiredParameters"`

	// CredentialsRequired marks node types that cannot run uncredentialed.
	CredentialsRequired bool `yaml:"credentialsRequired"`

	// DefaultCredentials names the credential reference attached when the
	// plan does not provide one.
	DefaultCredentials string `yaml:"defaultCredentials"`
}

// IsTrigger reports whether this template describes a workflow entry point.
func (t NodeTemplate) IsTrigger() bool {
	return t.Category == CategoryTrigger
}

// Registry is the static node template catalog. Safe for concurrent reads.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]NodeTemplate
}

// NewRegistry creates a registry preloaded with the built-in catalog.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]NodeTemplate)}
	for _, t := range builtinTemplates() {
		r.templates[t.Type] = t
	}
	return r
}

// Get returns the template for a node type id. Unknown types yield a
// CATALOG_UNKNOWN_NODE_TYPE error; plans naming such a type are invalid and
// the error is terminal for the generation.
func (r *Registry) Get(typeID string) (NodeTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[typeID]
	if !ok {
		return NodeTemplate{}, types.NewError(types.CATALOG_UNKNOWN_NODE_TYPE,
			fmt.Sprintf("unknown node type: %s", typeID))
	}
	return t.clone(), nil
}

// Has reports whether a node type id is registered.
func (r *Registry) Has(typeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[typeID]
	return ok
}

// Types returns all registered node type ids in sorted order. This is the
// vocabulary handed to the planner prompt.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.templates))
	for id := range r.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Templates returns copies of all registered templates sorted by type id.
func (r *Registry) Templates() []NodeTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]NodeTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// IsTrigger reports whether a node type id names a trigger-class node.
// Unregistered ids fall back to a name heuristic so validation of foreign
// graphs still classifies sensibly.
func (r *Registry) IsTrigger(typeID string) bool {
	r.mu.RLock()
	t, ok := r.templates[typeID]
	r.mu.RUnlock()

	if ok {
		return t.IsTrigger()
	}
	lower := strings.ToLower(typeID)
	return strings.Contains(lower, "trigger") || strings.Contains(lower, "webhook") ||
		strings.Contains(lower, "cron")
}

// RequiredParameters returns the required parameter keys for a node type,
// or nil for unregistered types.
func (r *Registry) RequiredParameters(typeID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[typeID]
	if !ok {
		return nil
	}
	return append([]string(nil), t.RequiredParameters...)
}

// IsHeavy reports whether a node type counts as "heavy" for complexity
// scoring (code execution and outbound HTTP).
func (r *Registry) IsHeavy(typeID string) bool {
	switch typeID {
	case TypeCode, TypeHTTPRequest, TypeAgent:
		return true
	}
	return false
}

// LoadOverlay merges templates from a YAML catalog file into the registry.
// Overlay entries replace built-ins with the same type id. This runs at
// startup only; the registry is read-only during generation.
func (r *Registry) LoadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.WrapError(types.CATALOG_LOAD_FAILED,
			"failed to read catalog overlay "+path, err)
	}

	var overlay struct {
		Templates []NodeTemplate `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return types.WrapError(types.CATALOG_LOAD_FAILED,
			"failed to parse catalog overlay "+path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range overlay.Templates {
		if t.Type == "" {
			return types.NewError(types.CATALOG_LOAD_FAILED,
				"catalog overlay contains a template without a type id")
		}
		if t.TypeVersion == 0 {
			t.TypeVersion = 1
		}
		r.templates[t.Type] = t
	}
	return nil
}

func (t NodeTemplate) clone() NodeTemplate {
	out := t
	out.DefaultParameters = deepCopyMap(t.DefaultParameters)
	out.RequiredParameters = append([]string(nil), t.RequiredParameters...)
	return out
}

func deepCopyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}
