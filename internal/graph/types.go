// Package graph holds the workflow graph data model and the pure structural
// algorithms over it: analysis (cycles, depth, complexity), validation, and
// deterministic layout. Nodes are referenced by stable names in a flat list
// plus an adjacency map; nothing in this package performs I/O.
package graph

import (
	"sort"
	"time"
)

// Output port classes. Success, error and data flows collapse onto the main
// port; the AI-specific classes connect agent nodes to their collaborators.
const (
	PortMain          = "main"
	PortAITool        = "ai_tool"
	PortAIMemory      = "ai_memory"
	PortAILanguageMdl = "ai_languageModel"
	PortAIDocument    = "ai_document"
	PortAIEmbedding   = "ai_embedding"
)

// Position is a 2-D canvas coordinate, marshalled as [x, y].
type Position [2]float64

// Node is one typed unit of work in a workflow graph. Names are unique
// within a graph because connections reference nodes by name.
type Node struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	TypeVersion float64        `json:"typeVersion"`
	Position    Position       `json:"position"`
	Parameters  map[string]any `json:"parameters"`
	Credentials map[string]any `json:"credentials,omitempty"`

	// Failure-policy flags attached by enhancement passes.
	RetryOnFail bool   `json:"retryOnFail,omitempty"`
	MaxTries    int    `json:"maxTries,omitempty"`
	OnError     string `json:"onError,omitempty"`
}

// Target describes one inbound endpoint of a connection.
type Target struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Connections is the adjacency structure of a workflow: source node name →
// output port class → output slot → targets. The nested array-of-arrays
// shape is fixed by the execution engine and must survive marshalling
// exactly.
type Connections map[string]map[string][][]Target

// Add appends a target to the given source/port/slot, growing the slot
// slice as needed. Missing intermediate levels are created.
func (c Connections) Add(source, port string, slot int, target Target) {
	ports, ok := c[source]
	if !ok {
		ports = make(map[string][][]Target)
		c[source] = ports
	}

	slots := ports[port]
	for len(slots) <= slot {
		slots = append(slots, []Target{})
	}
	slots[slot] = append(slots[slot], target)
	ports[port] = slots
}

// Total counts every target across all sources, ports and slots.
func (c Connections) Total() int {
	n := 0
	for _, ports := range c {
		for _, slots := range ports {
			for _, targets := range slots {
				n += len(targets)
			}
		}
	}
	return n
}

// HasOutgoing reports whether source has at least one target on the given
// port class.
func (c Connections) HasOutgoing(source, port string) bool {
	for _, targets := range c[source][port] {
		if len(targets) > 0 {
			return true
		}
	}
	return false
}

// Workflow is the complete generated document in the shape the external
// execution engine expects.
type Workflow struct {
	Name        string         `json:"name"`
	Nodes       []*Node        `json:"nodes"`
	Connections Connections    `json:"connections"`
	Active      bool           `json:"active"`
	Settings    map[string]any `json:"settings"`
	ID          string         `json:"id"`
	Meta        map[string]any `json:"meta,omitempty"`
	Tags        []string       `json:"tags"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// NodeByName returns the node with the given display name, or nil.
func (w *Workflow) NodeByName(name string) *Node {
	for _, n := range w.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// adjacency flattens the connection map into name → successor names,
// preserving port, slot and target order so traversals are deterministic.
func adjacency(nodes []*Node, conns Connections) map[string][]string {
	adj := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		adj[n.Name] = nil
	}

	for _, n := range nodes {
		ports := conns[n.Name]
		for _, port := range portOrder(ports) {
			for _, targets := range ports[port] {
				for _, t := range targets {
					adj[n.Name] = append(adj[n.Name], t.Node)
				}
			}
		}
	}
	return adj
}

// portOrder returns the port classes of a port map with main first and the
// rest sorted, keeping iteration deterministic despite map ordering.
func portOrder(ports map[string][][]Target) []string {
	if ports == nil {
		return nil
	}
	out := make([]string, 0, len(ports))
	if _, ok := ports[PortMain]; ok {
		out = append(out, PortMain)
	}
	rest := make([]string, 0, len(ports))
	for p := range ports {
		if p != PortMain {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// inferRoots returns the names of nodes with no incoming edges, in
// declaration order. Returns nil for an all-cyclic graph.
func inferRoots(nodes []*Node, conns Connections) []string {
	incoming := make(map[string]int, len(nodes))
	for _, ports := range conns {
		for _, slots := range ports {
			for _, targets := range slots {
				for _, t := range targets {
					incoming[t.Node]++
				}
			}
		}
	}

	var roots []string
	for _, n := range nodes {
		if incoming[n.Name] == 0 {
			roots = append(roots, n.Name)
		}
	}
	return roots
}
