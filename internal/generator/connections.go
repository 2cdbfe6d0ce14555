package generator

import (
	"fmt"
	"log/slog"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/catalog"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/graph"
)

// ConnectionBuilder resolves a plan's abstract flow into the concrete
// adjacency structure, repairing what the plan left broken. References to
// nodes that don't exist are skipped with a recorded warning, never a crash.
type ConnectionBuilder struct {
	registry *catalog.Registry
	logger   *slog.Logger
}

// NewConnectionBuilder creates a connection builder over the registry.
func NewConnectionBuilder(registry *catalog.Registry, logger *slog.Logger) *ConnectionBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionBuilder{registry: registry, logger: logger.With("component", "connections")}
}

// Build resolves every flow connection against node id or display name and
// assembles the adjacency map. Invariants enforced afterwards:
//   - every trigger-class node has at least one outgoing main connection;
//     a disconnected trigger is auto-connected to the first non-trigger node
//     in declaration order
//   - a degenerate plan (no explicit connections but a detected trigger)
//     falls back entirely to a strict linear chain over the node list
//
// Returned warnings describe every repair and every skipped reference.
func (b *ConnectionBuilder) Build(nodes []*graph.Node, flows []FlowConnection) (graph.Connections, []string) {
	conns := make(graph.Connections)
	var warnings []string

	byID := make(map[string]*graph.Node, len(nodes))
	byName := make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		byName[n.Name] = n
	}
	resolve := func(ref string) *graph.Node {
		if n, ok := byID[ref]; ok {
			return n
		}
		return byName[ref]
	}

	if len(flows) == 0 && b.firstTrigger(nodes) != nil {
		b.chainLinear(nodes, conns)
		return conns, warnings
	}

	for _, flow := range flows {
		source := resolve(flow.From)
		target := resolve(flow.To)
		if source == nil || target == nil {
			warning := fmt.Sprintf("skipping connection %q -> %q: unknown node reference", flow.From, flow.To)
			warnings = append(warnings, warning)
			b.logger.Warn("skipping unresolvable flow connection", "from", flow.From, "to", flow.To)
			continue
		}

		port := portClassFor(flow.Kind)
		slot := b.slotFor(source, flow)
		conns.Add(source.Name, port, slot, graph.Target{
			Node:  target.Name,
			Type:  port,
			Index: 0,
		})
	}

	warnings = append(warnings, b.repairTriggers(nodes, conns)...)
	return conns, warnings
}

// portClassFor maps a logical flow kind onto a physical port class.
// Success, error and data flows collapse onto the main port; the
// specialized AI classes are preserved.
func portClassFor(kind string) string {
	switch kind {
	case FlowKindTool:
		return graph.PortAITool
	case FlowKindMemory:
		return graph.PortAIMemory
	case FlowKindModel:
		return graph.PortAILanguageMdl
	case FlowKindDocument:
		return graph.PortAIDocument
	default:
		return graph.PortMain
	}
}

// slotFor selects the output slot. Branch semantics only apply to binary
// conditionals: the true branch takes slot 0 and the false branch slot 1.
// Every other node type emits on slot 0.
func (b *ConnectionBuilder) slotFor(source *graph.Node, flow FlowConnection) int {
	if source.Type != catalog.TypeIf && source.Type != catalog.TypeSwitch {
		return 0
	}
	switch flow.Branch {
	case "false":
		return 1
	default:
		return 0
	}
}

// repairTriggers auto-connects any trigger left without an outgoing main
// connection to the first non-trigger node in declaration order.
func (b *ConnectionBuilder) repairTriggers(nodes []*graph.Node, conns graph.Connections) []string {
	firstNonTrigger := b.firstNonTrigger(nodes)
	if firstNonTrigger == nil {
		return nil
	}

	var warnings []string
	for _, n := range nodes {
		if !b.registry.IsTrigger(n.Type) {
			continue
		}
		if conns.HasOutgoing(n.Name, graph.PortMain) {
			continue
		}
		conns.Add(n.Name, graph.PortMain, 0, graph.Target{
			Node:  firstNonTrigger.Name,
			Type:  graph.PortMain,
			Index: 0,
		})
		warnings = append(warnings,
			fmt.Sprintf("trigger %q had no outgoing connection; connected it to %q", n.Name, firstNonTrigger.Name))
		b.logger.Debug("repaired disconnected trigger", "trigger", n.Name, "target", firstNonTrigger.Name)
	}
	return warnings
}

// chainLinear wires the node list into a strict sequential chain.
func (b *ConnectionBuilder) chainLinear(nodes []*graph.Node, conns graph.Connections) {
	for i := 0; i+1 < len(nodes); i++ {
		conns.Add(nodes[i].Name, graph.PortMain, 0, graph.Target{
			Node:  nodes[i+1].Name,
			Type:  graph.PortMain,
			Index: 0,
		})
	}
}

func (b *ConnectionBuilder) firstTrigger(nodes []*graph.Node) *graph.Node {
	for _, n := range nodes {
		if b.registry.IsTrigger(n.Type) {
			return n
		}
	}
	return nil
}

func (b *ConnectionBuilder) firstNonTrigger(nodes []*graph.Node) *graph.Node {
	for _, n := range nodes {
		if !b.registry.IsTrigger(n.Type) {
			return n
		}
	}
	return nil
}
