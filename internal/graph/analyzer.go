package graph

import (
	"sort"
	"strings"
)

// Analysis is the structural metadata computed for a workflow graph.
type Analysis struct {
	NodeCount       int      `json:"nodeCount"`
	ConnectionCount int      `json:"connectionCount"`
	NodeTypes       []string `json:"nodeTypes"`
	HasLoops        bool     `json:"hasLoops"`
	MaxDepth        int      `json:"maxDepth"`
	ComplexityScore int      `json:"complexityScore"`
}

// heavyTypeMarkers identify node types that weigh extra in complexity
// scoring: code execution, outbound HTTP and agent orchestration.
var heavyTypeMarkers = []string{".code", ".httpRequest", ".agent"}

// Analyze computes node/connection counts, the distinct node types present,
// cycle presence, maximum depth and a 1-10 complexity score. It is a pure
// function and terminates on any graph, fully cyclic ones included.
func Analyze(w *Workflow) Analysis {
	a := Analysis{
		NodeCount:       len(w.Nodes),
		ConnectionCount: w.Connections.Total(),
		NodeTypes:       distinctTypes(w.Nodes),
	}
	if a.NodeCount == 0 {
		a.ComplexityScore = 1
		return a
	}

	adj := adjacency(w.Nodes, w.Connections)
	a.HasLoops = detectCycle(w.Nodes, adj)
	a.MaxDepth = maxDepth(w.Nodes, w.Connections, adj)
	a.ComplexityScore = complexityScore(a, w.Nodes)
	return a
}

func distinctTypes(nodes []*Node) []string {
	seen := make(map[string]struct{}, len(nodes))
	var out []string
	for _, n := range nodes {
		if _, ok := seen[n.Type]; ok {
			continue
		}
		seen[n.Type] = struct{}{}
		out = append(out, n.Type)
	}
	sort.Strings(out)
	return out
}

// detectCycle runs DFS with an explicit recursion-stack set. A neighbor that
// is currently on the stack signals a back edge. A separate visited set
// guarantees each node is explored at most once globally, so the walk is
// O(nodes+edges) even on a fully cyclic graph.
func detectCycle(nodes []*Node, adj map[string][]string) bool {
	visited := make(map[string]bool, len(nodes))
	onStack := make(map[string]bool, len(nodes))

	var dfs func(name string) bool
	dfs = func(name string) bool {
		visited[name] = true
		onStack[name] = true
		for _, next := range adj[name] {
			if onStack[next] {
				return true
			}
			if !visited[next] && dfs(next) {
				return true
			}
		}
		onStack[name] = false
		return false
	}

	for _, n := range nodes {
		if !visited[n.Name] && dfs(n.Name) {
			return true
		}
	}
	return false
}

// maxDepth computes the longest path length (in nodes) reachable from any
// inferred root via memoized DFS. An all-cyclic graph has no roots; depth is
// then measured from the first node in declaration order. Nodes currently on
// the DFS stack contribute zero depth, which keeps the walk finite under
// cycles.
func maxDepth(nodes []*Node, conns Connections, adj map[string][]string) int {
	if len(nodes) == 0 {
		return 0
	}

	memo := make(map[string]int, len(nodes))
	onStack := make(map[string]bool, len(nodes))

	var depth func(name string) int
	depth = func(name string) int {
		if d, ok := memo[name]; ok {
			return d
		}
		if onStack[name] {
			return 0
		}
		onStack[name] = true
		best := 0
		for _, next := range adj[name] {
			if d := depth(next); d > best {
				best = d
			}
		}
		onStack[name] = false
		memo[name] = best + 1
		return best + 1
	}

	roots := inferRoots(nodes, conns)
	if len(roots) == 0 {
		roots = []string{nodes[0].Name}
	}

	max := 0
	for _, root := range roots {
		if d := depth(root); d > max {
			max = d
		}
	}
	return max
}

// complexityScore derives an integer in [1,10] from node-count tier, average
// connections per node, cycle presence, depth tier, and heavy node types.
func complexityScore(a Analysis, nodes []*Node) int {
	score := 0

	switch {
	case a.NodeCount <= 3:
		score++
	case a.NodeCount <= 6:
		score += 2
	case a.NodeCount <= 10:
		score += 3
	default:
		score += 4
	}

	avg := float64(a.ConnectionCount) / float64(a.NodeCount)
	switch {
	case avg >= 2:
		score += 2
	case avg >= 1:
		score++
	}

	if a.HasLoops {
		score += 2
	}

	switch {
	case a.MaxDepth >= 7:
		score += 2
	case a.MaxDepth >= 4:
		score++
	}

	heavy := 0
	for _, n := range nodes {
		if isHeavyType(n.Type) {
			heavy++
		}
	}
	switch {
	case heavy >= 3:
		score += 2
	case heavy >= 1:
		score++
	}

	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

func isHeavyType(typeID string) bool {
	lower := strings.ToLower(typeID)
	for _, marker := range heavyTypeMarkers {
		if strings.HasSuffix(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
