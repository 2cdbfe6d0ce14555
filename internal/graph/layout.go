package graph

// Layout constants. Positions are deterministic: the same topology always
// produces the same coordinates.
const (
	layoutOriginX  = 250.0
	layoutOriginY  = 300.0
	layoutHSpacing = 280.0
	layoutVSpacing = 180.0
	gridColumns    = 4
)

// Shape is the topology class a graph is laid out as.
type Shape string

const (
	ShapeLinear      Shape = "linear"
	ShapeFanOut      Shape = "fan-out"
	ShapeConditional Shape = "conditional"
	ShapeComplex     Shape = "complex"
)

// Layout assigns canvas positions to every node based on the graph's
// topology class. Connections are never modified, only node positions.
// Unclassified or cyclic graphs fall back to a deterministic grid indexed
// by declaration order. Returns the shape that was applied.
func Layout(nodes []*Node, conns Connections) Shape {
	if len(nodes) == 0 {
		return ShapeComplex
	}

	adj := adjacency(nodes, conns)
	shape := classifyShape(nodes, conns, adj)

	switch shape {
	case ShapeLinear:
		layoutLinear(nodes, adj)
	case ShapeFanOut, ShapeConditional:
		layoutLayered(nodes, conns, adj)
	default:
		layoutGrid(nodes)
	}
	return shape
}

// classifyShape runs structural tests on the in/out-degree sequences
// starting from the inferred roots.
func classifyShape(nodes []*Node, conns Connections, adj map[string][]string) Shape {
	if detectCycle(nodes, adj) {
		return ShapeComplex
	}

	roots := inferRoots(nodes, conns)
	if len(roots) != 1 {
		return ShapeComplex
	}

	inDegree := make(map[string]int, len(nodes))
	for _, successors := range adj {
		for _, next := range successors {
			inDegree[next]++
		}
	}

	var branching []string
	for _, n := range nodes {
		if len(adj[n.Name]) > 1 {
			branching = append(branching, n.Name)
		}
		if inDegree[n.Name] > 1 {
			// A join point means neither a chain nor a simple fan.
			return ShapeComplex
		}
	}

	switch len(branching) {
	case 0:
		return ShapeLinear
	case 1:
		// A single branch node splitting over two output slots is a
		// conditional; a multi-target single slot is a parallel fan-out.
		if slotCount(conns, branching[0]) >= 2 {
			return ShapeConditional
		}
		return ShapeFanOut
	default:
		return ShapeComplex
	}
}

// slotCount returns the number of populated main-port output slots.
func slotCount(conns Connections, source string) int {
	count := 0
	for _, targets := range conns[source][PortMain] {
		if len(targets) > 0 {
			count++
		}
	}
	return count
}

// layoutLinear places the chain left to right from its root.
func layoutLinear(nodes []*Node, adj map[string][]string) {
	order := bfsOrder(nodes, adj)
	for i, n := range order {
		n.Position = Position{layoutOriginX + float64(i)*layoutHSpacing, layoutOriginY}
	}
}

// layoutLayered places nodes in BFS layers: one column per depth level,
// nodes within a level stacked vertically and centred on the origin row.
// Both fan-out and conditional shapes use this placement; for conditionals
// the slot order already puts the true branch above the false branch.
func layoutLayered(nodes []*Node, conns Connections, adj map[string][]string) {
	levels := bfsLevels(nodes, conns, adj)
	for depth, level := range levels {
		offset := float64(len(level)-1) / 2
		for i, n := range level {
			n.Position = Position{
				layoutOriginX + float64(depth)*layoutHSpacing,
				layoutOriginY + (float64(i)-offset)*layoutVSpacing,
			}
		}
	}
}

// layoutGrid is the fallback: a fixed-width grid in declaration order.
func layoutGrid(nodes []*Node) {
	for i, n := range nodes {
		n.Position = Position{
			layoutOriginX + float64(i%gridColumns)*layoutHSpacing,
			layoutOriginY + float64(i/gridColumns)*layoutVSpacing,
		}
	}
}

// bfsOrder walks the graph breadth-first from the inferred roots (or the
// first node), appending any disconnected leftovers in declaration order.
func bfsOrder(nodes []*Node, adj map[string][]string) []*Node {
	byName := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
	}

	visited := make(map[string]bool, len(nodes))
	var order []*Node

	// Roots are recomputed from adjacency to avoid re-walking connections.
	var queue []string
	incoming := incomingCount(adj)
	for _, n := range nodes {
		if len(incoming[n.Name]) == 0 {
			queue = append(queue, n.Name)
			visited[n.Name] = true
		}
	}
	if len(queue) == 0 {
		queue = []string{nodes[0].Name}
		visited[nodes[0].Name] = true
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, byName[current])
		for _, next := range adj[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, n := range nodes {
		if !visited[n.Name] {
			order = append(order, n)
		}
	}
	return order
}

// bfsLevels groups nodes by BFS depth from the inferred roots.
func bfsLevels(nodes []*Node, conns Connections, adj map[string][]string) [][]*Node {
	byName := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
	}

	depthOf := make(map[string]int, len(nodes))
	visited := make(map[string]bool, len(nodes))

	roots := inferRoots(nodes, conns)
	if len(roots) == 0 {
		roots = []string{nodes[0].Name}
	}

	queue := append([]string(nil), roots...)
	for _, r := range roots {
		visited[r] = true
		depthOf[r] = 0
	}

	maxLevel := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adj[current] {
			if visited[next] {
				continue
			}
			visited[next] = true
			depthOf[next] = depthOf[current] + 1
			if depthOf[next] > maxLevel {
				maxLevel = depthOf[next]
			}
			queue = append(queue, next)
		}
	}

	levels := make([][]*Node, maxLevel+1)
	for _, n := range nodes {
		if !visited[n.Name] {
			continue
		}
		d := depthOf[n.Name]
		levels[d] = append(levels[d], n)
	}

	// Disconnected leftovers go on an extra trailing level.
	var leftovers []*Node
	for _, n := range nodes {
		if !visited[n.Name] {
			leftovers = append(leftovers, n)
		}
	}
	if len(leftovers) > 0 {
		levels = append(levels, leftovers)
	}
	return levels
}

// incomingCount inverts an adjacency map into target → sources.
func incomingCount(adj map[string][]string) map[string][]string {
	incoming := make(map[string][]string, len(adj))
	for name := range adj {
		incoming[name] = nil
	}
	for source, successors := range adj {
		for _, next := range successors {
			incoming[next] = append(incoming[next], source)
		}
	}
	return incoming
}
