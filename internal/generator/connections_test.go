package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/catalog"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/graph"
)

func testNode(id, name, typeID string) *graph.Node {
	return &graph.Node{ID: id, Name: name, Type: typeID, Parameters: map[string]any{}}
}

func TestConnectionBuilder_ResolvesByName(t *testing.T) {
	builder := NewConnectionBuilder(catalog.NewRegistry(), nil)
	nodes := []*graph.Node{
		testNode("id-1", "Trigger", catalog.TypeManualTrigger),
		testNode("id-2", "Fetch", catalog.TypeHTTPRequest),
	}

	conns, warnings := builder.Build(nodes, []FlowConnection{
		{From: "Trigger", To: "Fetch", Kind: FlowKindSuccess},
	})

	assert.Empty(t, warnings)
	require.Contains(t, conns, "Trigger")
	targets := conns["Trigger"][graph.PortMain][0]
	require.Len(t, targets, 1)
	assert.Equal(t, graph.Target{Node: "Fetch", Type: graph.PortMain, Index: 0}, targets[0])
}

func TestConnectionBuilder_ResolvesByID(t *testing.T) {
	builder := NewConnectionBuilder(catalog.NewRegistry(), nil)
	nodes := []*graph.Node{
		testNode("id-1", "Trigger", catalog.TypeManualTrigger),
		testNode("id-2", "Fetch", catalog.TypeHTTPRequest),
	}

	conns, warnings := builder.Build(nodes, []FlowConnection{
		{From: "id-1", To: "id-2"},
	})

	assert.Empty(t, warnings)
	// The adjacency map is keyed by display name regardless of how the flow
	// referenced the node.
	assert.True(t, conns.HasOutgoing("Trigger", graph.PortMain))
}

func TestConnectionBuilder_SkipsUnknownReferences(t *testing.T) {
	builder := NewConnectionBuilder(catalog.NewRegistry(), nil)
	nodes := []*graph.Node{
		testNode("id-1", "Trigger", catalog.TypeManualTrigger),
		testNode("id-2", "Fetch", catalog.TypeHTTPRequest),
	}

	conns, warnings := builder.Build(nodes, []FlowConnection{
		{From: "Trigger", To: "Fetch"},
		{From: "Ghost", To: "Fetch"},
		{From: "Fetch", To: "Phantom"},
	})

	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "Ghost")
	assert.Contains(t, warnings[1], "Phantom")
	assert.NotContains(t, conns, "Ghost")
	assert.Equal(t, 1, conns.Total())
}

func TestConnectionBuilder_AIPortClasses(t *testing.T) {
	builder := NewConnectionBuilder(catalog.NewRegistry(), nil)
	nodes := []*graph.Node{
		testNode("id-1", "Trigger", catalog.TypeManualTrigger),
		testNode("id-2", "Agent", catalog.TypeAgent),
		testNode("id-3", "Model", catalog.TypeLanguageModel),
		testNode("id-4", "Memory", catalog.TypeMemory),
		testNode("id-5", "Tool", catalog.TypeToolHTTP),
	}

	conns, _ := builder.Build(nodes, []FlowConnection{
		{From: "Trigger", To: "Agent", Kind: FlowKindSuccess},
		{From: "Model", To: "Agent", Kind: FlowKindModel},
		{From: "Memory", To: "Agent", Kind: FlowKindMemory},
		{From: "Tool", To: "Agent", Kind: FlowKindTool},
	})

	assert.True(t, conns.HasOutgoing("Trigger", graph.PortMain))
	assert.True(t, conns.HasOutgoing("Model", graph.PortAILanguageMdl))
	assert.True(t, conns.HasOutgoing("Memory", graph.PortAIMemory))
	assert.True(t, conns.HasOutgoing("Tool", graph.PortAITool))
}

func TestConnectionBuilder_BranchSlots(t *testing.T) {
	builder := NewConnectionBuilder(catalog.NewRegistry(), nil)
	nodes := []*graph.Node{
		testNode("id-1", "Trigger", catalog.TypeManualTrigger),
		testNode("id-2", "Check", catalog.TypeIf),
		testNode("id-3", "Yes", catalog.TypeSet),
		testNode("id-4", "No", catalog.TypeSet),
	}

	conns, _ := builder.Build(nodes, []FlowConnection{
		{From: "Trigger", To: "Check"},
		{From: "Check", To: "Yes", Branch: "true"},
		{From: "Check", To: "No", Branch: "false"},
	})

	slots := conns["Check"][graph.PortMain]
	require.Len(t, slots, 2)
	assert.Equal(t, "Yes", slots[0][0].Node)
	assert.Equal(t, "No", slots[1][0].Node)
}

func TestConnectionBuilder_BranchIgnoredOnNonConditional(t *testing.T) {
	builder := NewConnectionBuilder(catalog.NewRegistry(), nil)
	nodes := []*graph.Node{
		testNode("id-1", "Trigger", catalog.TypeManualTrigger),
		testNode("id-2", "Fetch", catalog.TypeHTTPRequest),
	}

	conns, _ := builder.Build(nodes, []FlowConnection{
		{From: "Trigger", To: "Fetch", Branch: "false"},
	})

	slots := conns["Trigger"][graph.PortMain]
	require.Len(t, slots, 1, "branch hints only apply to conditional node types")
	assert.Equal(t, "Fetch", slots[0][0].Node)
}

func TestConnectionBuilder_DegeneratePlanChainsLinear(t *testing.T) {
	builder := NewConnectionBuilder(catalog.NewRegistry(), nil)
	nodes := []*graph.Node{
		testNode("id-1", "Trigger", catalog.TypeScheduleTrigger),
		testNode("id-2", "Fetch", catalog.TypeHTTPRequest),
		testNode("id-3", "Store", catalog.TypeSet),
	}

	conns, warnings := builder.Build(nodes, nil)

	assert.Empty(t, warnings)
	assert.Equal(t, 2, conns.Total())
	assert.Equal(t, "Fetch", conns["Trigger"][graph.PortMain][0][0].Node)
	assert.Equal(t, "Store", conns["Fetch"][graph.PortMain][0][0].Node)
}

func TestConnectionBuilder_NoFlowsNoTrigger(t *testing.T) {
	builder := NewConnectionBuilder(catalog.NewRegistry(), nil)
	nodes := []*graph.Node{
		testNode("id-1", "Fetch", catalog.TypeHTTPRequest),
		testNode("id-2", "Store", catalog.TypeSet),
	}

	conns, _ := builder.Build(nodes, nil)
	// Without a trigger the linear fallback does not apply; the graph is
	// left for validation to flag.
	assert.Equal(t, 0, conns.Total())
}

func TestConnectionBuilder_RepairsDisconnectedTrigger(t *testing.T) {
	builder := NewConnectionBuilder(catalog.NewRegistry(), nil)
	nodes := []*graph.Node{
		testNode("id-1", "Trigger", catalog.TypeWebhook),
		testNode("id-2", "Fetch", catalog.TypeHTTPRequest),
		testNode("id-3", "Store", catalog.TypeSet),
	}

	// The plan only wired the middle of the chain.
	conns, warnings := builder.Build(nodes, []FlowConnection{
		{From: "Fetch", To: "Store"},
	})

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Trigger")
	assert.True(t, conns.HasOutgoing("Trigger", graph.PortMain))
	assert.Equal(t, "Fetch", conns["Trigger"][graph.PortMain][0][0].Node)
}

func TestConnectionBuilder_ConnectedTriggerNotRepaired(t *testing.T) {
	builder := NewConnectionBuilder(catalog.NewRegistry(), nil)
	nodes := []*graph.Node{
		testNode("id-1", "Trigger", catalog.TypeWebhook),
		testNode("id-2", "Fetch", catalog.TypeHTTPRequest),
	}

	conns, warnings := builder.Build(nodes, []FlowConnection{
		{From: "Trigger", To: "Fetch"},
	})

	assert.Empty(t, warnings)
	require.Len(t, conns["Trigger"][graph.PortMain][0], 1)
}
