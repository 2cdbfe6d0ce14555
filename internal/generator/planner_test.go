package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/catalog"
	"github.com/Defantinis/n8n-ultimate-sub007/internal/graph"
)

func newTestPlanner(t *testing.T) *Planner {
	t.Helper()
	return NewPlanner(nil, catalog.NewRegistry(), nil)
}

func TestPlanner_FallbackPlanStartsWithTrigger(t *testing.T) {
	planner := newTestPlanner(t)

	plan := planner.Plan(context.Background(), RequirementAnalysis{
		Shape:         ShapeScheduled,
		Complexity:    3,
		KeyComponents: []string{"HTTP", "data-processing"},
	}, &Requirements{Description: "Fetch https://api.example.com every hour and log the response"})

	require.NotEmpty(t, plan.Nodes)
	assert.Equal(t, catalog.TypeScheduleTrigger, plan.Nodes[0].Type)
	require.Len(t, plan.Nodes, 3)
	assert.Equal(t, catalog.TypeHTTPRequest, plan.Nodes[1].Type)
	assert.Equal(t, catalog.TypeSet, plan.Nodes[2].Type)
}

func TestPlanner_FallbackPlanChainsSequentially(t *testing.T) {
	planner := newTestPlanner(t)

	plan := planner.Plan(context.Background(), RequirementAnalysis{
		Shape:         ShapeLinear,
		KeyComponents: []string{"HTTP", "notification"},
	}, &Requirements{Description: "fetch and notify"})

	require.Len(t, plan.Nodes, 3)
	require.Len(t, plan.Flow, 2)
	assert.Equal(t, plan.Nodes[0].Name, plan.Flow[0].From)
	assert.Equal(t, plan.Nodes[1].Name, plan.Flow[0].To)
	assert.Equal(t, plan.Nodes[1].Name, plan.Flow[1].From)
	assert.Equal(t, plan.Nodes[2].Name, plan.Flow[1].To)
	for _, f := range plan.Flow {
		assert.Equal(t, FlowKindSuccess, f.Kind)
	}
}

func TestPlanner_FallbackExtractsURL(t *testing.T) {
	planner := newTestPlanner(t)

	plan := planner.Plan(context.Background(), RequirementAnalysis{
		Shape:         ShapeScheduled,
		KeyComponents: []string{"HTTP"},
	}, &Requirements{Description: "Poll https://status.example.com/health every minute"})

	require.Len(t, plan.Nodes, 2)
	require.NotNil(t, plan.Nodes[1].Parameters)
	assert.Equal(t, "https://status.example.com/health", plan.Nodes[1].Parameters["url"])
}

func TestPlanner_FallbackIsTotal(t *testing.T) {
	planner := newTestPlanner(t)

	// No components at all still yields a non-empty plan with a trigger.
	plan := planner.Plan(context.Background(), RequirementAnalysis{Shape: ShapeLinear},
		&Requirements{Description: "do something"})

	require.NotEmpty(t, plan.Nodes)
	assert.Equal(t, catalog.TypeManualTrigger, plan.Nodes[0].Type)
}

func TestPlanner_NormalizeDropsForbiddenTypes(t *testing.T) {
	planner := newTestPlanner(t)

	plan := planner.normalize(Plan{
		Nodes: []NodeSpec{
			{Name: "Trigger", Type: catalog.TypeManualTrigger},
			{Name: "Run Code", Type: catalog.TypeCode},
			{Name: "Store", Type: catalog.TypeSet},
		},
		Flow: []FlowConnection{
			{From: "Trigger", To: "Run Code"},
			{From: "Run Code", To: "Store"},
		},
	}, &Requirements{
		Description: "x",
		Constraints: &Constraints{ForbiddenNodeTypes: []string{catalog.TypeCode}},
	})

	require.Len(t, plan.Nodes, 2)
	assert.Equal(t, "Trigger", plan.Nodes[0].Name)
	assert.Equal(t, "Store", plan.Nodes[1].Name)
	for _, f := range plan.Flow {
		assert.NotEqual(t, "Run Code", f.From)
		assert.NotEqual(t, "Run Code", f.To)
	}
}

func TestPlanner_NormalizeKeepsForbiddenTrigger(t *testing.T) {
	planner := newTestPlanner(t)

	// The entry node survives even when its type is listed as forbidden;
	// a workflow without a trigger cannot run at all.
	plan := planner.normalize(Plan{
		Nodes: []NodeSpec{
			{Name: "Trigger", Type: catalog.TypeManualTrigger},
			{Name: "Store", Type: catalog.TypeSet},
		},
	}, &Requirements{
		Description: "x",
		Constraints: &Constraints{ForbiddenNodeTypes: []string{catalog.TypeManualTrigger}},
	})

	require.Len(t, plan.Nodes, 2)
	assert.Equal(t, catalog.TypeManualTrigger, plan.Nodes[0].Type)
}

func TestPlanner_NormalizeAppendsRequiredTypes(t *testing.T) {
	planner := newTestPlanner(t)

	plan := planner.normalize(Plan{
		Nodes: []NodeSpec{
			{Name: "Trigger", Type: catalog.TypeManualTrigger},
		},
	}, &Requirements{
		Description: "x",
		Constraints: &Constraints{RequiredNodeTypes: []string{catalog.TypeSlack}},
	})

	require.Len(t, plan.Nodes, 2)
	assert.Equal(t, catalog.TypeSlack, plan.Nodes[1].Type)
	require.Len(t, plan.Flow, 1)
	assert.Equal(t, "Trigger", plan.Flow[0].From)
	assert.Equal(t, plan.Nodes[1].Name, plan.Flow[0].To)
}

func TestPlanner_NormalizeSkipsPresentAndUnknownRequired(t *testing.T) {
	planner := newTestPlanner(t)

	plan := planner.normalize(Plan{
		Nodes: []NodeSpec{
			{Name: "Trigger", Type: catalog.TypeManualTrigger},
			{Name: "Notify", Type: catalog.TypeSlack},
		},
	}, &Requirements{
		Description: "x",
		Constraints: &Constraints{
			RequiredNodeTypes: []string{catalog.TypeSlack, "no.suchType"},
		},
	})

	assert.Len(t, plan.Nodes, 2, "already-present and unregistered types are not appended")
}

func TestPlanner_NormalizeCapsNodeCount(t *testing.T) {
	planner := newTestPlanner(t)

	plan := planner.normalize(Plan{
		Nodes: []NodeSpec{
			{Name: "Trigger", Type: catalog.TypeManualTrigger},
			{Name: "A", Type: catalog.TypeSet},
			{Name: "B", Type: catalog.TypeSet},
			{Name: "C", Type: catalog.TypeSet},
		},
		Flow: []FlowConnection{
			{From: "Trigger", To: "A"},
			{From: "A", To: "B"},
			{From: "B", To: "C"},
		},
	}, &Requirements{
		Description: "x",
		Constraints: &Constraints{MaxNodes: 2},
	})

	require.Len(t, plan.Nodes, 2)
	require.Len(t, plan.Flow, 1)
	assert.Equal(t, "Trigger", plan.Flow[0].From)
	assert.Equal(t, "A", plan.Flow[0].To)
}

func TestPlanner_SuggestSimplificationsNilClient(t *testing.T) {
	planner := newTestPlanner(t)

	suggestions := planner.SuggestSimplifications(context.Background(), nil, graph.Analysis{})
	assert.Nil(t, suggestions)
}

func TestParsePlan_AcceptsWellFormed(t *testing.T) {
	text := `Here is my plan:

{"nodes": [{"name": "Start", "type": "n8n-nodes-base.manualTrigger"}], "connections": [], "complexity": 2, "rationale": "minimal"}`

	plan, ok := parsePlan(text)
	require.True(t, ok)
	require.Len(t, plan.Nodes, 1)
	assert.Equal(t, "Start", plan.Nodes[0].Name)
	assert.Equal(t, 2, plan.Complexity)
}

func TestParsePlan_RejectsEmptyNodes(t *testing.T) {
	_, ok := parsePlan(`{"nodes": [], "connections": []}`)
	assert.False(t, ok)
}

func TestParsePlan_RejectsMissingType(t *testing.T) {
	_, ok := parsePlan(`{"nodes": [{"name": "Unnamed"}]}`)
	assert.False(t, ok)
}

func TestParsePlan_RejectsTruncatedJSON(t *testing.T) {
	_, ok := parsePlan(`{"nodes": [{"name": "Start", "type": "n8n-nodes-base.manualTrig`)
	assert.False(t, ok)
}

func TestNodeDisplayName(t *testing.T) {
	assert.Equal(t, "Http Request 2", nodeDisplayName("n8n-nodes-base.httpRequest", 2))
	assert.Equal(t, "Schedule Trigger 1", nodeDisplayName("n8n-nodes-base.scheduleTrigger", 1))
	assert.Equal(t, "Agent 3", nodeDisplayName("@n8n/n8n-nodes-langchain.agent", 3))
	assert.Equal(t, "Plain 1", nodeDisplayName("plain", 1))
}
