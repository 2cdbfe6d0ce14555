package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/catalog"
)

func TestAnalyzer_FallbackShapes(t *testing.T) {
	tests := []struct {
		name string
		req  *Requirements
		want AnalysisShape
	}{
		{
			name: "scheduled from interval phrase",
			req:  &Requirements{Description: "Fetch the report every hour and file it"},
			want: ShapeScheduled,
		},
		{
			name: "scheduled from cron keyword",
			req:  &Requirements{Description: "Run a cron job to clean up stale records"},
			want: ShapeScheduled,
		},
		{
			name: "event driven from webhook keyword",
			req:  &Requirements{Description: "When the webhook fires, post to Slack"},
			want: ShapeEventDriven,
		},
		{
			name: "event driven from webhook input",
			req: &Requirements{
				Description: "Process incoming orders",
				Inputs:      []IOField{{Name: "order", Type: "webhook"}},
			},
			want: ShapeEventDriven,
		},
		{
			name: "conditional from branch keyword",
			req:  &Requirements{Description: "Check the status and branch on the result"},
			want: ShapeConditional,
		},
		{
			name: "parallel from keyword",
			req:  &Requirements{Description: "Call three services in parallel and collect results"},
			want: ShapeParallel,
		},
		{
			name: "linear by default",
			req:  &Requirements{Description: "Copy records from one place to another"},
			want: ShapeLinear,
		},
	}

	analyzer := NewAnalyzer(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := analyzer.Analyze(context.Background(), tt.req)
			assert.Equal(t, tt.want, analysis.Shape)
		})
	}
}

func TestAnalyzer_FallbackComponents(t *testing.T) {
	analyzer := NewAnalyzer(nil, nil)

	analysis := analyzer.Analyze(context.Background(), &Requirements{
		Description: "Fetch https://api.example.com every hour, store the rows in postgres and alert slack on failure",
	})

	assert.Contains(t, analysis.KeyComponents, "HTTP")
	assert.Contains(t, analysis.KeyComponents, "database")
	assert.Contains(t, analysis.KeyComponents, "notification")
	assert.Contains(t, analysis.SuggestedNodeTypes, catalog.TypeScheduleTrigger)
	assert.Contains(t, analysis.SuggestedNodeTypes, catalog.TypeHTTPRequest)
}

func TestAnalyzer_FallbackComponentsFromType(t *testing.T) {
	analyzer := NewAnalyzer(nil, nil)

	analysis := analyzer.Analyze(context.Background(), &Requirements{
		Description: "Tell the team when something happens",
		Type:        TypeNotification,
	})
	assert.Contains(t, analysis.KeyComponents, "notification")
}

func TestAnalyzer_FallbackComplexityBounds(t *testing.T) {
	analyzer := NewAnalyzer(nil, nil)

	simple := analyzer.Analyze(context.Background(), &Requirements{
		Description: "Copy a value",
	})
	assert.GreaterOrEqual(t, simple.Complexity, 1)
	assert.LessOrEqual(t, simple.Complexity, 10)

	busy := analyzer.Analyze(context.Background(), &Requirements{
		Description: "Process the order pipeline if the payment condition holds",
		Type:        TypeDataProcessing,
		Steps:       []string{"a", "b", "c", "d", "e", "f", "g"},
		Inputs:      []IOField{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		Outputs:     []IOField{{Name: "d"}, {Name: "e"}},
	})
	assert.Greater(t, busy.Complexity, simple.Complexity)
	assert.LessOrEqual(t, busy.Complexity, 10)
}

func TestAnalyzer_FallbackIsTotal(t *testing.T) {
	analyzer := NewAnalyzer(nil, nil)

	// Even a hostile empty-ish input yields a structurally valid analysis.
	analysis := analyzer.Analyze(context.Background(), &Requirements{Description: "x"})
	require.True(t, analysis.Shape.IsValid())
	assert.NotNil(t, analysis.KeyComponents)
	assert.NotEmpty(t, analysis.SuggestedNodeTypes)
	assert.GreaterOrEqual(t, analysis.Complexity, 1)
}

func TestParseAnalysis_AcceptsWellFormed(t *testing.T) {
	text := `The request is a scheduled data fetch.

{"workflowShape": "scheduled", "complexity": 4, "keyComponents": ["HTTP"], "suggestedNodeTypes": ["n8n-nodes-base.scheduleTrigger"]}`

	analysis, ok := parseAnalysis(text)
	require.True(t, ok)
	assert.Equal(t, ShapeScheduled, analysis.Shape)
	assert.Equal(t, 4, analysis.Complexity)
	assert.Equal(t, []string{"HTTP"}, analysis.KeyComponents)
}

func TestParseAnalysis_RejectsUnknownShape(t *testing.T) {
	_, ok := parseAnalysis(`{"workflowShape": "zigzag", "complexity": 4}`)
	assert.False(t, ok)
}

func TestParseAnalysis_ClampsComplexity(t *testing.T) {
	analysis, ok := parseAnalysis(`{"workflowShape": "linear", "complexity": 99}`)
	require.True(t, ok)
	assert.Equal(t, 10, analysis.Complexity)

	analysis, ok = parseAnalysis(`{"workflowShape": "linear", "complexity": -3}`)
	require.True(t, ok)
	assert.Equal(t, 1, analysis.Complexity)
}

func TestParseAnalysis_RejectsGarbage(t *testing.T) {
	_, ok := parseAnalysis("I could not decide on a classification.")
	assert.False(t, ok)
}
