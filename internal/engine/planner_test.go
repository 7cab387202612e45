package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/event_research/internal/model"
)

func TestPlannerNormalizesQueries(t *testing.T) {
	t.Parallel()

	completer := &fakeLLM{queries: `1. Fed September meeting
- "FOMC rate expectations"

2) fed september meeting
* CPI August inflation report release date and market reaction today
jobs report`}

	queries, err := NewPlanner(completer, 6, 7).Plan(context.Background(), twoMarketEvent("E1"), "desc")
	require.NoError(t, err)
	require.Equal(t, []string{
		"Fed September meeting",
		"FOMC rate expectations",
		"CPI August inflation report release date and",
		"jobs report",
		"Fed decision in September?",
		"Hike",
	}, queries)
}

func TestPlannerTruncatesToLimit(t *testing.T) {
	t.Parallel()

	completer := &fakeLLM{queries: "a\nb\nc\nd\ne\nf\ng\nh"}
	queries, err := NewPlanner(completer, 6, 7).Plan(context.Background(), twoMarketEvent("E1"), "desc")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, queries)
}

func TestPlannerErrors(t *testing.T) {
	t.Parallel()

	_, err := NewPlanner(&fakeLLM{queries: "  \n\n"}, 6, 7).Plan(context.Background(), twoMarketEvent("E1"), "desc")
	require.ErrorIs(t, err, ErrNoQueries)

	boom := errors.New("boom")
	_, err = NewPlanner(&fakeLLM{planErr: boom}, 6, 7).Plan(context.Background(), twoMarketEvent("E1"), "desc")
	require.ErrorIs(t, err, boom)
}

func TestPlannerKeepsLeadingDecimals(t *testing.T) {
	t.Parallel()

	completer := &fakeLLM{queries: "2.5 percent GDP growth forecast\n3.5% inflation\n1. 4.2 unemployment rate\n- -0.3 retail sales"}
	queries, err := NewPlanner(completer, 4, 7).Plan(context.Background(), twoMarketEvent("E1"), "desc")
	require.NoError(t, err)
	require.Equal(t, []string{
		"2.5 percent GDP growth forecast",
		"3.5% inflation",
		"4.2 unemployment rate",
		"-0.3 retail sales",
	}, queries)
}

func TestPlannerPadsToRequestedCount(t *testing.T) {
	t.Parallel()

	event := &model.Event{
		Ticker: "KXCPI-25SEP",
		Title:  "Will CPI exceed 3%?",
		Markets: []model.Market{
			{Ticker: "KXCPI-25SEP-T3", Title: "Will CPI exceed 3%?"},
		},
	}
	completer := &fakeLLM{queries: "cpi forecast"}

	queries, err := NewPlanner(completer, 6, 7).Plan(context.Background(), event, "desc")
	require.NoError(t, err)
	require.Equal(t, []string{
		"cpi forecast",
		"Will CPI exceed 3%?",
		"Will CPI exceed 3%? latest news",
		"Will CPI exceed 3%? forecast",
		"Will CPI exceed 3%? odds",
		"Will CPI exceed 3%? analysis",
	}, queries)
}

func TestPlannerPaddingRespectsWordLimit(t *testing.T) {
	t.Parallel()

	event := &model.Event{
		Ticker:  "KXRACE",
		Title:   "Who will win the 2025 Italian Grand Prix race",
		Markets: []model.Market{{Title: "Who will win the 2025 Italian Grand Prix race"}},
	}
	queries, err := NewPlanner(&fakeLLM{queries: "monza qualifying results"}, 4, 7).Plan(context.Background(), event, "desc")
	require.NoError(t, err)
	require.Len(t, queries, 4)
	require.Equal(t, "Who will win the 2025 latest news", queries[2])
	for _, q := range queries {
		require.LessOrEqual(t, len(strings.Fields(q)), 7)
	}
}
