package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/archistory/internal/chrometime"
)

func TestBuildPredicate_Empty(t *testing.T) {
	p := BuildPredicate(Filter{})
	assert.Empty(t, p.Clauses)
	assert.Empty(t, p.Args)
	assert.Equal(t, "1=1", p.Where())
	assert.Equal(t, "1=1", MatchAll.Where())
}

func TestBuildPredicate_Keyword(t *testing.T) {
	p := BuildPredicate(Filter{Keyword: "github"})
	require.Len(t, p.Clauses, 1)
	assert.Equal(t, "(urls.url LIKE ? OR urls.title LIKE ?)", p.Where())
	assert.Equal(t, []any{"%github%", "%github%"}, p.Args)
}

func TestBuildPredicate_KeywordIsNeverInterpolated(t *testing.T) {
	p := BuildPredicate(Filter{Keyword: "x' OR 1=1 --"})
	assert.NotContains(t, p.Where(), "OR 1=1")
	assert.Equal(t, "%x' OR 1=1 --%", p.Args[0])
}

func TestBuildPredicate_DateBounds(t *testing.T) {
	start := time.Date(2024, 2, 1, 15, 30, 0, 0, time.Local)
	end := time.Date(2024, 2, 28, 8, 0, 0, 0, time.Local)

	p := BuildPredicate(Filter{StartDate: start, EndDate: end})
	assert.Equal(t, "visits.visit_time >= ? AND visits.visit_time <= ?", p.Where())
	require.Len(t, p.Args, 2)

	wantStart, err := chrometime.FromTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	wantEnd, err := chrometime.FromTime(time.Date(2024, 2, 28, 23, 59, 59, 0, time.Local))
	require.NoError(t, err)

	assert.Equal(t, wantStart, p.Args[0])
	assert.Equal(t, wantEnd, p.Args[1])
}

func TestBuildPredicate_AllClausesInOrder(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	p := BuildPredicate(Filter{Keyword: "go", StartDate: day, EndDate: day})

	assert.Equal(t,
		"(urls.url LIKE ? OR urls.title LIKE ?) AND visits.visit_time >= ? AND visits.visit_time <= ?",
		p.Where())
	assert.Len(t, p.Args, 4)
}

func TestBuildPredicate_AncientDateIsClamped(t *testing.T) {
	p := BuildPredicate(Filter{StartDate: time.Date(1200, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.Len(t, p.Args, 1)
	assert.GreaterOrEqual(t, p.Args[0].(int64), int64(0))
}

func TestStartAndEndOfDay(t *testing.T) {
	ts := time.Date(2024, 3, 10, 13, 14, 15, 16, time.Local)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local), StartOfDay(ts))
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 0, time.Local), EndOfDay(ts))
}
