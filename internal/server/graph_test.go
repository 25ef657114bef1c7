package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/pathium/models"
)

func seedGraph() *Graph {
	g := NewGraph()
	g.AddEdges([]models.EdgeCreate{
		{FromNode: 0, ToNode: 1, Weight: 5.0},
		{FromNode: 1, ToNode: 2, Weight: 3.0},
		{FromNode: 2, ToNode: 3, Weight: 2.0},
	})
	return g
}

func TestGraphInfoCountsNodesAndEdges(t *testing.T) {
	g := seedGraph()
	info := g.Info()
	assert.Equal(t, 4, info.NodeCount)
	assert.Equal(t, 3, info.EdgeCount)

	g.AddNode(10)
	assert.Equal(t, 11, g.Info().NodeCount)
	assert.Equal(t, 3, g.Info().EdgeCount)
}

func TestShortestPathOverSeedGraph(t *testing.T) {
	g := seedGraph()

	distance, path, err := g.ShortestPath(0, 3, false)
	require.NoError(t, err)
	assert.Equal(t, 10.0, distance)
	assert.Equal(t, []int{0, 1, 2, 3}, path)
}

func TestShortestPathPrefersCheaperRoute(t *testing.T) {
	g := seedGraph()
	g.AddEdge(0, 3, 20.0)

	distance, path, err := g.ShortestPath(0, 3, false)
	require.NoError(t, err)
	assert.Equal(t, 10.0, distance)
	assert.Equal(t, []int{0, 1, 2, 3}, path)
}

func TestShortestPathUnreachable(t *testing.T) {
	g := seedGraph()

	_, _, err := g.ShortestPath(3, 0, false)
	assert.ErrorIs(t, err, ErrNoPath)

	_, _, err = g.ShortestPath(0, 99, false)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestAStarMatchesDijkstra(t *testing.T) {
	g := seedGraph()
	g.AddEdge(0, 2, 7.5)

	dDist, dPath, err := g.ShortestPath(0, 3, false)
	require.NoError(t, err)
	aDist, aPath, err := g.ShortestPath(0, 3, true)
	require.NoError(t, err)

	assert.Equal(t, dDist, aDist)
	assert.Equal(t, dPath, aPath)
}

func TestScenarioDisableReroutes(t *testing.T) {
	g := seedGraph()
	g.AddEdge(0, 3, 20.0)

	mods := []models.ScenarioModification{
		{FromNode: 1, ToNode: 2, Disable: true, WeightMultiplier: 1.0},
	}

	distance, path, err := g.ShortestPathScenario(0, 3, false, mods)
	require.NoError(t, err)
	assert.Equal(t, 20.0, distance)
	assert.Equal(t, []int{0, 3}, path)

	// The base graph is untouched.
	distance, _, err = g.ShortestPath(0, 3, false)
	require.NoError(t, err)
	assert.Equal(t, 10.0, distance)
}

func TestScenarioWeightOverrides(t *testing.T) {
	g := seedGraph()

	newWeight := 0.5
	mods := []models.ScenarioModification{
		{FromNode: 0, ToNode: 1, WeightMultiplier: 1.0, NewWeight: &newWeight},
		{FromNode: 1, ToNode: 2, WeightMultiplier: 2.0},
	}

	distance, _, err := g.ShortestPathScenario(0, 3, false, mods)
	require.NoError(t, err)
	assert.Equal(t, 0.5+6.0+2.0, distance)
}

func TestShortestPathsBatchPreservesOrder(t *testing.T) {
	g := seedGraph()

	queries := []models.RouteRequest{
		{Source: 0, Target: 1, Criteria: []string{"time"}},
		{Source: 0, Target: 3, Criteria: []string{"time"}},
		{Source: 3, Target: 0, Criteria: []string{"time"}}, // unreachable
		{Source: 2, Target: 3, Criteria: []string{"time"}},
	}

	results := g.ShortestPathsBatch(queries)
	require.Len(t, results, 4)

	assert.Equal(t, 5.0, results[0].distance)
	assert.Equal(t, 10.0, results[1].distance)
	assert.ErrorIs(t, results[2].err, ErrNoPath)
	assert.Equal(t, 2.0, results[3].distance)
}

func TestSegmentsCarryEdgeWeights(t *testing.T) {
	g := seedGraph()

	segments := g.Segments([]int{0, 1, 2, 3}, nil)
	require.Len(t, segments, 3)
	assert.Equal(t, models.RouteSegment{FromNode: 0, ToNode: 1, Weight: 5.0}, segments[0])
	assert.Equal(t, models.RouteSegment{FromNode: 2, ToNode: 3, Weight: 2.0}, segments[2])

	newWeight := 9.0
	mods := []models.ScenarioModification{
		{FromNode: 0, ToNode: 1, WeightMultiplier: 1.0, NewWeight: &newWeight},
	}
	modified := g.Segments([]int{0, 1}, mods)
	require.Len(t, modified, 1)
	assert.Equal(t, 9.0, modified[0].Weight)

	assert.Empty(t, g.Segments(nil, nil))
}

func TestShortestPathExpandsCheapestFirst(t *testing.T) {
	g := NewGraph()
	// Several competing frontiers: the best route threads through the
	// cheap middle hops, not the edges inserted first.
	g.AddEdges([]models.EdgeCreate{
		{FromNode: 0, ToNode: 1, Weight: 9.0},
		{FromNode: 0, ToNode: 2, Weight: 1.0},
		{FromNode: 0, ToNode: 3, Weight: 4.0},
		{FromNode: 1, ToNode: 5, Weight: 1.0},
		{FromNode: 2, ToNode: 4, Weight: 1.0},
		{FromNode: 3, ToNode: 5, Weight: 8.0},
		{FromNode: 4, ToNode: 5, Weight: 1.0},
	})

	distance, path, err := g.ShortestPath(0, 5, false)
	require.NoError(t, err)
	assert.Equal(t, 3.0, distance)
	assert.Equal(t, []int{0, 2, 4, 5}, path)
}
