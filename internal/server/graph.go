package server

import (
	"container/heap"
	"errors"
	"math"
	"sync"

	"evalgo.org/pathium/models"
)

// ErrNoPath is returned when the target is unreachable from the source.
var ErrNoPath = errors.New("no path between the given nodes")

type edge struct {
	to     int
	weight float64
}

// Graph is a directed weighted graph with dense integer node ids. Adding an
// edge materializes every node up to the larger endpoint, matching the
// routing engine's contract where node_count is the highest id plus one.
type Graph struct {
	mu        sync.RWMutex
	adjacency [][]edge
	edgeCount int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

func (g *Graph) ensureNode(node int) {
	for len(g.adjacency) <= node {
		g.adjacency = append(g.adjacency, nil)
	}
}

// AddNode materializes a node without edges.
func (g *Graph) AddNode(node int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureNode(node)
}

// AddEdge inserts a directed edge.
func (g *Graph) AddEdge(from, to int, weight float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureNode(from)
	g.ensureNode(to)
	g.adjacency[from] = append(g.adjacency[from], edge{to: to, weight: weight})
	g.edgeCount++
}

// AddEdges inserts many directed edges.
func (g *Graph) AddEdges(edges []models.EdgeCreate) {
	for _, e := range edges {
		g.AddEdge(e.FromNode, e.ToNode, e.Weight)
	}
}

// Info returns the current graph size.
func (g *Graph) Info() models.GraphInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return models.GraphInfo{NodeCount: len(g.adjacency), EdgeCount: g.edgeCount}
}

// snapshot copies the adjacency for a lock-free search, optionally applying
// scenario modifications on top of the base weights.
func (g *Graph) snapshot(mods []models.ScenarioModification) [][]edge {
	g.mu.RLock()
	adj := make([][]edge, len(g.adjacency))
	for i, edges := range g.adjacency {
		adj[i] = append([]edge{}, edges...)
	}
	g.mu.RUnlock()

	for _, m := range mods {
		if m.FromNode >= len(adj) {
			continue
		}
		out := adj[m.FromNode][:0]
		for _, e := range adj[m.FromNode] {
			if e.to != m.ToNode {
				out = append(out, e)
				continue
			}
			if m.Disable {
				continue
			}
			if m.NewWeight != nil {
				e.weight = *m.NewWeight
			} else {
				e.weight *= m.WeightMultiplier
			}
			out = append(out, e)
		}
		adj[m.FromNode] = out
	}

	return adj
}

// item is a priority-queue entry ordered by cost.
type item struct {
	cost float64
	node int
}

// frontier implements heap.Interface over items, cheapest first.
type frontier []item

func (f frontier) Len() int           { return len(f) }
func (f frontier) Less(i, j int) bool { return f[i].cost < f[j].cost }
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x interface{}) {
	*f = append(*f, x.(item))
}

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	it := old[n-1]
	*f = old[:n-1]
	return it
}

// heuristic estimates the remaining distance for A*. Without node coordinates
// it is always zero, which makes A* behave like Dijkstra.
func heuristic(node, target int) float64 {
	return 0.0
}

// shortestPath runs Dijkstra (or A* when astar is set) over the given
// adjacency. Returns the total distance and the node path; ErrNoPath when the
// target is unreachable.
func shortestPath(adj [][]edge, source, target int, astar bool) (float64, []int, error) {
	n := len(adj)
	if source < 0 || target < 0 || source >= n || target >= n {
		return 0, nil, ErrNoPath
	}

	dist := make([]float64, n)
	prev := make([]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}

	dist[source] = 0
	start := item{node: source}
	if astar {
		start.cost = heuristic(source, target)
	}
	pq := &frontier{start}

	for pq.Len() > 0 {
		current := heap.Pop(pq).(item)

		g := current.cost
		if astar {
			g -= heuristic(current.node, target)
		}
		if g > dist[current.node] {
			continue
		}
		if current.node == target {
			break
		}

		for _, e := range adj[current.node] {
			next := dist[current.node] + e.weight
			if next < dist[e.to] {
				dist[e.to] = next
				prev[e.to] = current.node
				cost := next
				if astar {
					cost += heuristic(e.to, target)
				}
				heap.Push(pq, item{cost: cost, node: e.to})
			}
		}
	}

	d := dist[target]
	if math.IsInf(d, 1) {
		return 0, nil, ErrNoPath
	}

	path := []int{target}
	for node := target; prev[node] != -1; node = prev[node] {
		path = append(path, prev[node])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return d, path, nil
}

// segmentsIn expands a node path into hop segments with the weights found in
// adj. Parallel edges resolve to the cheapest one, matching the relaxation.
func segmentsIn(adj [][]edge, path []int) []models.RouteSegment {
	if len(path) < 2 {
		return []models.RouteSegment{}
	}
	segments := make([]models.RouteSegment, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		seg := models.RouteSegment{FromNode: path[i], ToNode: path[i+1]}
		found := false
		for _, e := range adj[path[i]] {
			if e.to == path[i+1] && (!found || e.weight < seg.Weight) {
				seg.Weight = e.weight
				found = true
			}
		}
		segments = append(segments, seg)
	}
	return segments
}

// Segments expands a node path into hop segments using the current edge
// weights, with scenario modifications applied when given.
func (g *Graph) Segments(path []int, mods []models.ScenarioModification) []models.RouteSegment {
	return segmentsIn(g.snapshot(mods), path)
}

// ShortestPath computes one route over the base graph.
func (g *Graph) ShortestPath(source, target int, astar bool) (float64, []int, error) {
	return shortestPath(g.snapshot(nil), source, target, astar)
}

// ShortestPathScenario computes one route with scenario modifications applied.
func (g *Graph) ShortestPathScenario(source, target int, astar bool, mods []models.ScenarioModification) (float64, []int, error) {
	return shortestPath(g.snapshot(mods), source, target, astar)
}

type batchResult struct {
	distance float64
	path     []int
	segments []models.RouteSegment
	err      error
}

// ShortestPathsBatch runs queries concurrently over one shared snapshot.
// Results preserve query order.
func (g *Graph) ShortestPathsBatch(queries []models.RouteRequest) []batchResult {
	adj := g.snapshot(nil)
	results := make([]batchResult, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q models.RouteRequest) {
			defer wg.Done()
			d, p, err := shortestPath(adj, q.Source, q.Target, false)
			results[i] = batchResult{distance: d, path: p, segments: segmentsIn(adj, p), err: err}
		}(i, q)
	}
	wg.Wait()

	return results
}
