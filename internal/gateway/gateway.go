// Package gateway is a typed catalog of route-planning service operations.
// Every method is exactly one transport call with a fixed path, method and
// payload shape; failures propagate unchanged to the caller.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"evalgo.org/pathium/internal/transport"
	"evalgo.org/pathium/models"
)

// Gateway exposes the service endpoints as typed operations.
type Gateway struct {
	client *transport.Client
}

// New creates a gateway on top of a transport client.
func New(client *transport.Client) *Gateway {
	return &Gateway{client: client}
}

// GraphInfo fetches the current graph size.
func (g *Gateway) GraphInfo(ctx context.Context) (*models.GraphInfo, error) {
	var info models.GraphInfo
	if err := g.client.Do(ctx, http.MethodGet, "/graph/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AddEdges inserts edges and returns the updated graph size.
func (g *Gateway) AddEdges(ctx context.Context, edges []models.EdgeCreate) (*models.GraphInfo, error) {
	req := models.EdgeBulkCreateRequest{Edges: edges}
	var info models.GraphInfo
	if err := g.client.Do(ctx, http.MethodPost, "/graph/edges", &req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AddNodes inserts explicit nodes and returns the updated graph size.
func (g *Gateway) AddNodes(ctx context.Context, nodes []models.NodeCreate) (*models.GraphInfo, error) {
	req := models.NodeBulkCreateRequest{Nodes: nodes}
	var info models.GraphInfo
	if err := g.client.Do(ctx, http.MethodPost, "/graph/nodes", &req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ComputeRoute runs a single route query.
func (g *Gateway) ComputeRoute(ctx context.Context, req *models.RouteRequest) (*models.RouteResponse, error) {
	var resp models.RouteResponse
	if err := g.client.Do(ctx, http.MethodPost, "/routes", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ComputeBatch runs many route queries in one call. The response preserves
// request order, one item per query.
func (g *Gateway) ComputeBatch(ctx context.Context, queries []models.RouteRequest) ([]models.RouteBatchItem, error) {
	req := models.RouteBatchRequest{Queries: queries}
	var items []models.RouteBatchItem
	if err := g.client.Do(ctx, http.MethodPost, "/routes/batch", &req, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SubmitAsyncBatch enqueues an asynchronous batch job.
func (g *Gateway) SubmitAsyncBatch(ctx context.Context, queries []models.RouteRequest) (*models.AsyncJobStatus, error) {
	req := models.RouteBatchRequest{Queries: queries}
	var status models.AsyncJobStatus
	if err := g.client.Do(ctx, http.MethodPost, "/routes/async/submit", &req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// AsyncJob fetches the state of an asynchronous batch job.
func (g *Gateway) AsyncJob(ctx context.Context, id string) (*models.AsyncJobStatus, error) {
	var status models.AsyncJobStatus
	if err := g.client.Do(ctx, http.MethodGet, "/routes/async/"+url.PathEscape(id), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// AsyncMetrics fetches job-queue metrics.
func (g *Gateway) AsyncMetrics(ctx context.Context) (*models.AsyncJobsMetrics, error) {
	var metrics models.AsyncJobsMetrics
	if err := g.client.Do(ctx, http.MethodGet, "/routes/async/metrics", nil, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// PerformanceStats fetches the aggregated query statistics.
func (g *Gateway) PerformanceStats(ctx context.Context) (*models.PerformanceStats, error) {
	var stats models.PerformanceStats
	if err := g.client.Do(ctx, http.MethodGet, "/stats/performance", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// HistoryFilter narrows a history query. Zero values are omitted from the
// request so the server applies its own defaults.
type HistoryFilter struct {
	Limit      int
	Algorithm  string
	OnlyFailed bool
}

// History fetches recorded route queries, newest first.
func (g *Gateway) History(ctx context.Context, filter HistoryFilter) ([]models.HistoryItem, error) {
	params := url.Values{}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Algorithm != "" {
		params.Set("algorithm", filter.Algorithm)
	}
	if filter.OnlyFailed {
		params.Set("only_failed", "true")
	}

	path := "/history/queries"
	if len(params) > 0 {
		path = fmt.Sprintf("%s?%s", path, params.Encode())
	}

	var items []models.HistoryItem
	if err := g.client.Do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Scenarios lists the modeling scenarios.
func (g *Gateway) Scenarios(ctx context.Context) ([]models.Scenario, error) {
	var scenarios []models.Scenario
	if err := g.client.Do(ctx, http.MethodGet, "/scenarios", nil, &scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// CreateScenario creates a named modeling scenario.
func (g *Gateway) CreateScenario(ctx context.Context, req *models.ScenarioCreate) (*models.Scenario, error) {
	var scenario models.Scenario
	if err := g.client.Do(ctx, http.MethodPost, "/scenarios", req, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Scenario fetches one scenario with its edge modifications.
func (g *Gateway) Scenario(ctx context.Context, id int) (*models.ScenarioDetail, error) {
	var detail models.ScenarioDetail
	if err := g.client.Do(ctx, http.MethodGet, "/scenarios/"+strconv.Itoa(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// AddModification adds an edge override to a scenario and returns the
// updated scenario detail.
func (g *Gateway) AddModification(ctx context.Context, id int, mod models.ScenarioModification) (*models.ScenarioDetail, error) {
	var detail models.ScenarioDetail
	path := "/scenarios/" + strconv.Itoa(id) + "/modifications"
	if err := g.client.Do(ctx, http.MethodPost, path, &mod, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Profiles lists the optimization profiles, newest first.
func (g *Gateway) Profiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := g.client.Do(ctx, http.MethodGet, "/profiles", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// CreateProfile stores a named optimization profile.
func (g *Gateway) CreateProfile(ctx context.Context, req *models.ProfileCreate) (*models.Profile, error) {
	var profile models.Profile
	if err := g.client.Do(ctx, http.MethodPost, "/profiles", req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
