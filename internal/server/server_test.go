package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/pathium/internal/config"
	"evalgo.org/pathium/models"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8000
	cfg.Server.JWTSecret = "test-secret"
	cfg.Server.JWTExpiration = time.Hour
	cfg.Server.RateLimit = 0
	cfg.Server.JobWorkers = 2
	cfg.Server.HistoryLimit = 100

	s := New(cfg)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(func() { s.jobs.Stop() })
	return s, srv
}

func postJSON(t *testing.T, base, path, token string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, base+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	decodeBody(t, resp, out)
	return resp
}

func getJSON(t *testing.T, base, path, token string, out interface{}) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, base+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	decodeBody(t, resp, out)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, out), "body: %s", data)
	}
}

func registerAndLogin(t *testing.T, base string) string {
	t.Helper()
	resp := postJSON(t, base, "/auth/register", "", models.RegisterRequest{
		Email: "op@example.com", Password: "secret",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	form := url.Values{}
	form.Set("username", "op@example.com")
	form.Set("password", "secret")
	loginResp, err := http.Post(base+"/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)

	var token models.Token
	decodeBody(t, loginResp, &token)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	require.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
	return token.AccessToken
}

func TestAuthFlow(t *testing.T) {
	_, srv := newTestServer(t)
	token := registerAndLogin(t, srv.URL)

	var user models.User
	resp := getJSON(t, srv.URL, "/auth/me", token, &user)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "op@example.com", user.Email)
	assert.Equal(t, models.RoleOperator, user.Role)
	assert.True(t, user.IsActive)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, srv := newTestServer(t)
	registerAndLogin(t, srv.URL)

	form := url.Values{}
	form.Set("username", "op@example.com")
	form.Set("password", "wrong")
	resp, err := http.Post(srv.URL+"/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body["detail"])
}

func TestMeRequiresValidToken(t *testing.T) {
	_, srv := newTestServer(t)

	resp := getJSON(t, srv.URL, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = getJSON(t, srv.URL, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEdgeInsertAndRoute(t *testing.T) {
	_, srv := newTestServer(t)

	var info models.GraphInfo
	resp := postJSON(t, srv.URL, "/graph/edges", "", models.EdgeBulkCreateRequest{Edges: []models.EdgeCreate{
		{FromNode: 0, ToNode: 1, Weight: 5.0},
		{FromNode: 1, ToNode: 2, Weight: 3.0},
		{FromNode: 2, ToNode: 3, Weight: 2.0},
	}}, &info)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, info.NodeCount)
	assert.Equal(t, 3, info.EdgeCount)

	var route models.RouteResponse
	resp = postJSON(t, srv.URL, "/routes", "", models.RouteRequest{
		Source: 0, Target: 3, Criteria: []string{"time"},
	}, &route)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10.0, route.TotalWeight)
	assert.Equal(t, []int{0, 1, 2, 3}, route.Nodes)
	require.Len(t, route.Segments, 3)
	assert.Equal(t, models.RouteSegment{FromNode: 0, ToNode: 1, Weight: 5.0}, route.Segments[0])
	assert.Equal(t, models.AlgorithmDijkstra, route.Algorithm)
}

func TestRouteNotFound(t *testing.T) {
	_, srv := newTestServer(t)

	postJSON(t, srv.URL, "/graph/edges", "", models.EdgeBulkCreateRequest{Edges: []models.EdgeCreate{
		{FromNode: 0, ToNode: 1, Weight: 1.0},
	}}, nil)

	var body map[string]string
	resp := postJSON(t, srv.URL, "/routes", "", models.RouteRequest{
		Source: 1, Target: 0, Criteria: []string{"time"},
	}, &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["detail"], "No path found")
}

func TestRouteValidationError(t *testing.T) {
	_, srv := newTestServer(t)

	var body map[string]string
	resp := postJSON(t, srv.URL, "/routes", "", map[string]interface{}{
		"source": 0, "target": 1, "criteria": []string{"speed"},
	}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["detail"], "must be one of")
}

func TestBatchRoutes(t *testing.T) {
	_, srv := newTestServer(t)

	postJSON(t, srv.URL, "/graph/edges", "", models.EdgeBulkCreateRequest{Edges: []models.EdgeCreate{
		{FromNode: 0, ToNode: 1, Weight: 5.0},
		{FromNode: 1, ToNode: 2, Weight: 3.0},
	}}, nil)

	var items []models.RouteBatchItem
	resp := postJSON(t, srv.URL, "/routes/batch", "", models.RouteBatchRequest{Queries: []models.RouteRequest{
		{Source: 0, Target: 1, Criteria: []string{"time"}},
		{Source: 0, Target: 2, Criteria: []string{"time"}},
	}}, &items)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, items, 2)
	assert.Equal(t, 0, items[0].Request.Source)
	assert.Equal(t, 1, items[0].Request.Target)
	assert.Equal(t, 5.0, items[0].Response.TotalWeight)
	assert.Equal(t, 8.0, items[1].Response.TotalWeight)
}

func TestAsyncJobLifecycle(t *testing.T) {
	_, srv := newTestServer(t)

	postJSON(t, srv.URL, "/graph/edges", "", models.EdgeBulkCreateRequest{Edges: []models.EdgeCreate{
		{FromNode: 0, ToNode: 1, Weight: 5.0},
	}}, nil)

	var submitted models.AsyncJobStatus
	resp := postJSON(t, srv.URL, "/routes/async/submit", "", models.RouteBatchRequest{Queries: []models.RouteRequest{
		{Source: 0, Target: 1, Criteria: []string{"time"}},
	}}, &submitted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, submitted.ID)
	assert.Equal(t, 1, submitted.TotalQueries)

	var final models.AsyncJobStatus
	require.Eventually(t, func() bool {
		getJSON(t, srv.URL, "/routes/async/"+submitted.ID, "", &final)
		return final.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.JobFinished, final.Status)
	assert.Equal(t, 1, final.CompletedQueries)
	require.Len(t, final.Result, 1)
	assert.Equal(t, 5.0, final.Result[0].Response.TotalWeight)
	require.NotNil(t, final.ExecutionTimeMS)

	var metrics models.AsyncJobsMetrics
	getJSON(t, srv.URL, "/routes/async/metrics", "", &metrics)
	assert.Equal(t, 1, metrics.FinishedJobs)
}

func TestUnknownAsyncJob(t *testing.T) {
	_, srv := newTestServer(t)

	var body map[string]string
	resp := getJSON(t, srv.URL, "/routes/async/nope", "", &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Job not found", body["detail"])
}

func TestHistoryAndStats(t *testing.T) {
	_, srv := newTestServer(t)

	postJSON(t, srv.URL, "/graph/edges", "", models.EdgeBulkCreateRequest{Edges: []models.EdgeCreate{
		{FromNode: 0, ToNode: 1, Weight: 5.0},
	}}, nil)

	postJSON(t, srv.URL, "/routes", "", models.RouteRequest{Source: 0, Target: 1, Criteria: []string{"time"}}, nil)
	postJSON(t, srv.URL, "/routes", "", models.RouteRequest{Source: 1, Target: 0, Criteria: []string{"time"}}, nil)

	var history []models.HistoryItem
	getJSON(t, srv.URL, "/history/queries", "", &history)
	require.Len(t, history, 2)
	// Newest first: the failed query is on top.
	assert.False(t, history[0].Success)
	assert.True(t, history[1].Success)

	var failedOnly []models.HistoryItem
	getJSON(t, srv.URL, "/history/queries?only_failed=true", "", &failedOnly)
	require.Len(t, failedOnly, 1)
	assert.False(t, failedOnly[0].Success)

	var limited []models.HistoryItem
	getJSON(t, srv.URL, "/history/queries?limit=1", "", &limited)
	assert.Len(t, limited, 1)

	var stats models.PerformanceStats
	getJSON(t, srv.URL, "/stats/performance", "", &stats)
	assert.Equal(t, 2, stats.TotalQueries)
	assert.Equal(t, 1, stats.SuccessfulQueries)
	assert.Equal(t, 1, stats.FailedQueries)
	require.NotNil(t, stats.AvgExecutionMS)
}

func TestScenarioRouting(t *testing.T) {
	_, srv := newTestServer(t)

	postJSON(t, srv.URL, "/graph/edges", "", models.EdgeBulkCreateRequest{Edges: []models.EdgeCreate{
		{FromNode: 0, ToNode: 1, Weight: 5.0},
		{FromNode: 1, ToNode: 2, Weight: 3.0},
		{FromNode: 0, ToNode: 2, Weight: 20.0},
	}}, nil)

	var scenario models.Scenario
	resp := postJSON(t, srv.URL, "/scenarios", "", models.ScenarioCreate{Name: "roadworks"}, &scenario)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotZero(t, scenario.ID)

	var detail models.ScenarioDetail
	resp = postJSON(t, srv.URL, fmt.Sprintf("/scenarios/%d/modifications", scenario.ID), "",
		map[string]interface{}{"from_node": 1, "to_node": 2, "disable": true}, &detail)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, detail.Modifications, 1)

	var route models.RouteResponse
	resp = postJSON(t, srv.URL, "/routes", "", models.RouteRequest{
		Source: 0, Target: 2, Criteria: []string{"time"}, ScenarioID: &scenario.ID,
	}, &route)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 20.0, route.TotalWeight)
	assert.Equal(t, []int{0, 2}, route.Nodes)
	assert.Equal(t, "dijkstra_scenario", route.Algorithm)

	var scenarios []models.Scenario
	getJSON(t, srv.URL, "/scenarios", "", &scenarios)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "roadworks", scenarios[0].Name)
}

func TestProfileEndpoints(t *testing.T) {
	_, srv := newTestServer(t)

	var created models.Profile
	resp := postJSON(t, srv.URL, "/profiles", "", models.ProfileCreate{
		Name: "fastest", WeightTime: 1.0,
	}, &created)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, 1.0, created.WeightTime)

	var body map[string]string
	resp = postJSON(t, srv.URL, "/profiles", "", models.ProfileCreate{Name: "fastest"}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "A profile with this name already exists", body["detail"])

	postJSON(t, srv.URL, "/profiles", "", models.ProfileCreate{Name: "cheapest", WeightCost: 1.0}, nil)

	var profiles []models.Profile
	getJSON(t, srv.URL, "/profiles", "", &profiles)
	require.Len(t, profiles, 2)
	// Newest first.
	assert.Equal(t, "cheapest", profiles[0].Name)
	assert.Equal(t, "fastest", profiles[1].Name)
}
