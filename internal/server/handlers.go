package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"evalgo.org/pathium/models"
)

func (s *Server) register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := s.auth.Register(req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "A user with this email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}

	return c.JSON(http.StatusOK, user)
}

func (s *Server) login(c echo.Context) error {
	email := c.FormValue("username")
	password := c.FormValue("password")

	token, err := s.auth.Authenticate(email, password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	return c.JSON(http.StatusOK, models.Token{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) me(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) graphInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, s.graph.Info())
}

func (s *Server) addNodes(c echo.Context) error {
	var req models.NodeBulkCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	for _, node := range req.Nodes {
		s.graph.AddNode(node.ID)
	}
	return c.JSON(http.StatusOK, s.graph.Info())
}

func (s *Server) addEdges(c echo.Context) error {
	var req models.EdgeBulkCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s.graph.AddEdges(req.Edges)
	return c.JSON(http.StatusOK, s.graph.Info())
}

func (s *Server) computeRoute(c echo.Context) error {
	var req models.RouteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if len(req.Criteria) == 0 {
		req.Criteria = []string{models.CriterionTime}
	}
	if req.Algorithm == "" {
		req.Algorithm = models.AlgorithmDijkstra
	}
	if err := models.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.ScenarioID != nil && req.Profile != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Combining scenario_id and profile is not supported")
	}

	astar := req.Algorithm == models.AlgorithmAStar
	label := req.Algorithm

	start := time.Now()
	var (
		distance float64
		path     []int
		mods     []models.ScenarioModification
		err      error
	)
	if req.ScenarioID != nil {
		mods, err = s.scenarios.Modifications(*req.ScenarioID)
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "Scenario not found")
		}
		distance, path, err = s.graph.ShortestPathScenario(req.Source, req.Target, astar, mods)
		label = req.Algorithm + "_scenario"
	} else {
		distance, path, err = s.graph.ShortestPath(req.Source, req.Target, astar)
	}
	execMS := float64(time.Since(start).Microseconds()) / 1000.0

	resp := models.RouteResponse{
		TotalWeight:     distance,
		Nodes:           path,
		Segments:        s.graph.Segments(path, mods),
		Algorithm:       label,
		ExecutionTimeMS: execMS,
	}

	s.recorder.Record(req, &resp, err, false, nil)

	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound,
			fmt.Sprintf("No path found from node %d to node %d", req.Source, req.Target))
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) computeBatch(c echo.Context) error {
	var req models.RouteBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	for i := range req.Queries {
		if len(req.Queries[i].Criteria) == 0 {
			req.Queries[i].Criteria = []string{models.CriterionTime}
		}
	}
	if err := models.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	items, err := computeBatch(s.graph, s.recorder, req.Queries, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, items)
}

func (s *Server) submitAsync(c echo.Context) error {
	var req models.RouteBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	for i := range req.Queries {
		if len(req.Queries[i].Criteria) == 0 {
			req.Queries[i].Criteria = []string{models.CriterionTime}
		}
	}
	if err := models.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, s.jobs.Submit(req.Queries))
}

func (s *Server) asyncJob(c echo.Context) error {
	status, ok := s.jobs.Job(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Job not found")
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) asyncMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.jobs.Metrics())
}

func (s *Server) history(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = parsed
	}

	onlyFailed := c.QueryParam("only_failed") == "true"
	items := s.recorder.History(limit, c.QueryParam("algorithm"), onlyFailed)
	return c.JSON(http.StatusOK, items)
}

func (s *Server) performanceStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.recorder.Stats())
}

func (s *Server) createScenario(c echo.Context) error {
	var req models.ScenarioCreate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	scenario, err := s.scenarios.Create(req)
	if err != nil {
		if errors.Is(err, ErrScenarioNameTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "A scenario with this name already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create scenario")
	}

	return c.JSON(http.StatusOK, scenario)
}

func (s *Server) listScenarios(c echo.Context) error {
	return c.JSON(http.StatusOK, s.scenarios.List())
}

func (s *Server) getScenario(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid scenario id")
	}

	detail, err := s.scenarios.Get(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Scenario not found")
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) createProfile(c echo.Context) error {
	var req models.ProfileCreate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := models.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := s.profiles.Create(req)
	if err != nil {
		if errors.Is(err, ErrProfileNameTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "A profile with this name already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create profile")
	}

	return c.JSON(http.StatusOK, profile)
}

func (s *Server) listProfiles(c echo.Context) error {
	return c.JSON(http.StatusOK, s.profiles.List())
}

func (s *Server) addScenarioModification(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid scenario id")
	}

	var mod models.ScenarioModification
	if err := c.Bind(&mod); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if mod.WeightMultiplier == 0 {
		mod.WeightMultiplier = 1.0
	}

	detail, err := s.scenarios.AddModification(id, mod)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Scenario not found")
	}
	return c.JSON(http.StatusOK, detail)
}
