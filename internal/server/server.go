// Package server implements a self-contained route-planning API server.
// It serves the same REST surface the client library consumes: graph
// management, route computation (sync, batch and async), history and
// performance statistics, scenarios, and JWT authentication.
//
// The server keeps everything in memory. It exists for local development and
// end-to-end testing of the client; it is not a persistence layer.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"evalgo.org/pathium/internal/config"
)

// Server is the development API server.
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	graph     *Graph
	auth      *AuthService
	jobs      *JobManager
	recorder  *Recorder
	scenarios *ScenarioStore
	profiles  *ProfileStore
}

// New creates a server instance with empty in-memory state.
func New(cfg *config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Server.Debug
	e.HTTPErrorHandler = httpErrorHandler

	graph := NewGraph()
	recorder := NewRecorder(cfg.Server.HistoryLimit)

	s := &Server{
		echo:      e,
		config:    cfg,
		graph:     graph,
		auth:      NewAuthService(cfg.Server.JWTSecret, cfg.Server.JWTExpiration),
		jobs:      NewJobManager(graph, recorder, cfg.Server.JobWorkers),
		recorder:  recorder,
		scenarios: NewScenarioStore(),
		profiles:  NewProfileStore(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${time_rfc3339}] ${status} ${method} ${uri} (${latency_human})\n",
	}))

	s.echo.Use(middleware.Recover())

	if len(s.config.Server.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.config.Server.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	s.echo.Use(middleware.RequestID())

	if s.config.Server.RateLimit > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(s.config.Server.RateLimit),
		)))
	}
}

// setupRoutes configures the REST surface.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	s.echo.POST("/auth/register", s.register)
	s.echo.POST("/auth/login", s.login)
	s.echo.GET("/auth/me", s.me, s.auth.RequireAuth)

	s.echo.GET("/graph/info", s.graphInfo)
	s.echo.POST("/graph/nodes", s.addNodes)
	s.echo.POST("/graph/edges", s.addEdges)

	s.echo.POST("/routes", s.computeRoute)
	s.echo.POST("/routes/batch", s.computeBatch)
	s.echo.POST("/routes/async/submit", s.submitAsync)
	s.echo.GET("/routes/async/metrics", s.asyncMetrics)
	s.echo.GET("/routes/async/:id", s.asyncJob)

	s.echo.GET("/history/queries", s.history)
	s.echo.GET("/stats/performance", s.performanceStats)

	s.echo.POST("/scenarios", s.createScenario)
	s.echo.GET("/scenarios", s.listScenarios)
	s.echo.GET("/scenarios/:id", s.getScenario)
	s.echo.POST("/scenarios/:id/modifications", s.addScenarioModification)

	s.echo.POST("/profiles", s.createProfile)
	s.echo.GET("/profiles", s.listProfiles)
}

// Start runs the HTTP server until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	log.Printf("Pathium dev server listening on %s", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server and the job workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.jobs.Stop()
	return s.echo.Shutdown(ctx)
}

// Handler exposes the echo engine for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// httpErrorHandler renders every error as the {"detail": ...} shape the
// client's auth message extraction expects.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		detail = fmt.Sprintf("%v", he.Message)
	} else if !c.Echo().Debug {
		detail = "An internal error occurred. Please try again later."
	} else {
		detail = err.Error()
	}

	if err := c.JSON(code, map[string]string{"detail": detail}); err != nil {
		log.Printf("failed to write error response: %v", err)
	}
}
