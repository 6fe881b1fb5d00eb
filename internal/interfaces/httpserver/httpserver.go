package httpserver

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swiftask/services/replicate-tools/internal/infrastructure/auth"
	"swiftask/services/replicate-tools/internal/infrastructure/config"
	replicateclient "swiftask/services/replicate-tools/internal/infrastructure/replicate"
	"swiftask/services/replicate-tools/internal/interfaces/httpserver/middlewares"
	"swiftask/services/replicate-tools/internal/interfaces/httpserver/routes/mcp"
)

type HTTPServer struct {
	router        *gin.Engine
	config        *config.Config
	mcpRoute      *mcp.MCPRoute
	authValidator *auth.Validator
	replicate     *replicateclient.Client
	routesOnce    sync.Once
}

func NewHTTPServer(
	cfg *config.Config,
	mcpRoute *mcp.MCPRoute,
	authValidator *auth.Validator,
	replicate *replicateclient.Client,
) *HTTPServer {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.CORS())
	router.Use(middlewares.MetricsRecorder())

	if authValidator != nil {
		router.Use(authValidator.Middleware())
	}

	return &HTTPServer{
		router:        router,
		config:        cfg,
		mcpRoute:      mcpRoute,
		authValidator: authValidator,
		replicate:     replicate,
	}
}

func (s *HTTPServer) setupRoutes() {
	s.routesOnce.Do(s.registerRoutes)
}

func (s *HTTPServer) registerRoutes() {
	// Health check endpoints
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "replicate-tools"})
	})

	s.router.GET("/readyz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ready", "service": "replicate-tools"})
	})

	s.router.GET("/health/auth", func(c *gin.Context) {
		if s.authValidator == nil || s.authValidator.Ready() {
			c.JSON(200, gin.H{"status": "ready"})
			return
		}
		c.JSON(503, gin.H{"status": "initializing"})
	})

	// Upstream connectivity probe; surfaces rate limit headers so
	// operators can see the remaining quota at a glance.
	s.router.GET("/health/replicate", func(c *gin.Context) {
		status := s.replicate.TestConnection(c.Request.Context())
		code := 200
		if !status.Success {
			code = 503
		}
		c.JSON(code, status)
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register MCP routes
	v1 := s.router.Group("/v1")
	s.mcpRoute.RegisterRouter(v1)
}

// Handler exposes the configured engine for tests.
func (s *HTTPServer) Handler() http.Handler {
	s.setupRoutes()
	return s.router
}

func (s *HTTPServer) Run() error {
	s.setupRoutes()
	addr := fmt.Sprintf(":%s", s.config.HTTPPort)
	return s.router.Run(addr)
}
