// @title           AgentGate API
// @version         1.0
// @description     Agent action authorization and execution API.
// @host            localhost:8080
// @BasePath        /

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentgate-org/agentgate/pkg/action"
	"github.com/agentgate-org/agentgate/pkg/api/middleware"
	"github.com/agentgate-org/agentgate/pkg/api/service"
	"github.com/agentgate-org/agentgate/pkg/catalog"
	"github.com/agentgate-org/agentgate/pkg/credential"
	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/permission"
)

// Config defines the HTTP server settings.
type Config struct {
	Addr    string
	DevMode bool // Enables Swagger UI

	JWTSecret         string
	DevUserHeader     bool // Accept X-User-ID as identity. Development only.
	RequestsPerMinute int
}

// Deps collects the engine components the API surfaces.
type Deps struct {
	Chat     *service.ChatService
	Perms    *permission.Service
	Executor *action.Executor
	Resolver *credential.Resolver
	Catalog  *catalog.Catalog
	Models   *llm.ModelCatalog
}

// Server hosts the Gin engine and manages API resources.
type Server struct {
	engine  *gin.Engine
	config  Config
	deps    Deps
	limiter *middleware.RateLimiter
	log     *slog.Logger
}

// NewServer constructs the HTTP API server.
func NewServer(cfg Config, deps Deps, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Logger(log))

	srv := &Server{
		engine:  engine,
		config:  cfg,
		deps:    deps,
		limiter: middleware.NewRateLimiter(cfg.RequestsPerMinute),
		log:     log,
	}

	srv.setupRoutes()

	return srv
}

// Engine returns the underlying Gin engine (for http.Server and tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the configured address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// Run starts the HTTP server and blocks until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:    s.config.Addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http api listening", "addr", s.config.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down http api")
		return httpSrv.Shutdown(context.Background())
	}
}
