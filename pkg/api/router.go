package api

import (
	"github.com/agentgate-org/agentgate/pkg/api/handler"
	"github.com/agentgate-org/agentgate/pkg/api/middleware"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health (no auth required)
	s.engine.GET("/health", handler.Health)

	// API v1 group
	v1 := s.engine.Group("/api/v1")
	v1.Use(middleware.Identity(middleware.IdentityConfig{
		JWTSecret:   s.config.JWTSecret,
		AllowHeader: s.config.DevUserHeader || s.config.DevMode,
	}))

	limited := s.limiter.Handler()

	// Chat
	chatHandler := handler.NewChatHandler(s.deps.Chat)
	v1.POST("/chat", limited, chatHandler.Completion)

	// Permissions
	permHandler := handler.NewPermissionHandler(s.deps.Perms, s.deps.Catalog)
	v1.GET("/permissions", permHandler.List)
	v1.POST("/permissions/grant", limited, permHandler.Grant)
	v1.POST("/permissions/revoke", limited, permHandler.Revoke)

	// Actions
	actionHandler := handler.NewActionHandler(s.deps.Executor, s.deps.Catalog, s.deps.Models)
	v1.GET("/actions/catalog", actionHandler.Catalog)
	v1.GET("/actions/pending", actionHandler.Pending)
	v1.GET("/actions/history", actionHandler.History)
	v1.POST("/actions/execute", limited, actionHandler.Execute)
	v1.POST("/actions/:id/confirm", limited, actionHandler.Confirm)

	// Credentials (opt-in stored keys)
	credHandler := handler.NewCredentialHandler(s.deps.Resolver)
	v1.PUT("/credentials/:provider", limited, credHandler.Put)
	v1.DELETE("/credentials/:provider", limited, credHandler.Delete)

	// Swagger UI (only in DevMode)
	if s.config.DevMode {
		s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.log.Info("swagger ui enabled", "path", "/swagger/index.html")
	}

	// K8s health probe
	s.engine.GET("/healthz", handler.Health)
}
