// Package router assembles the gin.Engine: middleware chain, CORS, and
// every route group named in spec.md §6's external-interfaces table.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/dig"

	"github.com/kbvault/kbvault/internal/config"
	"github.com/kbvault/kbvault/internal/handler"
	"github.com/kbvault/kbvault/internal/metrics"
	"github.com/kbvault/kbvault/internal/middleware"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// Params are the dependencies dig injects into NewRouter.
type Params struct {
	dig.In

	Config *config.Config

	Resolver    interfaces.IdentityResolver
	Limiter     interfaces.RateLimiter
	AdminTokens interfaces.AdminTokenRepository
	Counters    *metrics.Counters

	SystemHandler        *handler.SystemHandler
	AdminHandler         *handler.AdminHandler
	ApiKeyHandler        *handler.ApiKeyHandler
	KnowledgeBaseHandler *handler.KnowledgeBaseHandler
	DocumentHandler      *handler.DocumentHandler
	RetrieveHandler      *handler.RetrieveHandler
	RAGHandler           *handler.RAGHandler
	OpenAIHandler        *handler.OpenAIHandler
}

// New assembles the engine: CORS first, then the ambient middleware
// chain, then per-group authentication, mirroring the order the teacher's
// router wires cors -> RequestID -> Logger -> Recovery -> ErrorHandler ->
// Auth.
func New(p Params) *gin.Engine {
	r := gin.New()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics(p.Counters))

	r.GET("/health", p.SystemHandler.Health)
	r.GET("/ready", p.SystemHandler.Ready)
	r.GET("/metrics", p.SystemHandler.Metrics)

	bootstrapToken := ""
	if p.Config.Admin != nil {
		bootstrapToken = p.Config.Admin.BootstrapToken
	}
	admin := r.Group("/admin", middleware.AdminAuth(p.AdminTokens, bootstrapToken))
	registerAdminRoutes(admin, p.AdminHandler)

	defaultPerMinute := 120
	if p.Config.RateLimiter != nil && p.Config.RateLimiter.DefaultPerMinute > 0 {
		defaultPerMinute = p.Config.RateLimiter.DefaultPerMinute
	}
	v1 := r.Group("/v1", middleware.ApiKeyAuth(p.Resolver, p.Limiter, defaultPerMinute))
	registerApiKeyRoutes(v1, p.ApiKeyHandler)
	registerKnowledgeBaseRoutes(v1, p.KnowledgeBaseHandler)
	registerDocumentRoutes(v1, p.DocumentHandler)
	registerRetrieveRoutes(v1, p.RetrieveHandler)
	registerRAGRoutes(v1, p.RAGHandler)
	registerOpenAIRoutes(v1, p.OpenAIHandler)

	return r
}

func registerAdminRoutes(r *gin.RouterGroup, h *handler.AdminHandler) {
	r.POST("/tenants", h.CreateTenant)

	tokens := r.Group("/tokens")
	{
		tokens.POST("", h.CreateAdminToken)
		tokens.GET("", h.ListAdminTokens)
		tokens.DELETE("/:id", h.RevokeAdminToken)
	}
}

// registerApiKeyRoutes requires RoleAdmin: an api-key may not mint or
// revoke other api-keys for its tenant unless it is itself an admin key.
func registerApiKeyRoutes(r *gin.RouterGroup, h *handler.ApiKeyHandler) {
	keys := r.Group("/api-keys", middleware.RequireRole(types.RoleAdmin))
	{
		keys.POST("", h.Create)
		keys.GET("", h.List)
		keys.DELETE("/:id", h.Revoke)
	}
}

func registerKnowledgeBaseRoutes(r *gin.RouterGroup, h *handler.KnowledgeBaseHandler) {
	kbs := r.Group("/knowledge-bases")
	{
		kbs.POST("", middleware.RequireRole(types.RoleWrite), h.Create)
		kbs.GET("", h.List)
		kbs.GET("/:kb_id", h.Get)
		kbs.DELETE("/:kb_id", middleware.RequireRole(types.RoleWrite), h.Delete)
	}
}

func registerDocumentRoutes(r *gin.RouterGroup, h *handler.DocumentHandler) {
	docs := r.Group("/knowledge-bases/:kb_id/documents")
	{
		docs.POST("", middleware.RequireRole(types.RoleWrite), h.Create)
		docs.GET("", h.List)
	}
	r.GET("/documents/:id", h.Get)
	r.DELETE("/documents/:id", middleware.RequireRole(types.RoleWrite), h.Delete)
}

func registerRetrieveRoutes(r *gin.RouterGroup, h *handler.RetrieveHandler) {
	r.POST("/retrieve", h.Retrieve)
}

func registerRAGRoutes(r *gin.RouterGroup, h *handler.RAGHandler) {
	r.POST("/rag", h.Answer)
}

func registerOpenAIRoutes(r *gin.RouterGroup, h *handler.OpenAIHandler) {
	r.POST("/embeddings", h.Embeddings)
	r.POST("/chat/completions", h.ChatCompletions)
}
