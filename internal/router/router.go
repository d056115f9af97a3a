package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prepstem/ieltsmock-backend/internal/config"
	"github.com/prepstem/ieltsmock-backend/internal/handler"
	"github.com/prepstem/ieltsmock-backend/internal/middleware"
	"github.com/prepstem/ieltsmock-backend/internal/response"
	"github.com/prepstem/ieltsmock-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Gate    *handler.GateHandler
	Session *handler.SessionHandler
	Catalog *handler.CatalogHandler
	Webhook *handler.WebhookHandler
	Admin   *handler.AdminHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Telegram calls this directly; it carries its own chat-based check.
	router.POST("/webhook/telegram", handlers.Webhook.Telegram)

	// Brute-forcing the four-digit code is the obvious attack, so the
	// admission endpoints are rate limited per IP.
	gateLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Public Group ───────────────────────────────────────────────
	api := router.Group("/api/v1")
	{
		api.POST("/verify-code", gateLimiter.Middleware(), handlers.Gate.VerifyCode)
		api.POST("/sessions", gateLimiter.Middleware(), handlers.Session.Create)
		api.GET("/tests", handlers.Catalog.List)
		api.GET("/tests/:section_id/paper", handlers.Catalog.GetPaper)
		api.POST("/admin/login", gateLimiter.Middleware(), handlers.Admin.Login)
	}

	// ─── 2. Session Group (Session JWT) ────────────────────────────────
	sessionAPI := router.Group("/api/v1/sessions/:session_id")
	sessionAPI.Use(middleware.RequireSessionToken(authService))
	{
		sessionAPI.GET("", handlers.Session.Get)
		sessionAPI.POST("/start", handlers.Session.Start)
		sessionAPI.PUT("/answers/:number", handlers.Session.SetAnswer)
		sessionAPI.POST("/submit", handlers.Session.Submit)
	}

	// ─── 3. WebSocket Group (Session WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireSessionWSAuth(authService))
	{
		ws.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Admin Group (Admin JWT) ────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/results", handlers.Admin.ListResults)
	}

	return router
}
