package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/spinlab/campaign-engine/internal/config"
	"github.com/spinlab/campaign-engine/internal/handlers"
	"github.com/spinlab/campaign-engine/internal/middleware"
)

// HandlerDependencies carries the wired handlers into router setup
type HandlerDependencies struct {
	AuthHandler     *handlers.AuthHandler
	CampaignHandler *handlers.CampaignHandler
	PlayHandler     *handlers.PlayHandler
	AuditHandler    *handlers.AuditHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes: play surface and participant-facing verification
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/login", deps.AuthHandler.Login)
		}

		public.POST("/campaigns/:id/play", deps.PlayHandler.Play)
		public.GET("/campaigns/:id/segments", deps.CampaignHandler.GetSegments)
		public.POST("/proofs/verify", deps.AuditHandler.VerifyProof)
	}

	// Protected routes: campaign administration and the audit trail
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		campaigns := protected.Group("/campaigns")
		{
			campaigns.GET("", deps.CampaignHandler.GetCampaigns)
			campaigns.POST("", deps.CampaignHandler.CreateCampaign)
			campaigns.GET("/:id", deps.CampaignHandler.GetCampaign)
			campaigns.PUT("/:id", deps.CampaignHandler.UpdateCampaign)
			campaigns.PATCH("/:id/status", deps.CampaignHandler.UpdateStatus)
			campaigns.DELETE("/:id", deps.CampaignHandler.DeleteCampaign)

			campaigns.GET("/:id/distribution", deps.PlayHandler.GetDistributionStats)
			campaigns.GET("/:id/audit", deps.AuditHandler.GetLogs)
			campaigns.GET("/:id/audit/report", deps.AuditHandler.GetReport)
			campaigns.GET("/:id/audit/export", deps.AuditHandler.ExportCSV)
		}

		protected.GET("/audit/:logId/verify", deps.AuditHandler.VerifyLog)
	}

	return router
}
