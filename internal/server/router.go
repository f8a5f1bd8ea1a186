package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/paperclip-video/paperclip-backend/internal/http/handlers"
)

type RouterConfig struct {
	ServiceName string
	CORSOrigins []string

	ProjectHandler   *handlers.ProjectHandler
	DocumentHandler  *handlers.DocumentHandler
	JobHandler       *handlers.JobHandler
	ScriptHandler    *handlers.ScriptHandler
	VideoHandler     *handlers.VideoHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	ABTestHandler    *handlers.ABTestHandler
	SSEHandler       *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "paperclip-backend"
	}
	router.Use(otelgin.Middleware(serviceName))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Projects
		api.POST("/projects", cfg.ProjectHandler.Create)
		api.GET("/projects", cfg.ProjectHandler.List)
		api.GET("/projects/:id", cfg.ProjectHandler.Get)
		api.PATCH("/projects/:id", cfg.ProjectHandler.Update)
		api.DELETE("/projects/:id", cfg.ProjectHandler.Delete)

		// Documents
		api.POST("/projects/:id/documents", cfg.DocumentHandler.Upload)
		api.GET("/documents/:id", cfg.DocumentHandler.Get)
		api.GET("/documents/:id/content", cfg.DocumentHandler.Content)
		api.DELETE("/documents/:id", cfg.DocumentHandler.Delete)

		// Jobs
		api.POST("/projects/:id/jobs", cfg.JobHandler.Enqueue)
		api.GET("/projects/:id/jobs", cfg.JobHandler.ProjectStatus)
		api.GET("/jobs/:id", cfg.JobHandler.Get)
		api.POST("/jobs/:id/cancel", cfg.JobHandler.Cancel)
		api.POST("/jobs/:id/restart", cfg.JobHandler.Restart)

		// Segments and scripts
		api.GET("/projects/:id/segments", cfg.ScriptHandler.ListSegments)
		api.POST("/segments/:id/status", cfg.ScriptHandler.SetSegmentStatus)
		api.GET("/projects/:id/scripts", cfg.ScriptHandler.ListByProject)
		api.GET("/scripts/:id", cfg.ScriptHandler.Get)
		api.POST("/scripts/:id/approve", cfg.ScriptHandler.Approve)
		api.POST("/scripts/:id/reject", cfg.ScriptHandler.Reject)

		// Visuals and videos
		api.GET("/projects/:id/visuals", cfg.VideoHandler.ListVisuals)
		api.GET("/projects/:id/videos", cfg.VideoHandler.ListByProject)
		api.GET("/videos/:id", cfg.VideoHandler.Get)
		api.GET("/videos/:id/progress", cfg.VideoHandler.Progress)

		// Analytics
		api.POST("/videos/:id/analytics", cfg.AnalyticsHandler.Record)
		api.GET("/videos/:id/analytics", cfg.AnalyticsHandler.List)

		// A/B tests
		api.POST("/projects/:id/abtests", cfg.ABTestHandler.Create)
		api.GET("/projects/:id/abtests", cfg.ABTestHandler.List)
		api.POST("/abtests/:id/conclude", cfg.ABTestHandler.Conclude)

		// Events
		api.GET("/projects/:id/events", cfg.SSEHandler.Stream)
	}

	return router
}
