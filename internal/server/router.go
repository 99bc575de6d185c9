package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hadithhub/hadith-backend/internal/handlers"
	"github.com/hadithhub/hadith-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware        *middleware.AuthMiddleware
	InteractionHandler    *handlers.InteractionHandler
	RecommendationHandler *handlers.RecommendationHandler
	SchedulerHandler      *handlers.SchedulerHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User-ID"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireUser())
	// Interactions
	api.POST("/interactions", cfg.InteractionHandler.Track)
	api.GET("/users/me/stats", cfg.InteractionHandler.GetUserStats)
	api.GET("/users/me/patterns", cfg.InteractionHandler.GetReadingPatterns)
	// Recommendations
	api.GET("/recommendations", cfg.RecommendationHandler.List)
	api.POST("/recommendations/generate", cfg.RecommendationHandler.Generate)
	api.GET("/recommendations/diagnosis", cfg.RecommendationHandler.Diagnosis)
	api.POST("/recommendations/:id/track", cfg.RecommendationHandler.TrackInteraction)
	api.POST("/recommendations/:id/rate", cfg.RecommendationHandler.Rate)
	api.DELETE("/recommendations/:id", cfg.RecommendationHandler.Delete)
	api.DELETE("/recommendations", cfg.RecommendationHandler.ClearOld)
	// Scheduler
	api.GET("/admin/scheduler/status", cfg.SchedulerHandler.Status)

	return router
}
