package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hadithhub/hadith-backend/internal/clients/hadith"
	"github.com/hadithhub/hadith-backend/internal/db"
	"github.com/hadithhub/hadith-backend/internal/handlers"
	"github.com/hadithhub/hadith-backend/internal/jobs"
	"github.com/hadithhub/hadith-backend/internal/logger"
	"github.com/hadithhub/hadith-backend/internal/middleware"
	"github.com/hadithhub/hadith-backend/internal/repos"
	"github.com/hadithhub/hadith-backend/internal/scheduler"
	"github.com/hadithhub/hadith-backend/internal/server"
	"github.com/hadithhub/hadith-backend/internal/services"
	"github.com/hadithhub/hadith-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	interactionRepo := repos.NewInteractionRepo(thePG, log)
	statisticRepo := repos.NewHadithStatisticRepo(thePG, log)
	patternRepo := repos.NewReadingPatternRepo(thePG, log)
	recommendationRepo := repos.NewRecommendationRepo(thePG, log)

	// External content source
	hadithClient, err := hadith.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init HadithClient", "error", err)
		os.Exit(1)
	}

	// Background pool
	poolWorkers := utils.GetEnvAsInt("JOB_POOL_WORKERS", 4, log)
	poolQueue := utils.GetEnvAsInt("JOB_POOL_QUEUE", 256, log)
	pool := jobs.NewPool(log, poolWorkers, poolQueue)
	pool.Start(context.Background())
	defer pool.Stop()

	// Services
	log.Info("Setting up Services from main...")
	categoryDirectory := services.NewCategoryDirectory(log, hadithClient, nil)
	statisticsService := services.NewStatisticsService(thePG, log, statisticRepo, interactionRepo)
	patternService := services.NewPatternService(thePG, log, patternRepo, interactionRepo, hadithClient, categoryDirectory, nil)
	recommendationService := services.NewRecommendationService(thePG, log, recommendationRepo, statisticRepo, patternRepo, interactionRepo, hadithClient, categoryDirectory, nil)
	interactionService := services.NewInteractionService(thePG, log, interactionRepo, statisticsService, patternService, pool)

	// Scheduler
	sched := scheduler.New(log, scheduler.DefaultConfig(), recommendationService, statisticsService, patternService, interactionRepo)
	if utils.GetEnvAsBool("SCHEDULER_ENABLED", true, log) {
		if err := sched.Start(); err != nil {
			log.Error("Scheduler start failed", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	interactionHandler := handlers.NewInteractionHandler(interactionService, patternService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)
	schedulerHandler := handlers.NewSchedulerHandler(sched)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:        authMiddleware,
		InteractionHandler:    interactionHandler,
		RecommendationHandler: recommendationHandler,
		SchedulerHandler:      schedulerHandler,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info("Shutdown signal received")
		sched.Stop()
		pool.Stop()
		os.Exit(0)
	}()

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
