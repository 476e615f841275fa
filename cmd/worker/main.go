package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/leif888/qamanage/internal/domain/repositories"
	"github.com/leif888/qamanage/internal/domain/services"
	"github.com/leif888/qamanage/internal/pkg/config"
	"github.com/leif888/qamanage/internal/pkg/database"
	"github.com/leif888/qamanage/internal/pkg/logger"
	pkgredis "github.com/leif888/qamanage/internal/pkg/redis"
	"github.com/leif888/qamanage/internal/worker"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.Init(cfg.App.Environment, cfg.App.Debug)

	log.Info().
		Str("app", cfg.App.Name).
		Str("service", "worker").
		Msg("Starting worker service")

	// Connect to database
	db, err := database.NewGormDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Connect to Redis
	redisClient, err := pkgredis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	// Initialize repositories
	projectRepo := repositories.NewProjectRepository(db)
	caseRepo := repositories.NewTestCaseRepository(db)
	fileRepo := repositories.NewTestCaseFileRepository(db)
	executionRepo := repositories.NewExecutionRepository(db)
	stepResultRepo := repositories.NewStepResultRepository(db)

	// Initialize services
	caseSvc := services.NewTestCaseService(caseRepo, fileRepo, projectRepo)
	executionSvc := services.NewExecutionService(executionRepo, stepResultRepo, caseRepo, projectRepo)

	// Create worker
	w := worker.New(cfg, executionSvc, caseSvc, redisClient.Client)

	// Reaper fails executions stuck in running, e.g. after a worker crash
	reaper := worker.NewReaper(executionSvc, redisClient, cfg.Runner.StaleAfter, cfg.Runner.ReapInterval)
	if err := reaper.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start reaper")
	}

	// Handle shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down worker...")
		reaper.Stop()
		w.Shutdown()
	}()

	// Start worker
	if err := w.Start(); err != nil {
		log.Fatal().Err(err).Msg("Worker error")
	}
}
