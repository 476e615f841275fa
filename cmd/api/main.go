package main

import (
	"github.com/leif888/qamanage/internal/api"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"github.com/leif888/qamanage/internal/domain/services"
	"github.com/leif888/qamanage/internal/pkg/config"
	"github.com/leif888/qamanage/internal/pkg/database"
	"github.com/leif888/qamanage/internal/pkg/logger"
	"github.com/leif888/qamanage/internal/pkg/queue"
	pkgredis "github.com/leif888/qamanage/internal/pkg/redis"
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
		Str("env", cfg.App.Environment).
		Msg("Starting API server")

	// Connect to database
	db, err := database.NewGormDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := pkgredis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	// Initialize queue client
	queueClient := queue.NewClient(&cfg.Redis)

	// Initialize repositories
	projectRepo := repositories.NewProjectRepository(db)
	stepRepo := repositories.NewTestStepRepository(db)
	caseRepo := repositories.NewTestCaseRepository(db)
	fileRepo := repositories.NewTestCaseFileRepository(db)
	dataRepo := repositories.NewTestDataRepository(db)
	templateRepo := repositories.NewTradeTemplateRepository(db)
	executionRepo := repositories.NewExecutionRepository(db)
	stepResultRepo := repositories.NewStepResultRepository(db)

	// Initialize services
	projectSvc := services.NewProjectService(projectRepo)
	stepSvc := services.NewTestStepService(stepRepo, projectRepo)
	caseSvc := services.NewTestCaseService(caseRepo, fileRepo, projectRepo)
	dataSvc := services.NewTestDataService(dataRepo, projectRepo)
	templateSvc := services.NewTradeTemplateService(templateRepo, projectRepo)
	executionSvc := services.NewExecutionService(executionRepo, stepResultRepo, caseRepo, projectRepo)

	// Create server
	server := api.NewServer(
		cfg,
		&api.Services{
			Project:       projectSvc,
			TestStep:      stepSvc,
			TestCase:      caseSvc,
			TestData:      dataSvc,
			TradeTemplate: templateSvc,
			Execution:     executionSvc,
		},
		redisClient,
		queueClient,
		db,
	)

	// Start server
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
