package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/leif888/qamanage/internal/api/handlers"
	"github.com/leif888/qamanage/internal/api/middleware"
	"github.com/leif888/qamanage/internal/api/websocket"
	"github.com/leif888/qamanage/internal/domain/services"
	"github.com/leif888/qamanage/internal/pkg/config"
	"github.com/leif888/qamanage/internal/pkg/metrics"
	"github.com/leif888/qamanage/internal/pkg/queue"
	pkgredis "github.com/leif888/qamanage/internal/pkg/redis"
	"github.com/leif888/qamanage/internal/worker/events"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Server struct {
	cfg          *config.Config
	router       *chi.Mux
	httpServer   *http.Server
	wsHub        *websocket.Hub
	wsSubscriber *websocket.Subscriber
}

type Services struct {
	Project       *services.ProjectService
	TestStep      *services.TestStepService
	TestCase      *services.TestCaseService
	TestData      *services.TestDataService
	TradeTemplate *services.TradeTemplateService
	Execution     *services.ExecutionService
}

func NewServer(
	cfg *config.Config,
	svc *Services,
	redisClient *pkgredis.Client,
	queueClient *queue.Client,
	db *gorm.DB,
) *Server {
	router := chi.NewRouter()

	// WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// WebSocket subscriber (listens to Redis events and broadcasts to clients)
	wsSubscriber := websocket.NewSubscriber(redisClient.Client, wsHub)
	wsSubscriber.Start()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger())
	router.Use(middleware.Recoverer())
	router.Use(metrics.MetricsMiddleware)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS - support multiple origins (comma-separated in config)
	allowedOrigins := strings.Split(cfg.App.FrontendURL, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	router.Use(corsHandler.Handler)

	// Initialize handlers
	projectHandler := handlers.NewProjectHandler(svc.Project)
	stepHandler := handlers.NewTestStepHandler(svc.TestStep)
	caseHandler := handlers.NewTestCaseHandler(svc.TestCase)
	dataHandler := handlers.NewTestDataHandler(svc.TestData)
	templateHandler := handlers.NewTradeTemplateHandler(svc.TradeTemplate)
	executionHandler := handlers.NewExecutionHandler(svc.Execution, queueClient,
		events.NewPublisher(redisClient.Client))
	healthHandler := handlers.NewHealthHandler(db, redisClient.Client)
	wsHandler := handlers.NewWebSocketHandler(wsHub, allowedOrigins)

	// Routes
	router.Route("/api/v1", func(r chi.Router) {
		// Health
		r.Get("/health", healthHandler.Health)
		r.Get("/health/live", healthHandler.Live)
		r.Get("/health/ready", healthHandler.Ready)

		// Projects
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Post("/", projectHandler.Create)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", projectHandler.Get)
				r.Put("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)
			})
		})

		// Test steps
		r.Route("/test-steps", func(r chi.Router) {
			r.Get("/", stepHandler.List)
			r.Post("/", stepHandler.Create)
			r.Route("/{stepID}", func(r chi.Router) {
				r.Get("/", stepHandler.Get)
				r.Put("/", stepHandler.Update)
				r.Delete("/", stepHandler.Delete)
				r.Post("/usage", stepHandler.RecordUsage)
			})
		})

		// Test cases and their files
		r.Route("/test-cases", func(r chi.Router) {
			r.Get("/", caseHandler.List)
			r.Get("/tree", caseHandler.Tree)
			r.Post("/", caseHandler.Create)
			r.Route("/{caseID}", func(r chi.Router) {
				r.Get("/", caseHandler.Get)
				r.Get("/full-path", caseHandler.FullPath)
				r.Put("/", caseHandler.Update)
				r.Delete("/", caseHandler.Delete)
				r.Get("/files", caseHandler.ListFiles)
				r.Post("/files", caseHandler.CreateFile)
			})
		})
		r.Route("/test-case-files/{fileID}", func(r chi.Router) {
			r.Put("/", caseHandler.UpdateFile)
			r.Delete("/", caseHandler.DeleteFile)
		})

		// Test data tree
		r.Route("/test-data", func(r chi.Router) {
			r.Get("/tree", dataHandler.Tree)
			r.Post("/", dataHandler.Create)
			r.Route("/{nodeID}", func(r chi.Router) {
				r.Get("/", dataHandler.Get)
				r.Get("/full-path", dataHandler.FullPath)
				r.Put("/", dataHandler.Update)
				r.Delete("/", dataHandler.Delete)
				r.Post("/render", dataHandler.Render)
			})
		})

		// Trade templates
		r.Route("/trade-templates", func(r chi.Router) {
			r.Get("/", templateHandler.List)
			r.Get("/tree", templateHandler.Tree)
			r.Post("/", templateHandler.Create)
			r.Post("/render-text", templateHandler.RenderText)
			r.Route("/{templateID}", func(r chi.Router) {
				r.Get("/", templateHandler.Get)
				r.Get("/full-path", templateHandler.FullPath)
				r.Put("/", templateHandler.Update)
				r.Delete("/", templateHandler.Delete)
				r.Post("/render", templateHandler.Render)
				r.Post("/validate", templateHandler.Validate)
			})
		})

		// Executions
		r.Route("/test-executions", func(r chi.Router) {
			r.Get("/", executionHandler.List)
			r.Post("/", executionHandler.Create)
			r.Route("/{executionID}", func(r chi.Router) {
				r.Get("/", executionHandler.Get)
				r.Post("/cancel", executionHandler.Cancel)
				r.Get("/progress", executionHandler.Progress)
				r.Get("/report", executionHandler.Report)
				r.Get("/step-results", executionHandler.StepResults)
				r.Post("/step-results", executionHandler.AddStepResult)
			})
		})

		// Reports
		r.Get("/reports/summary", executionHandler.Summary)
	})

	// Metrics endpoint (Prometheus)
	router.Handle("/metrics", metrics.Handler())

	// WebSocket
	router.Get("/ws", wsHandler.HandleConnection)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		cfg:          cfg,
		router:       router,
		httpServer:   httpServer,
		wsHub:        wsHub,
		wsSubscriber: wsSubscriber,
	}
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	s.wsSubscriber.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) Hub() *websocket.Hub {
	return s.wsHub
}
