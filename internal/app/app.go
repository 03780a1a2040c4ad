package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"projecthub/internal/auth"
	"projecthub/internal/config"
	"projecthub/internal/db"
	"projecthub/internal/division"
	"projecthub/internal/enrollment"
	"projecthub/internal/evaluation"
	"projecthub/internal/feedback"
	"projecthub/internal/group"
	"projecthub/internal/guide"
	"projecthub/internal/health"
	"projecthub/internal/logger"
	"projecthub/internal/messaging"
	"projecthub/internal/metrics"
	"projecthub/internal/middleware"
	"projecthub/internal/models"
	"projecthub/internal/roster"
	"projecthub/internal/student"
	"projecthub/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type App struct {
	config        *config.Config
	router        chi.Router
	server        *http.Server
	logger        *slog.Logger
	database      *bun.DB
	producer      *messaging.Producer
	meterProvider *sdkmetric.MeterProvider
}

func New() *App {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses JSON format
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	app := &App{
		config: cfg,
		router: chi.NewRouter(),
		logger: slogLogger,
	}

	ctx := context.Background()

	meterProvider, err := telemetry.InitMeterProvider(ctx, ServiceName, Version, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize metrics exporter, metrics will not be shipped", "error", err)
		meterProvider = sdkmetric.NewMeterProvider()
	}
	app.meterProvider = meterProvider

	meter := meterProvider.Meter(ServiceName)
	m, err := metrics.New(meter)
	if err != nil {
		log.Fatalf("failed to create metrics: %v", err)
	}

	database := db.New(cfg.Database)
	app.database = database
	if err := m.Database.RegisterDB(database.DB, meter); err != nil {
		slogLogger.Warn("failed to register connection pool metrics", "error", err)
	}

	if err := db.RunMigrations(ctx, database,
		(*models.Division)(nil),
		(*models.Enrollment)(nil),
		(*models.Student)(nil),
		(*models.Guide)(nil),
		(*models.Group)(nil),
		(*models.GroupMember)(nil),
		(*models.Feedback)(nil),
		(*models.Evaluation)(nil),
	); err != nil {
		log.Fatal("failed to run migrations:", err)
	}

	// Apply CORS middleware globally
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health endpoints (no auth required)
	healthHandler := health.NewHandler()
	healthHandler.RegisterRoutes(app.router)

	// Repositories
	divisionRepo := division.NewRepository(database, m)
	enrollmentRepo := enrollment.NewRepository(database, m)
	studentRepo := student.NewRepository(database, m)
	guideRepo := guide.NewRepository(database, m)
	groupRepo := group.NewRepository(database, m)
	feedbackRepo := feedback.NewRepository(database, m)
	evaluationRepo := evaluation.NewRepository(database, m)

	// NATS producer setup
	natsProducer, err := messaging.NewProducer(cfg.NATS.URL, cfg.NATS.SubjectPrefix, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize NATS producer", "error", err)
		natsProducer = nil
	} else {
		slogLogger.Info("NATS producer initialized successfully")
	}
	app.producer = natsProducer

	// Services
	engine := roster.NewEngine(groupRepo, divisionRepo, enrollmentRepo, studentRepo, guideRepo, slogLogger, m)

	divisionService := division.NewService(divisionRepo)
	enrollmentService := enrollment.NewService(enrollmentRepo, divisionRepo)
	guideService := guide.NewService(guideRepo)

	var events group.EventPublisher
	if natsProducer != nil {
		events = natsProducer
	}
	groupService := group.NewService(groupRepo, guideRepo, engine, events, slogLogger, m)
	feedbackService := feedback.NewService(feedbackRepo, groupRepo, slogLogger, m)
	evaluationService := evaluation.NewService(evaluationRepo, groupRepo, slogLogger, m)

	// Handlers
	divisionHandler := division.NewHandler(divisionService, slogLogger)
	enrollmentHandler := enrollment.NewHandler(enrollmentService, slogLogger, m)
	guideHandler := guide.NewHandler(guideService, slogLogger)
	groupHandler := group.NewHandler(groupService, slogLogger)
	feedbackHandler := feedback.NewHandler(feedbackService, slogLogger)
	evaluationHandler := evaluation.NewHandler(evaluationService, slogLogger)

	// Create protected routes group for /api endpoints
	app.router.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret, slogLogger))
		divisionHandler.RegisterRoutes(r)
		enrollmentHandler.RegisterRoutes(r)
		guideHandler.RegisterRoutes(r)
		groupHandler.RegisterRoutes(r)
		feedbackHandler.RegisterRoutes(r)
		evaluationHandler.RegisterRoutes(r)
	})

	slogLogger.Info("application initialized successfully")

	return app
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	err := a.server.Shutdown(ctx)

	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.database != nil {
		db.Close(a.database)
	}
	telemetry.Shutdown(ctx, a.meterProvider, a.logger)

	return err
}
