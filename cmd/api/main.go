package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/orusmind/orus-builder/internal/auth"
	"github.com/orusmind/orus-builder/internal/config"
	"github.com/orusmind/orus-builder/internal/gateway"
	"github.com/orusmind/orus-builder/internal/generation"
	"github.com/orusmind/orus-builder/internal/llm"
	"github.com/orusmind/orus-builder/internal/metrics"
	"github.com/orusmind/orus-builder/internal/notify"
	"github.com/orusmind/orus-builder/internal/pipeline"
	"github.com/orusmind/orus-builder/internal/project"
	"github.com/orusmind/orus-builder/internal/store"
)

// @title ORUS Builder API
// @version 1.0
// @description AI-powered web application builder API
// @description
// @description This API turns natural-language prompts into scaffolded web application code.
// @description Features include: prompt analysis pipeline, LLM-backed component generation, ZIP export, and real-time progress streaming.

// @contact.name API Support
// @contact.email support@orusmind.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3001
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg.LogLevel)

	if err := initTracer(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}

	// Connect to PostgreSQL with retry logic
	log.Info().Msg("connecting to PostgreSQL database")
	var pool *pgxpool.Pool

	for i := 0; i < 10; i++ {
		pool, err = pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				break
			}
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("waiting for database")
		time.Sleep(3 * time.Second)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database after retries")
	}

	defer pool.Close()
	log.Info().Msg("connected to PostgreSQL database")

	// LLM client and core engines
	llmClient, err := llm.NewClient(llm.Config{
		APIKey:  cfg.GroqAPIKey,
		Model:   cfg.GroqModel,
		BaseURL: cfg.GroqBaseURL,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize LLM client")
	}

	processor := pipeline.NewProcessor(log.Logger)
	engine := generation.NewEngine(llmClient, log.Logger)
	results := store.NewResultStore()
	hub := gateway.NewProgressHub()
	projects := project.NewService(pool)
	notifications := notify.NewSystem(log.Logger)
	feedback := notify.NewFeedbackStore(log.Logger)

	genMetrics, err := metrics.NewGenerationMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize JWT manager")
	}

	handler := gateway.NewHandler(processor, engine, results, hub, projects,
		notifications, feedback, genMetrics, jwtManager, pool)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	// Health checks at the root
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		// Check database connectivity for readiness
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "database connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Swagger documentation (public)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := router.Group("/api")

	// Public routes (no authentication required)
	api.POST("/auth/login", handler.Login)

	// Protected routes (require JWT authentication)
	protected := api.Group("")
	protected.Use(auth.RequireAuth(jwtManager))

	// Generation routes
	protected.POST("/v1/generation/generate", handler.Generate)
	protected.GET("/v1/generation/:jobId/result", handler.GetResult)
	protected.GET("/v1/generation/:jobId/stream", handler.StreamProgress)
	protected.GET("/v1/generation/download/:id", handler.Download)

	// Dashboard project routes
	protected.POST("/dashboard/projects", handler.CreateProject)
	protected.GET("/dashboard/projects", handler.ListProjects)
	protected.GET("/dashboard/projects/:id", handler.GetProject)
	protected.PUT("/dashboard/projects/:id", handler.UpdateProject)
	protected.DELETE("/dashboard/projects/:id", handler.DeleteProject)

	// Notification routes
	protected.GET("/notifications", handler.ListNotifications)
	protected.POST("/notifications/:id/read", handler.MarkNotificationRead)
	protected.GET("/notifications/preferences", handler.GetNotificationPreferences)
	protected.PUT("/notifications/preferences", handler.SetNotificationPreferences)

	// Feedback routes
	protected.POST("/feedback", handler.SubmitFeedback)
	protected.GET("/feedback/summary", handler.GetFeedbackSummary)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // generation runs synchronously inside the request
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting ORUS Builder API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// initLogger configures the global zerolog logger
func initLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// initTracer initializes OpenTelemetry tracing
func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return nil
}

// requestLogger provides structured request logging for all routes
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}

		ev = ev.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP())

		if userID, ok := c.Get("user_id"); ok {
			ev = ev.Interface("user_id", userID)
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}

		ev.Msg("request")
	}
}
