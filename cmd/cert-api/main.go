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
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/certforge/certforge/internal/auth"
	"github.com/certforge/certforge/internal/config"
	"github.com/certforge/certforge/internal/elements"
	"github.com/certforge/certforge/internal/issues"
	"github.com/certforge/certforge/internal/settings"
	"github.com/certforge/certforge/internal/templates"
	"github.com/certforge/certforge/pkg/pdfsink"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Load .env for local development; real deployments set the env.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env", zap.Error(err))
	}

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to database
	dbURL := cfg.Database.GetDatabaseURL()
	logger.Info("Connecting to database",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName))
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Auth
	tokens := auth.NewTokenService(cfg.Security.JWTSecret, time.Hour)
	authorizer := auth.NewAuthorizer(auth.NewSQLRoleStore(db))

	// Site settings
	siteService := settings.NewService(settings.NewRepository(db), authorizer, logger)
	siteHandler := settings.NewHandler(siteService)
	pageDefaults := func(ctx context.Context) (float64, float64, float64) {
		s, err := siteService.Get(ctx)
		if err != nil {
			d := settings.DefaultSiteSettings()
			return d.DefaultWidthMM, d.DefaultHeightMM, d.DefaultMarginMM
		}
		return s.DefaultWidthMM, s.DefaultHeightMM, s.DefaultMarginMM
	}

	// Template engine
	registry := elements.NewDefaultRegistry()
	tmplRepo := templates.NewRepository(db)
	tmplService := templates.NewService(tmplRepo, registry, authorizer, logger)
	sinkOpts := pdfsink.DefaultOptions()
	sinkOpts.Title = cfg.Certs.PDFTitle
	sinkOpts.Author = cfg.Certs.PDFAuthor
	renderer := templates.NewRenderer(tmplRepo, registry, func() pdfsink.Sink {
		return pdfsink.NewFPDF(sinkOpts)
	}, logger)
	tmplHandler := templates.NewHandler(tmplService, renderer, pageDefaults)

	// Issue ledger
	issueRepo := issues.NewRepository(db)
	contexts := issues.NewSQLContextProvider(db)
	issueService := issues.NewService(issueRepo, tmplRepo, renderer, contexts, authorizer, cfg.Certs.VerifyBaseURL, logger)
	issueHandler := issues.NewHandler(issueService, siteService)

	// Setup Router
	router := gin.Default()

	public := router.Group("/api/v1")
	{
		issueHandler.RegisterPublicRoutes(public)
	}
	api := router.Group("/api/v1", auth.RequireAuth(tokens))
	{
		tmplHandler.RegisterRoutes(api)
		issueHandler.RegisterRoutes(api)
		siteHandler.RegisterRoutes(api)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
