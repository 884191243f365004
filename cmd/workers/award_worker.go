package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/certforge/certforge/internal/auth"
	"github.com/certforge/certforge/internal/config"
	"github.com/certforge/certforge/internal/elements"
	"github.com/certforge/certforge/internal/issues"
	"github.com/certforge/certforge/internal/templates"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env", zap.Error(err))
	}

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if !cfg.Awards.Enabled {
		logger.Info("Award worker disabled by configuration")
		return
	}

	// Connect to database
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Connected to database")

	registry := elements.NewDefaultRegistry()
	tmplRepo := templates.NewRepository(db)
	renderer := templates.NewRenderer(tmplRepo, registry, nil, logger)
	issueRepo := issues.NewRepository(db)
	contexts := issues.NewSQLContextProvider(db)
	authorizer := auth.NewAuthorizer(auth.NewSQLRoleStore(db))
	service := issues.NewService(issueRepo, tmplRepo, renderer, contexts, authorizer, cfg.Certs.VerifyBaseURL, logger)

	workerCfg := issues.DefaultAwardWorkerConfig()
	if cfg.Awards.Schedule != "" {
		workerCfg.Schedule = cfg.Awards.Schedule
	}
	worker := issues.NewAwardWorker(db, service, workerCfg, logger)

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := worker.Start(ctx); err != nil {
		logger.Fatal("Failed to start award worker", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")
	cancel()
	worker.Stop()
}
