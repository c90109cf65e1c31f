package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"goanova/adapters/memstore"
	"goanova/adapters/rng"
	"goanova/app"
	"goanova/internal/config"
	"goanova/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	store := memstore.New()
	service := app.NewAnalysisService(store, rng.New(), logger)
	service.ConfigureBootstrap(cfg.Bootstrap.Samples, cfg.Bootstrap.Workers, cfg.Bootstrap.Seed)
	service.SetDefaultAlpha(cfg.Analysis.DefaultAlpha)

	server := ui.NewApp(service, store, logger)
	if err := server.Start(cfg.Server.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
