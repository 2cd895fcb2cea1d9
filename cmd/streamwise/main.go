package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/streamwise/streamwise/internal/api"
	"github.com/streamwise/streamwise/internal/config"
	"github.com/streamwise/streamwise/internal/database"
	"github.com/streamwise/streamwise/internal/logger"
	"github.com/streamwise/streamwise/internal/lookup"
	"github.com/streamwise/streamwise/internal/metadata/tmdb"
	"github.com/streamwise/streamwise/internal/scraper"
)

func main() {
	// Load .env before config so TMDB_API_KEY and friends are visible.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting StreamWise")

	if cfg.TMDB.APIKey == "" {
		log.Warn().Msg("TMDB API key not set, provider lookups will not work")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	resolver := scraper.NewResolver(cfg.Scraper, log.Logger)
	provider := tmdb.NewClient(cfg.TMDB, log.Logger)
	lookupService := lookup.NewService(resolver, provider, cfg.Cache,
		lookup.LogEvents{Logger: log.Logger}, log.Logger)

	server := api.NewServer(db.Conn(), cfg, lookupService, log.Logger)

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil {
			log.Info().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
