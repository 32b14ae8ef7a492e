package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RaphaelInbix/agente-cassiano/internal/config"
	"github.com/RaphaelInbix/agente-cassiano/internal/curator"
	"github.com/RaphaelInbix/agente-cassiano/internal/database"
	"github.com/RaphaelInbix/agente-cassiano/internal/engine"
	"github.com/RaphaelInbix/agente-cassiano/internal/handler"
	"github.com/RaphaelInbix/agente-cassiano/internal/middleware"
	"github.com/RaphaelInbix/agente-cassiano/internal/model"
	"github.com/RaphaelInbix/agente-cassiano/internal/pipeline"
	"github.com/RaphaelInbix/agente-cassiano/internal/repository"
	"github.com/RaphaelInbix/agente-cassiano/internal/scrape"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sources, err := config.LoadSources(cfg.Scrape.SourcesFile)
	if err != nil {
		slog.Error("failed to load sources", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Wire the curation pipeline
	fetcher := scrape.NewFetcher(cfg.Scrape, logger)
	scrapers := []pipeline.Scraper{
		scrape.NewNewsletterScraper(fetcher, sources.Newsletters, logger),
		scrape.NewRedditScraper(fetcher, cfg.Scrape, sources.Subreddits, logger),
		scrape.NewYouTubeScraper(fetcher, cfg.Scrape, sources.YouTubeChannels, sources.YouTubeKeywords, logger),
	}
	pipe := pipeline.New(scrapers, curator.New(logger), cfg.Job.MaxItems, cfg.Scrape.RedditTopN, logger)

	datasetRepo := repository.NewDatasetRepository(db)
	eng := engine.New(pipe, datasetRepo, cfg.Job.ResetGrace, cfg.Job.PipelineTimeout, logger)

	// Seed the engine with the last stored dataset so restarts keep
	// serving content.
	if ds, err := datasetRepo.LoadDataset(ctx); err != nil {
		slog.Warn("could not load stored dataset", slog.String("error", err.Error()))
	} else if ds.Total() > 0 {
		eng.Restore(ds)
		slog.Info("restored dataset",
			slog.Int("items", ds.Total()),
			slog.Int64("generation", ds.Generation),
		)
	}

	jobHandler := handler.NewJobHandler(eng)

	// Create router and register routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handler.Health)
	mux.HandleFunc("POST /api/trigger", jobHandler.Trigger)
	mux.HandleFunc("GET /api/status", jobHandler.Status)
	mux.HandleFunc("GET /api/dataset", jobHandler.Dataset)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, model.NewNotFoundError(r.URL.Path))
	})

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	// Let an in-flight curation run finish before dropping the process.
	if err := eng.Wait(shutdownCtx); err != nil {
		slog.Warn("curation run still in flight at shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
