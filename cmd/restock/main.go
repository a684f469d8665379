package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vbonduro/restock/internal/auth"
	"github.com/vbonduro/restock/internal/cache"
	"github.com/vbonduro/restock/internal/config"
	"github.com/vbonduro/restock/internal/db"
	"github.com/vbonduro/restock/internal/imagestore/local"
	"github.com/vbonduro/restock/internal/logging"
	"github.com/vbonduro/restock/internal/repository"
	"github.com/vbonduro/restock/internal/service"
	"github.com/vbonduro/restock/internal/store"
	"github.com/vbonduro/restock/internal/store/pgstore"
	"github.com/vbonduro/restock/internal/vision"
	claudevision "github.com/vbonduro/restock/internal/vision/claude"
	ollamavision "github.com/vbonduro/restock/internal/vision/ollama"
	"github.com/vbonduro/restock/internal/web"
	"github.com/vbonduro/restock/internal/web/templates"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		logger.Error("failed to open entity repository", "backend", cfg.StoreBackend, "error", err)
		return
	}
	defer closeRepo()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	repo = repository.Instrument(repo, repository.MustNewMetrics(registry), logger)

	images, err := local.NewLocalImageStore(cfg.ImagePath)
	if err != nil {
		logger.Error("failed to initialize image store", "error", err)
		return
	}

	verifier := auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer, cfg.AuthJWTAudience)
	if !verifier.Enabled() {
		logger.Warn("AUTH_JWT_SECRET not set, serving without authentication")
	}

	svc := service.NewInventoryService(repo, cache.New(), newSuggester(cfg, logger), images, logger)
	server := web.NewServer(svc, templates.FS, web.Options{
		Verifier: verifier,
		Registry: registry,
	}, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// openRepository connects the configured backend and returns it with its
// close function.
func openRepository(cfg *config.Config, logger *slog.Logger) (repository.Repository, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg := pgstore.New(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("using postgres entity repository")
		return pg, pool.Close, nil
	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite entity repository", "path", cfg.DBPath)
		return store.NewItemStore(database), func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	}
}

// newSuggester returns nil when photo suggestions are off.
func newSuggester(cfg *config.Config, logger *slog.Logger) vision.Suggester {
	switch cfg.VisionBackend {
	case "claude":
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeSuggester(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaSuggester(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("photo suggestions disabled")
		return nil
	}
}
