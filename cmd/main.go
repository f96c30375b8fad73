package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"

	"movie-discovery-sinema/internal/config"
	"movie-discovery-sinema/internal/database"
	"movie-discovery-sinema/internal/handler"
	"movie-discovery-sinema/internal/llm"
	"movie-discovery-sinema/internal/middleware"
	"movie-discovery-sinema/internal/repository"
	"movie-discovery-sinema/internal/service"
	"movie-discovery-sinema/internal/tmdb"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// Connect to Redis (non-fatal unless it is the profile store)
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		if cfg.Store.Backend == config.BackendRedis {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		slog.Warn("Redis unavailable, running without rate limiting or poster cache", "error", err)
		rdb = nil
	}

	store, closer, err := openStore(cfg, rdb)
	if err != nil {
		slog.Error("failed to open profile store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	slog.Info("profile store ready", "backend", cfg.Store.Backend)

	completer, err := llm.New(cfg.AI)
	if err != nil {
		slog.Error("failed to create completion client", "error", err)
		os.Exit(1)
	}
	if cfg.AI.APIKey == "" {
		slog.Warn("no AI API key configured, searches and recommendations will be empty")
	}

	// Poster lookups are optional
	var posters service.PosterFinder
	if cfg.TMDB.APIKey != "" {
		posters = service.NewCachedPosterFinder(tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.BaseURL), rdb)
	}

	// Initialize layers
	profiles := repository.NewProfileRepository(store, cfg.Store.KeyPrefix)
	catalog := service.NewCatalogService(completer, cfg.AI.Model, posters)
	session := service.NewSessionService(profiles, catalog)
	if session.Start(context.Background()) {
		slog.Info("resumed stored session", "username", session.User().Username)
	}
	h := handler.NewSessionHandler(session)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Sinema",
		ServerHeader: "Sinema",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("unhandled error", "error", err, "status", code)
			return c.Status(code).JSON(handler.ErrorResponse{Error: err.Error()})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(middleware.NewRateLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindowSeconds).Handler())

	// Swagger docs
	swaggerYAML, err := os.ReadFile("docs/swagger.yaml")
	if err != nil {
		slog.Warn("swagger.yaml not found, swagger UI will be unavailable", "error", err)
	} else {
		handler.RegisterSwagger(app, swaggerYAML)
	}

	handler.RegisterRoutes(app, h)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.Port
		slog.Info("starting sinema", "addr", addr)
		if err := app.Listen(addr); err != nil {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down sinema...")

	if err := app.Shutdown(); err != nil {
		slog.Error("error shutting down HTTP server", "error", err)
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			slog.Error("error closing profile store", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("error closing Redis connection", "error", err)
		}
	}
}

// openStore opens the configured key-value backend. The returned closer
// is nil when the backend owns no resources of its own.
func openStore(cfg *config.Config, rdb *redis.Client) (repository.KVStore, io.Closer, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return repository.NewMemoryStore(), nil, nil
	case config.BackendRedis:
		return repository.NewRedisStore(rdb), nil, nil
	case config.BackendPostgres:
		db, err := database.NewPostgres(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLStore(db, repository.DialectPostgres), db, nil
	case config.BackendSQLite:
		db, err := database.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLStore(db, repository.DialectSQLite), db, nil
	case config.BackendBadger:
		db, err := database.NewBadger(cfg.Store.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewBadgerStore(db), db, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Store.Backend)
}
