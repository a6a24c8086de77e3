package app

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/whitespace-backend/internal/config"
	"github.com/yungbote/whitespace-backend/internal/data/db"
	httpapi "github.com/yungbote/whitespace-backend/internal/http"
	"github.com/yungbote/whitespace-backend/internal/observability"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
	"github.com/yungbote/whitespace-backend/internal/platform/neo4jdb"
	"github.com/yungbote/whitespace-backend/internal/platform/redisx"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      *config.Config
	Repos    Repos
	Services Services
	Server   *httpapi.Server

	pg        *db.PostgresService
	redis     *goredis.Client
	graph     *neo4jdb.Client
	otelClose func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.NewWithOptions(logger.Options{
		Mode:     cfg.Log.Mode,
		Level:    cfg.Log.Level,
		Redact:   true,
		HashSalt: cfg.Log.HashSalt,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{Log: log, Cfg: cfg}
	a.otelClose = observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Otel.Environment,
		Endpoint:    cfg.Otel.Endpoint,
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})
	metrics := observability.Init(cfg.Metrics.Enabled)

	a.pg, err = db.NewPostgresService(log, db.Options{
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	a.DB = a.pg.DB()
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrateAll(a.DB); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
	}

	// Redis and Neo4j are optional; a configured but unreachable one is fatal.
	if a.redis, err = redisx.New(ctx, log, cfg.Redis.Addr); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if a.graph, err = neo4jdb.New(log, neo4jdb.Config{
		URI:      cfg.Neo4j.URI,
		User:     cfg.Neo4j.User,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
		Timeout:  cfg.Neo4j.Timeout,
		MaxPool:  cfg.Neo4j.MaxPool,
	}); err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Repos = wireRepos(a.DB, log)
	a.Services, err = wireServices(a.DB, log, cfg, a.Repos, a.redis, a.graph)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	handlers := wireHandlers(log, a.Services, metrics)
	a.Server = httpapi.NewServer(wireRouter(log, cfg, handlers, metrics))
	return a, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	a.Log.Info("serving", "addr", a.Cfg.Server.Addr)
	return a.Server.Run(a.Cfg.Server.Addr)
}

// Close stops the HTTP server, drains background persistence, then releases
// clients in reverse order of creation.
func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("http shutdown", "error", err)
		}
	}
	if a.Services.Persister != nil {
		if err := a.Services.Persister.Close(ctx); err != nil {
			a.Log.Warn("persister drain incomplete", "error", err)
		}
	}
	if a.graph != nil {
		_ = a.graph.Close(ctx)
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.otelClose != nil {
		_ = a.otelClose(ctx)
	}
	a.Log.Sync()
}
