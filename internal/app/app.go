package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/memberhub-backend/internal/data/db"
	httpserver "github.com/yungbote/memberhub-backend/internal/http"
	"github.com/yungbote/memberhub-backend/internal/observability"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpserver.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Sync()
		return nil, err
	}

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Version,
	})

	dbs, err := db.NewService(log, db.Config{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DBDSN,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbs.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)
	handlerset := wireHandlers(theDB, log, cfg, serviceset)
	middleware := wireMiddleware(log, cfg)
	server := wireRouter(log, cfg, clients.Redis, serviceset, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		dbService:    dbs,
		otelShutdown: otelShutdown,
	}, nil
}

// Start applies the seed file. Seeding never overwrites rows an admin already edited.
func (a *App) Start(ctx context.Context) error {
	f, err := services.LoadSeedFile(a.Cfg.SeedConfigPath)
	if err != nil {
		return fmt.Errorf("load seed file: %w", err)
	}
	if f == nil {
		a.Log.Info("No seed file found; storing defaults", "path", a.Cfg.SeedConfigPath)
	}
	if err := a.Services.Seed.Apply(ctx, f); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
