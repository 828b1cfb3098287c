package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/trainforge-backend/internal/data/db"
	"github.com/yungbote/trainforge-backend/internal/data/repos"
	httpapi "github.com/yungbote/trainforge-backend/internal/http"
	"github.com/yungbote/trainforge-backend/internal/http/response"
	"github.com/yungbote/trainforge-backend/internal/observability"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Set
	Clients  Clients
	Services Services
	Server   *httpapi.Server

	store           *db.Service
	shutdownTracing func(context.Context) error
	cancel          context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Configuration loaded", "env", cfg.Env, "db_driver", cfg.DB.Driver, "redis", cfg.RedisEnabled())

	response.IncludeStacks(!cfg.Production())
	shutdownTracing := observability.InitTracing(ctx, log, cfg.Tracing)

	store, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := store.AutoMigrateAll(); err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := store.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	set := repos.NewSet(theDB, log)
	svc := wireServices(theDB, log, set, clients)
	handlers := wireHandlers(theDB, log, svc, clients)

	return &App{
		Log:             log,
		DB:              theDB,
		Cfg:             cfg,
		Repos:           set,
		Clients:         clients,
		Services:        svc,
		Server:          wireServer(log, cfg, handlers),
		store:           store,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Start launches background work: the redis forwarder that feeds other processes'
// broadcasts into the local hub.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.Bus != nil {
		hub := a.Clients.Hub
		if err := a.Clients.Bus.StartForwarder(ctx, func(m realtime.SSEMessage) { hub.Broadcast(m) }); err != nil {
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
		a.Log.Info("SSE forwarder started")
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Listening", "port", a.Cfg.Port)
	return a.Server.Run()
}

// Shutdown drains in-flight requests, then releases every client.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Clients.Bus != nil {
		errs = append(errs, a.Clients.Bus.Close())
	}
	if a.Clients.Redis != nil {
		errs = append(errs, a.Clients.Redis.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(ctx))
	}
	a.Log.Sync()
	return errors.Join(errs...)
}
