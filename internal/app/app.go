package app

import (
	"context"
	"fmt"
	"os"

	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/strideworks/coachbridge-backend/internal/db"
	"github.com/strideworks/coachbridge-backend/internal/observability"
	"github.com/strideworks/coachbridge-backend/internal/platform/gcp"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
	"github.com/strideworks/coachbridge-backend/internal/presence"
	"github.com/strideworks/coachbridge-backend/internal/realtime"
	"github.com/strideworks/coachbridge-backend/internal/realtime/bus"
)

const gracefulShutdownTimeout = 5 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Hub      *realtime.Hub
	Bus      bus.Bus
	Presence presence.Tracker

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
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

	cfg := LoadConfig()

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init attachment bucket: %w", err)
	}

	hub := realtime.NewHub(log)

	// Redis fans events and presence across instances. Without it the
	// app still works on a single instance through in-process loopback.
	var (
		eventBus bus.Bus
		tracker  presence.Tracker
	)
	if os.Getenv("REDIS_ADDR") != "" {
		eventBus, err = bus.NewRedisBus(log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init redis bus: %w", err)
		}
		tracker, err = presence.NewRedisTracker(log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init redis presence: %w", err)
		}
	} else {
		log.Info("REDIS_ADDR not set, using in-process bus and presence")
		eventBus = bus.NewLocalBus()
		tracker = presence.NewMemoryTracker(log)
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, bucket, hub, tracker, eventBus)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(theDB, log, serviceset, reposet)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(cfg, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Hub:          hub,
		Bus:          eventBus,
		Presence:     tracker,
		otelShutdown: otelShutdown,
	}, nil
}

// Start begins forwarding committed events from the bus into the hub.
// Sessions opened before Start see no live events.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	return a.Bus.StartForwarder(ctx, a.Hub.Broadcast)
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("bus close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
