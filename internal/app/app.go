package app

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	redisclient "github.com/stillpath/stillpath-backend/internal/clients/redis"
	"github.com/stillpath/stillpath-backend/internal/data/db"
	"github.com/stillpath/stillpath-backend/internal/jobs"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Bus      redisclient.EventBus
	Sweeper  *jobs.Sweeper
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
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

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

	// The event bus is optional: without REDIS_ADDR notifications no-op.
	var bus redisclient.EventBus
	if cfg.RedisAddr != "" {
		bus, err = redisclient.NewEventBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init redis event bus: %w", err)
		}
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, bus)
	handlerset := wireHandlers(log, serviceset)
	middlewareset := wireMiddleware(log, cfg)
	router := wireRouter(cfg, handlerset, middlewareset)

	sweeper := jobs.NewSweeper(log, serviceset.Challenge, cfg.SweepSchedule)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Bus:      bus,
		Sweeper:  sweeper,
	}, nil
}

func (a *App) Start() error {
	if a == nil || a.Sweeper == nil {
		return nil
	}
	return a.Sweeper.Start()
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("closing event bus", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
