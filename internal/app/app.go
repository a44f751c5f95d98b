package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/factshield/core/internal/config"
	"github.com/factshield/core/internal/middleware"
	"github.com/factshield/core/internal/modules/analysis"
	"github.com/factshield/core/internal/modules/source"
	pkgcron "github.com/factshield/core/internal/pkg/cron"
	"github.com/factshield/core/internal/pkg/ratelimit"
	"github.com/factshield/core/internal/pkg/textcache"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	limiter  *ratelimit.Limiter
	cache    *textcache.Cache[*analysis.Result]
	analysis *analysis.Service
	sources  *source.Service
	logger   *zap.Logger
	cancel   context.CancelFunc
	sched    *pkgcron.Scheduler
}

// New initializes the application: config → services → router → cron.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(buildCORSConfig(cfg)))

	limiter := ratelimit.New()
	cache := textcache.New[*analysis.Result](cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
	stats := analysis.NewStats()
	judge := analysis.NewJudge(cfg.AI, stats, logger.Named("judge"))
	if !judge.Configured() {
		logger.Warn("no AI API key configured, running in rule-based mode")
	}
	sourceSvc := source.NewService()
	analysisSvc := analysis.NewService(judge, sourceSvc, cache, stats, logger.Named("analysis"))

	ctx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New()
	registerCronJobs(sched, limiter, cache, logger.Named("cron"))
	go sched.Start(ctx)

	app := &App{
		cfg:      cfg,
		router:   router,
		limiter:  limiter,
		cache:    cache,
		analysis: analysisSvc,
		sources:  sourceSvc,
		logger:   logger,
		cancel:   cancel,
		sched:    sched,
	}
	app.registerRoutes()

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines.
func (a *App) Shutdown() { a.cancel() }

var processStart = time.Now()
