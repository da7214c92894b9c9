// Package app assembles the service graph shared by the HTTP server and the
// command line tool.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stwalsh4118/siteanalysis/internal/climate"
	"github.com/stwalsh4118/siteanalysis/internal/config"
	"github.com/stwalsh4118/siteanalysis/internal/database"
	apierrors "github.com/stwalsh4118/siteanalysis/internal/errors"
	"github.com/stwalsh4118/siteanalysis/internal/handlers"
	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/metrics"
	"github.com/stwalsh4118/siteanalysis/internal/middleware"
	"github.com/stwalsh4118/siteanalysis/internal/osm"
	"github.com/stwalsh4118/siteanalysis/internal/repository"
	"github.com/stwalsh4118/siteanalysis/internal/services"
)

// App holds the wired services and the resources that must be released.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	DB       *database.Database
	Cache    *climate.RedisStore
	Analysis services.AnalysisService
	Climate  services.ClimateService
}

// New connects to the database, optionally applies migrations and wires
// every service. m may be nil to disable metrics.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*App, error) {
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	log.Info("Database connection established", logger.Fields{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.AutoMigrate {
		if _, err := database.Migrate(ctx, db.Pool, log); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	aggregator, cache := NewClimateAggregator(cfg, log, m)

	sites := repository.NewSiteRepository(db.Pool)
	features := repository.NewFeatureRepository(db.Pool, log)
	records := repository.NewClimateRepository(db.Pool)

	overpass := osm.NewClient(cfg.OSM.OverpassURL, cfg.OSM.Timeout, cfg.OSM.RatePerSec, log, m)
	climateService := services.NewClimateService(aggregator, sites, records, log)
	analysisService := services.NewAnalysisService(
		services.NewExtractor(overpass, log, m),
		sites,
		features,
		climateService,
		log,
		m,
	)

	return &App{
		Config:   cfg,
		Logger:   log,
		Metrics:  m,
		DB:       db,
		Cache:    cache,
		Analysis: analysisService,
		Climate:  climateService,
	}, nil
}

// NewClimateAggregator builds the provider chain: live clients behind an
// optional Redis cache, each wrapped with retry and a synthetic fallback.
// The returned store is nil when caching is disabled.
func NewClimateAggregator(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*climate.Aggregator, *climate.RedisStore) {
	var current climate.CurrentProvider = climate.NewOpenWeatherClient(
		cfg.Climate.OpenWeatherAPIKey, cfg.Climate.OpenWeatherURL, cfg.Climate.OpenWeatherTimeout)
	var historical climate.HistoricalProvider = climate.NewNASAPowerClient(
		cfg.Climate.NASAPowerURL, cfg.Climate.NASAPowerTimeout)

	var store *climate.RedisStore
	if cfg.Cache.RedisAddr != "" {
		store = climate.NewRedisStore(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		current = climate.NewCachedCurrent(current, store, cfg.Cache.ClimateTTL, log, m)
		historical = climate.NewCachedHistorical(historical, store, cfg.Cache.ClimateTTL, log, m)
		log.Info("Climate cache enabled", logger.Fields{
			"redis_addr": cfg.Cache.RedisAddr,
			"ttl":        cfg.Cache.ClimateTTL.String(),
		})
	}

	retry := climate.DefaultRetry(cfg.Climate.RetryAttempts)
	current = climate.NewFallbackCurrent(current, climate.NewSyntheticCurrent(nil), retry, log, m)
	historical = climate.NewFallbackHistorical(historical, climate.SyntheticHistorical{}, retry, log, m)

	return climate.NewAggregator(current, historical, clockwork.NewRealClock()), store
}

// Router builds the gin engine with middleware and every route.
func (a *App) Router() *gin.Engine {
	if a.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	apierrors.RegisterValidator()

	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> CORS -> Metrics
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.Logger))
	router.Use(middleware.Recovery(a.Logger))
	router.Use(middleware.CORS(a.Config.CORS.Origins))
	if a.Metrics != nil {
		router.Use(middleware.Metrics(a.Metrics))
		router.GET("/metrics", gin.WrapH(a.Metrics.Handler()))
	}

	var cache handlers.Pinger
	if a.Cache != nil {
		cache = a.Cache
	}
	handlers.RegisterHealthRoutes(router, handlers.NewHealthHandler(a.DB, cache, a.Config.Server.Env))
	handlers.RegisterEnvironmentalRoutes(router,
		handlers.NewAnalysisHandler(a.Analysis),
		handlers.NewClimateHandler(a.Climate),
	)

	return router
}

// Close releases the database pool and the cache connection.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn("Failed to close climate cache", logger.Fields{"error": err.Error()})
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
