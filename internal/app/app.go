package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mx-space/nodepress/internal/config"
	"github.com/mx-space/nodepress/internal/database"
	"github.com/mx-space/nodepress/internal/middleware"
	"github.com/mx-space/nodepress/internal/pkg/akismet"
	"github.com/mx-space/nodepress/internal/pkg/cache"
	pkgredis "github.com/mx-space/nodepress/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const memoryCacheSweep = time.Minute

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	rc       *pkgredis.Client
	cache    cache.Cache
	memCache *cache.MemoryCache
	spam     *akismet.Client
	logger   *zap.Logger
}

// New initializes the application: runtime settings → DB → cache → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	applyRuntimeSettings(cfg, logger)

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	var rc *pkgredis.Client
	if cfg.RedisURL != "" {
		rc, err = pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
	} else {
		logger.Warn("redis disabled, using in-process cache and no rate limiting")
	}

	a := build(logger, cfg, db, rc)
	a.verifySpamKey()
	return a, nil
}

// build assembles the router over already opened stores. rc may be nil.
func build(logger *zap.Logger, cfg *config.AppConfig, db *gorm.DB, rc *pkgredis.Client) *App {
	a := &App{cfg: cfg, db: db, rc: rc, logger: logger}
	if rc != nil {
		a.cache = cache.NewRedisCache(rc)
	} else {
		a.memCache = cache.NewMemoryCache(memoryCacheSweep)
		a.cache = a.memCache
	}
	a.spam = akismet.New(akismet.Options{Key: cfg.Akismet.Key, Blog: cfg.Akismet.Blog}, logger)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))
	a.router = router

	a.registerRoutes()
	return a
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		corsConfig.AllowOriginFunc = newOriginMatcher(cfg.AllowedOrigins).allow
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsConfig
}

// verifySpamKey enables the spam oracle. A bad or missing key only disables it.
func (a *App) verifySpamKey() {
	if a.cfg.Akismet.Key == "" {
		a.logger.Warn("akismet key not configured, spam checks disabled")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.spam.VerifyKey(ctx); err != nil {
		a.logger.Warn("akismet key verification failed, spam checks disabled", zap.Error(err))
		return
	}
	a.logger.Info("akismet key verified")
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown releases the cache and database connections.
func (a *App) Shutdown() {
	if a.memCache != nil {
		a.memCache.Close()
	}
	if a.rc != nil {
		if err := a.rc.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
