package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portal/internal/backend"
	"portal/internal/cache"
	"portal/internal/config"
	"portal/internal/handler"
	"portal/internal/repository"
	"portal/internal/service"
	"portal/internal/state"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Logging)
	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting listing search gateway")

	gin.SetMode(cfg.Server.GinMode)

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()
	log.Info().Msg("connected to PostgreSQL")

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.BackendTimeout(), cfg.Backend.RetryMax, log)
	meta := cache.NewStore(client, cfg.Cache.CacheTTL(), log)
	sessions := state.NewManager(cfg.Session.SessionTTL())
	orch := service.NewOrchestrator(client, meta, repo, log)
	log.Info().Str("backend", cfg.Backend.BaseURL).Msg("services initialized")

	// Warm the metadata cache so the first resolve does not pay the fetch.
	warmCtx, cancel := context.WithTimeout(context.Background(), cfg.Backend.BackendTimeout())
	meta.Refresh(warmCtx)
	cancel()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Cache.RefreshSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.BackendTimeout())
		defer cancel()
		meta.Refresh(ctx)
	}); err != nil {
		log.Fatal().Err(err).Msg("invalid metadata refresh schedule")
	}
	if _, err := scheduler.AddFunc(cfg.Session.SweepSchedule, func() {
		if removed := sessions.Sweep(); removed > 0 {
			log.Debug().Int("removed", removed).Msg("swept idle sessions")
		}
		cutoff := time.Now().AddDate(0, 0, -cfg.Session.SnapshotRetention)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := repo.DeleteSnapshotsBefore(ctx, cutoff); err != nil {
			log.Warn().Err(err).Msg("snapshot cleanup failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("invalid session sweep schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	sessionHandler := handler.NewSessionHandler(sessions, orch)
	metaHandler := handler.NewMetaHandler(meta, orch)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "listing-search-gateway",
			"version": Version,
		})
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/filters", metaHandler.Filters)
		apiV1.GET("/filters/developers", metaHandler.Developers)
		apiV1.GET("/regions", metaHandler.Regions)
		apiV1.GET("/resolve", metaHandler.Resolve)
		apiV1.GET("/snapshots/:id", metaHandler.Snapshot)

		apiV1.POST("/sessions", sessionHandler.Create)
		apiV1.GET("/sessions/:id", sessionHandler.Get)
		apiV1.PUT("/sessions/:id/filters", sessionHandler.PutFilters)
		apiV1.PATCH("/sessions/:id/filters", sessionHandler.PatchFilters)
		apiV1.POST("/sessions/:id/selections", sessionHandler.AddSelection)
		apiV1.DELETE("/sessions/:id/selections/:uniqueId", sessionHandler.RemoveSelection)
		apiV1.DELETE("/sessions/:id/selections", sessionHandler.ClearSelections)
		apiV1.GET("/sessions/:id/suggestions", sessionHandler.Suggestions)
		apiV1.POST("/sessions/:id/submit", sessionHandler.Submit)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("listening")

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Format == "console" {
		return zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}
