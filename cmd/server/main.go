package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos_tables_backend/internal/cache"
	"pos_tables_backend/internal/config"
	"pos_tables_backend/internal/database"
	"pos_tables_backend/internal/repositories"
	"pos_tables_backend/internal/router"
	"pos_tables_backend/internal/services"
	"pos_tables_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Logger
	utils.InitLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		utils.LogError(err, "Failed to open session cache store", map[string]interface{}{"backend": cfg.Cache.Backend})
		log.Fatalf("Failed to open session cache store: %v", err)
	}
	defer closeStore()
	utils.LogInfo("Session cache store ready", map[string]interface{}{"backend": cfg.Cache.Backend})

	gateway := repositories.NewFrappeGateway(repositories.FrappeConfig{
		BaseURL:    cfg.Gateway.BaseURL,
		APIKey:     cfg.Gateway.APIKey,
		APISecret:  cfg.Gateway.APISecret,
		Timeout:    cfg.Gateway.Timeout,
		RetryCount: cfg.Gateway.RetryCount,
	}, repositories.NewAgentPrinter(cfg.Print.AgentPort, cfg.Print.AgentTimeout))

	secret := []byte(cfg.Session.Secret)
	sessionService := services.NewSessionService(gateway, store, secret, cfg.Session.TTL)
	printService := services.NewPrintService(gateway, services.PrintServiceOptions{
		PrintViewBaseURL: cfg.Gateway.BaseURL,
		MarkAttempts:     cfg.Print.MarkAttempts,
		MarkBackoff:      cfg.Print.MarkBackoff,
	})
	tablePrintService := services.NewTablePrintService(gateway, printService)

	go runEvery(ctx, cfg.Session.SweepInterval, func() {
		sessionService.Sweep(ctx)
	})

	engine := gin.New()
	engine.Use(gin.Recovery())

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.Setup(engine, router.Dependencies{
		Sessions:      sessionService,
		Printer:       tablePrintService,
		SessionSecret: secret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port, "gateway": cfg.Gateway.BaseURL})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Server shutdown failed")
	}
}

// openStore builds the KV store selected by CACHE_BACKEND.
func openStore(ctx context.Context, cfg config.Config) (cache.KVStore, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		store := cache.NewRedisStore(cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		}), cfg.Session.TTL)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.CacheBackendPostgres:
		pg := cfg.Cache.Postgres
		db, err := database.InitDB(ctx, database.Config{
			Host:       pg.Host,
			Port:       pg.Port,
			User:       pg.User,
			Password:   pg.Password,
			Name:       pg.Name,
			SSLMode:    pg.SSLMode,
			SchemaPath: pg.SchemaPath,
		})
		if err != nil {
			return nil, nil, err
		}
		go runEvery(ctx, cfg.Session.SweepInterval, func() {
			if _, err := database.PurgeStale(ctx, db, cfg.Session.TTL); err != nil {
				utils.LogError(err, "Failed to purge stale session cache rows")
			}
		})
		return cache.NewPostgresStore(db), func() { _ = db.Close() }, nil

	default:
		return cache.NewMemoryStore(), func() {}, nil
	}
}

func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
