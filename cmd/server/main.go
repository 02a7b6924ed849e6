package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/otcheredev/hms-web/internal/cache"
	"github.com/otcheredev/hms-web/internal/config"
	"github.com/otcheredev/hms-web/internal/database"
	"github.com/otcheredev/hms-web/internal/gateway"
	"github.com/otcheredev/hms-web/internal/handlers"
	"github.com/otcheredev/hms-web/internal/middleware"
	"github.com/otcheredev/hms-web/internal/repository"
	"github.com/otcheredev/hms-web/internal/services"
	"github.com/otcheredev/hms-web/internal/session"
	"github.com/otcheredev/hms-web/internal/web"
	"github.com/otcheredev/hms-web/pkg/logger"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting hospital management web frontend")

	// Session cache
	var sessionCache cache.Cache
	if cfg.Session.Store == "redis" {
		sessionCache, err = cache.NewRedisCache(cfg.Redis, "hms-web")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Info().Str("addr", cfg.Redis.Addr()).Msg("Redis session store initialized")
	} else {
		sessionCache = cache.NewMemoryCache()
		log.Info().Msg("Memory session store initialized")
	}
	defer sessionCache.Close()

	// Audit database (optional)
	var db *gorm.DB
	var auditStore services.AuditStore
	if cfg.Database.Enabled {
		db, err = database.Connect(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
			LogLevel: cfg.Database.LogLevel,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.Close(db)
		auditStore = repository.NewAuditRepository(db)
	}
	audit := services.NewAuditRecorder(auditStore)

	// Session store, backend clients and the controller that ties them together.
	// The controller is created after the clients, so the 401 hook is bound late.
	store := session.NewCacheStore(sessionCache)
	var controller *session.Controller
	clients, err := gateway.NewClientSet(cfg.Backends, session.TokenFromContext, func(ctx context.Context) {
		controller.Expire(ctx)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure backend clients")
	}
	defer clients.CloseIdle()

	controller = session.NewController(store, clients.Auth, cfg.Session.TTL)
	controller.Subscribe(audit.OnSessionEvent)

	views, err := web.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load templates")
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Views: views,
		Cookie: session.Cookie{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.SecureCookie,
			TTL:    cfg.Session.TTL,
		},
		Store:          store,
		Sessions:       controller,
		Clients:        clients,
		Audit:          audit,
		Health:         handlers.NewHealthHandler(sessionCache, db),
		LoginLimiter:   middleware.NewIPRateLimiter(cfg.Login.RatePerSecond, cfg.Login.Burst),
		TrustedProxies: cfg.Login.TrustedProxies,
		CORS: cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   cfg.CORS.AllowedHeaders,
			ExposedHeaders:   []string{"Content-Length", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		},
		MetricsEnabled:    cfg.Metrics.Enabled,
		LowStockThreshold: cfg.UI.LowStockThreshold,
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let background theme updates and audit writes finish
	controller.Wait()
	audit.Wait()

	log.Info().Msg("Server stopped")
}
