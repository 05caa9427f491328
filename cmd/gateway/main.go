package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatpulse/internal/core/ports"
	"chatpulse/internal/core/services"
	httphandlers "chatpulse/internal/handlers/http"
	"chatpulse/internal/infrastructure/gateway"
	"chatpulse/internal/infrastructure/identity"
	"chatpulse/internal/infrastructure/middleware"
	"chatpulse/internal/infrastructure/monitoring"
	repositories "chatpulse/internal/infrastructure/repositories"
	"chatpulse/internal/infrastructure/repositories/postgres"
	"chatpulse/pkg/config"
	"chatpulse/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Local development convenience; absence is fine.
	_ = godotenv.Load()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/chatpulse/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	registry := repoFactory.CreateConnectionRegistry()
	roleStore := repoFactory.CreateRoleStore()

	collector := monitoring.NewPrometheusCollector()

	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddRegistryCheck(registry, 2*time.Second)

	// WebSocket gateway
	wsServer := gateway.NewWebSocketServer(registry, log)
	wsServer.SetTimeouts(
		cfg.Gateway.PingInterval,
		cfg.Gateway.PongTimeout,
		cfg.Gateway.ReadTimeout,
		cfg.Gateway.WriteTimeout,
	)
	wsServer.SetMetrics(collector)

	broadcaster := services.NewBroadcastService(registry, wsServer, collector, log)

	// Identity: platform credential verification plus, when configured,
	// signed identity-platform tokens for the HTTP API.
	twitchVerifier := identity.NewTwitchVerifier(cfg.Twitch.ClientID, log)
	relationshipResolver := identity.NewTwitchRelationshipResolver(cfg.Twitch.ClientID, log)
	accessService := services.NewAccessService(twitchVerifier, relationshipResolver, roleStore, collector, log)

	apiVerifier := ports.IdentityVerifier(twitchVerifier)
	if cfg.IdentityToken.JWKSURL != "" {
		tokenVerifier, err := identity.NewTokenVerifier(context.Background(), cfg.IdentityToken.JWKSURL, cfg.IdentityToken.Issuer, log)
		if err != nil {
			log.Fatalw("failed to initialize token verifier", "error", err)
		}
		apiVerifier = tokenVerifier
	}

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestLoggerMiddleware(zapLogger))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	// WebSocket endpoint
	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))

	// Role resolution (public; authenticates inside the handler)
	authHandler := httphandlers.NewAuthHandler(apiVerifier, accessService)
	authHandler.SetupRoutes(router)

	// Policy-guarded routes
	if cfg.Postgres.Enabled {
		db, err := postgres.Connect(cfg.Postgres.DSN)
		if err != nil {
			log.Fatalw("failed to connect to postgres", "error", err)
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := postgres.Migrate(migrateCtx, db); err != nil {
			cancel()
			log.Fatalw("failed to migrate postgres schema", "error", err)
		}
		cancel()

		healthChecker.AddPostgresCheck(db, 2*time.Second)

		messageHandler := httphandlers.NewMessageHandler(postgres.NewPostgresMessageRepository(db))
		guarded := router.Group("/api/v1")
		guarded.Use(middleware.PolicyMiddleware(apiVerifier, accessService))
		messageHandler.SetupRoutes(guarded)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"uptime":      time.Since(startTime).String(),
			"connections": wsServer.ConnectedCount(),
		})
	})

	// Readiness endpoint
	router.GET("/ready", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := 200
		if status.Status != "healthy" {
			code = 503
		}
		c.JSON(code, status)
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Internal listener: analyzer -> gateway hand-off, never exposed
	// on the public address.
	internalRouter := gin.New()
	internalRouter.Use(middleware.RecoveryMiddleware(log))
	broadcastHandler := httphandlers.NewBroadcastHandler(broadcaster)
	broadcastHandler.SetupRoutes(internalRouter)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	internalSrv := &http.Server{
		Addr:         cfg.Internal.Address,
		Handler:      internalRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 2)
	go func() {
		log.Infof("Starting gateway server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()
	go func() {
		log.Infof("Starting internal listener on %s", cfg.Internal.Address)
		if err := internalSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down gateway...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := internalSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("internal listener shutdown failed", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server shutdown failed", "error", err)
	}

	log.Info("Gateway stopped")
}
