// Package main provides the entry point for the LinkLab URL Shortener service.
//
//	@title			LinkLab URL Shortener API
//	@version		1.0.0
//	@description	URL shortener with redirect analytics, anonymous demo links and link claiming.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"LinkLab-Backend/internal/analytics"
	"LinkLab-Backend/internal/auth"
	"LinkLab-Backend/internal/cache"
	"LinkLab-Backend/internal/config"
	"LinkLab-Backend/internal/database"
	httpHandler "LinkLab-Backend/internal/handler/http"
	"LinkLab-Backend/internal/metrics"
	"LinkLab-Backend/internal/repository"
	"LinkLab-Backend/internal/repository/demo"
	"LinkLab-Backend/internal/repository/memory"
	"LinkLab-Backend/internal/repository/postgres"
	"LinkLab-Backend/internal/service"
	"LinkLab-Backend/pkg/geoip"
	"LinkLab-Backend/pkg/logger"
	"LinkLab-Backend/pkg/pagemeta"
	"LinkLab-Backend/pkg/useragent"
	"context"
	"errors"
	lg "log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "LinkLab-Backend/docs" // Import swagger docs
)

const botUserAgent = "LinkLab URL Shortener Bot"

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env, logger.FileOptions{
		Path:       cfg.Logger.FilePath,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		MaxBackups: cfg.Logger.MaxBackups,
	})
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting LinkLab service", zap.String("env", cfg.Env), zap.String("db_driver", cfg.Database.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var (
		storage repository.Storage
		db      *gorm.DB
	)
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory storage, data is lost on restart")
		storage = memory.New()
	} else {
		var err error
		db, err = database.NewConnection(&cfg.Database, log)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		if cfg.Database.AutoMigrate {
			log.Info("running database migrations (auto_migrate: true)")
			if err := database.AutoMigrate(db, log); err != nil {
				log.Fatal("failed to run database migrations", zap.Error(err))
			}
		}
		storage = postgres.New(db, log)
	}

	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("redis unavailable, link cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			storage = cache.NewLinkCache(storage, rdb, cfg.Redis.TTL, log)
			log.Info("link cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	m := metrics.New()
	registry := demo.NewRegistry()

	// Click enrichment
	uaParser, err := useragent.NewParser(cfg.Analytics.RegexesPath, log)
	if err != nil {
		log.Warn("failed to load user-agent regexes, using built-in set", zap.Error(err))
		uaParser = useragent.NewDefaultParser(log)
	}

	processorOpts := []analytics.Option{
		analytics.WithUserAgentParser(uaParser),
		analytics.WithObserver(m),
	}
	if cfg.Geo.Enabled {
		geo, err := geoip.New(geoip.Config{
			Endpoint:  cfg.Geo.Endpoint,
			Timeout:   cfg.Geo.Timeout,
			CacheTTL:  cfg.Geo.CacheTTL,
			CacheSize: 10000,
			UserAgent: botUserAgent,
		}, log)
		if err != nil {
			log.Warn("geo lookup disabled", zap.Error(err))
		} else {
			defer geo.Close()
			processorOpts = append(processorOpts, analytics.WithGeoResolver(geo))
		}
	}

	processor := analytics.NewProcessor(storage, log, analytics.ProcessorConfig{
		WorkerCount:     cfg.Analytics.Workers,
		BufferSize:      cfg.Analytics.BufferSize,
		RetryAttempts:   cfg.Analytics.RetryAttempts,
		RetryDelay:      cfg.Analytics.RetryDelay,
		InsertTimeout:   cfg.Analytics.InsertTimeout,
		ShutdownTimeout: cfg.Analytics.ShutdownTimeout,
	}, processorOpts...)
	if err := processor.Start(); err != nil {
		log.Fatal("failed to start analytics processor", zap.Error(err))
	}

	// Services
	shortenerOpts := []service.ShortenerOption{service.WithLinkObserver(m)}
	if cfg.Metadata.Enabled {
		shortenerOpts = append(shortenerOpts, service.WithMetadataFetcher(pagemeta.NewFetcher(cfg.Metadata.Timeout, log)))
	}
	shortener := service.NewURLShortener(storage, registry, &cfg.URLShortener, log, shortenerOpts...)
	resolver := service.NewResolver(storage, storage, registry, processor, log, service.WithRedirectObserver(m))

	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:            []byte(cfg.Auth.JWTSecret),
		AccessTokenDuration:  cfg.Auth.AccessTokenDuration,
		RefreshTokenDuration: cfg.Auth.RefreshTokenDuration,
		Issuer:               cfg.Auth.Issuer,
	})
	if cfg.Auth.JWTSecret == "change-me" && cfg.Env != "local" {
		log.Warn("JWT secret is the default value, set JWT_SECRET")
	}

	apiServer := httpHandler.NewServer(httpHandler.Dependencies{
		Storage:         storage,
		Shortener:       shortener,
		Resolver:        resolver,
		JWTService:      jwtService,
		PasswordService: auth.NewPasswordService(cfg.Auth.BcryptCost),
		Metrics:         m,
		Stats:           processor,
		Config:          cfg,
		Log:             log,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      apiServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down LinkLab service")
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
	}

	// Сначала перестаем принимать запросы, затем дописываем очередь кликов
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	if err := processor.Stop(); err != nil {
		log.Error("analytics processor did not drain", zap.Error(err))
	}

	if db != nil {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}

	if registry.Len() > 0 {
		log.Warn("demo links are not persisted and will be lost", zap.Int("count", registry.Len()))
	}
}
