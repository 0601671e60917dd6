package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Dosada05/team-roster/config"
	"github.com/Dosada05/team-roster/db"
	"github.com/Dosada05/team-roster/handlers"
	"github.com/Dosada05/team-roster/repositories"
	api "github.com/Dosada05/team-roster/routes"
	"github.com/Dosada05/team-roster/services"
	"github.com/Dosada05/team-roster/sessions"
	"github.com/Dosada05/team-roster/storage"
)

const tokenPurgeInterval = 1 * time.Hour // How often expired access tokens are removed

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before os.Exit.
func run() int {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		return 1
	}

	// Настройка логгера
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("storage_driver", cfg.StorageDriver))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, cfg.DBConnectTimeout, db.PoolOptions{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.EnsureSchema(context.Background(), dbConn); err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		return 1
	}

	// Инициализация хранилища файлов
	blobs, staticFiles, err := newBlobStore(cfg)
	if err != nil {
		logger.Error("failed to initialize blob storage", slog.Any("error", err))
		return 1
	}
	logger.Info("blob storage initialized", slog.String("driver", cfg.StorageDriver))

	// Кэш сессий (опционально, Redis)
	sessionCache := sessions.NewNoopCache()
	if cfg.RedisAddr != "" {
		sessionCache, err = sessions.NewRedisCache(context.Background(), sessions.RedisCacheConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			return 1
		}
		logger.Info("redis session cache enabled", slog.String("addr", cfg.RedisAddr))
	}
	defer sessionCache.Close()

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tokenRepo := repositories.NewPostgresAccessTokenRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	assets := services.NewAssetManager(db.NewTransactor(dbConn), blobs, logger)
	authService := services.NewAuthService(userRepo, tokenRepo, sessionCache, services.AuthConfig{
		JWTSecret: []byte(cfg.JWTSecretKey),
		TokenTTL:  cfg.TokenTTL,
		Logger:    logger,
	})
	teamService := services.NewTeamService(teamRepo, playerRepo, assets)
	playerService := services.NewPlayerService(teamRepo, playerRepo, assets)
	logger.Info("Services initialized")

	// Периодическая очистка просроченных токенов
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go runTokenPurger(schedulerCtx, logger, authService)

	// Настройка маршрутизатора
	router := api.SetupRoutes(api.Deps{
		Logger:             logger,
		AuthService:        authService,
		AuthHandler:        handlers.NewAuthHandler(authService),
		TeamHandler:        handlers.NewTeamHandler(teamService),
		PlayerHandler:      handlers.NewPlayerHandler(teamService, playerService),
		HealthHandler:      handlers.NewHealthHandler(dbConn),
		StaticFiles:        staticFiles,
		StoragePublicPath:  cfg.StoragePublicPath,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			return 1
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopScheduler()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return 1
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
	return 0
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// newBlobStore выбирает хранилище по STORAGE_DRIVER. Для локального диска
// дополнительно возвращается file server, который отдаёт файлы по публичному пути.
func newBlobStore(cfg *config.Config) (storage.BlobStore, http.Handler, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverR2:
		store, err := storage.NewCloudflareR2Store(context.Background(), storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
			Endpoint:        cfg.R2Endpoint,
		})
		return store, nil, err
	default:
		store, err := storage.NewLocalStore(storage.LocalStoreConfig{
			Root:          cfg.StorageLocalRoot,
			PublicBaseURL: cfg.AppURL + "/" + strings.Trim(cfg.StoragePublicPath, "/"),
		})
		if err != nil {
			return nil, nil, err
		}
		return store, http.FileServer(http.Dir(cfg.StorageLocalRoot)), nil
	}
}

func runTokenPurger(ctx context.Context, logger *slog.Logger, authService services.AuthService) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	logger.Info("Token purge scheduler started", slog.Duration("interval", tokenPurgeInterval))

	purge := func() {
		purged, err := authService.PurgeExpiredTokens(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("Scheduler: token purge failed", slog.Any("error", err))
			}
			return
		}
		if purged > 0 {
			logger.Info("Scheduler: expired tokens purged", slog.Int64("count", purged))
		}
	}

	// Run once immediately at startup, then on ticker
	purge()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Token purge scheduler stopped")
			return
		case <-ticker.C:
			purge()
		}
	}
}
