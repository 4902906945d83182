package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"signvault/config"
	_ "signvault/docs"
	"signvault/internal/handler"
	"signvault/internal/migrations"
	"signvault/internal/notifier"
	"signvault/internal/repository"
	"signvault/internal/security"
	"signvault/internal/service"
	"signvault/internal/util"
)

// @title SignVault
// @version 1.0
// @description REST API для загрузки документов и их подписания по ссылке

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := "config.yaml"
	if path, ok := os.LookupEnv("SIGNVAULT_CONFIG"); ok {
		configPath = path
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("ошибка загрузки конфигурации", "error", err)
		os.Exit(1)
	}
	util.SetupLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	db, err := config.SetupDatabase(&cfg.DatabaseConfig)
	if err != nil {
		fatal("не удалось подключиться к БД", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("ошибка при закрытии БД", "error", err)
		}
	}()

	if err := migrations.Run(ctx, db.DB.DB); err != nil {
		fatal("ошибка применения миграций", err)
	}

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		fatal("ошибка подключения к Redis", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("ошибка при закрытии Redis", "error", err)
		}
	}()

	s3Service, err := service.NewS3Service(ctx, &cfg.S3Config)
	if err != nil {
		fatal("ошибка создания S3 сервиса", err)
	}

	srv, router := config.SetupServer(cfg.ServerAddr)

	userRepo := repository.NewUserRepository(db)
	jwtRepo := repository.NewJWTRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	shareRepo := repository.NewShareRepository(db)
	signatureRepo := repository.NewSignatureRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.TTL.Duration())

	webhook := notifier.NewWebhookNotifier(&cfg.Webhook)
	jwtService := security.NewJWTService(&cfg.JWT)

	docService := service.NewDocumentService(docRepo, signatureRepo, cacheRepo, s3Service, cfg.Upload.MaxSizeBytes, cfg.TTL.Duration())
	shareService := service.NewShareService(docRepo, shareRepo, cacheRepo, s3Service, webhook, &cfg.Share, cfg.TTL.Duration())
	userService := service.NewUserService(userRepo, jwtService, jwtRepo)
	authService := service.NewAuthenticationService(jwtRepo, jwtService, userRepo, webhook)

	handlers := handler.Handlers{
		Auth:     handler.NewAuthenticationHandler(authService),
		User:     handler.NewUserHandler(userService),
		Document: handler.NewDocumentHandler(docService, cfg.Upload.MaxSizeBytes),
		Share:    handler.NewShareHandler(shareService),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": db.PingContext,
			"redis": func(ctx context.Context) error {
				return redisClient.Client.Ping(ctx).Err()
			},
		}),
	}

	setupMiddleware(router, db)
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	handler.RegisterRoutes(router, handlers, security.JWTMiddleware(jwtService, jwtRepo))

	runServer(ctx, srv)
}

func setupMiddleware(r chi.Router, db *config.Database) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handler.Logger)
	r.Use(middleware.Recoverer)
	r.Use(config.DBMiddleware(db))
}

func fatal(message string, err error) {
	slog.Error(message, "error", err)
	os.Exit(1)
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("сервер запущен", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			slog.Error("ошибка работы сервера", "error", err)
			return
		}
	case sig := <-signalChannel:
		slog.Info("получен сигнал остановки работы сервера", "signal", sig.String())
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		slog.Error("ошибка при остановке сервера", "error", err)
	} else {
		slog.Info("сервер успешно остановлен")
	}
}
