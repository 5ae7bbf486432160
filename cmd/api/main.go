package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Community_Portal/internal/config"
	"Community_Portal/internal/middleware"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/repository/database"
	"Community_Portal/internal/repository/session"
	"Community_Portal/internal/router"
	"Community_Portal/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	log := pkg.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DefaultSecrets() {
		log.Warn("using default JWT secrets, sqlite development only")
	}

	db, err := database.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer database.Close(db)

	// 自动建表
	if err := database.Migrate(db); err != nil {
		return err
	}

	// 连接redis，未配置时使用内存存储（单实例开发环境）
	var sessions session.Store
	if cfg.Redis.Addr != "" {
		client, err := session.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		store := session.NewRedisStore(client)
		defer store.Close()
		sessions = store
	} else {
		log.Warn("REDIS_ADDR not set, using in-memory session store")
		sessions = session.NewMemoryStore()
	}

	publisher := pkg.NewPublisher(cfg.Kafka)
	defer publisher.Close()

	metrics := pkg.NewMetrics()
	tokens := pkg.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)

	svc := service.New(service.Deps{
		DB:               db,
		Sessions:         sessions,
		Tokens:           tokens,
		Files:            pkg.NewFileStorage(cfg.UploadDir),
		Publisher:        publisher,
		Mailer:           pkg.NewMailer(cfg.SMTP),
		Metrics:          metrics,
		Log:              log,
		AllowAdminSignup: cfg.AllowAdminSignup,
	})

	gin.SetMode(gin.ReleaseMode)
	r := router.InitRouter(router.Options{
		Services:    svc,
		Auth:        middleware.NewAuthenticator(tokens, sessions, db, log),
		Metrics:     metrics,
		UploadDir:   cfg.UploadDir,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
