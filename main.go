package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vidtube/backend/internal/client"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handler"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/model"
	"github.com/vidtube/backend/internal/service"
)

type eventPublisher interface {
	Publish(ctx context.Context, event model.AccountEvent) error
	io.Closer
}

// @title videotube user API
// @version 1.0
// @description User accounts, JWT sessions, channel profiles and watch history.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	ctx := context.Background()

	// MongoDB 연결 실패는 치명적 에러
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	mongo, err := db.NewMongo(connectCtx, cfg.Mongo)
	cancel()
	if err != nil {
		fatal(logger, "mongo connection failed", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	}()

	if err := mongo.EnsureIndexes(ctx); err != nil {
		fatal(logger, "mongo index setup failed", err)
	}

	media, err := client.NewMediaUploader(ctx, cfg.Media)
	if err != nil {
		fatal(logger, "media uploader init failed", err)
	}

	// 브로커 설정이 없으면 이벤트 발행 비활성화
	var events eventPublisher = client.NopPublisher{}
	if len(cfg.Events.Brokers) > 0 {
		kafkaPublisher, err := client.NewKafkaPublisher(cfg.Events)
		if err != nil {
			fatal(logger, "kafka publisher init failed", err)
		}
		events = kafkaPublisher
	}
	defer events.Close()

	tokens, err := service.NewTokenManager(mongo, cfg.Auth)
	if err != nil {
		fatal(logger, "token manager init failed", err)
	}
	authService, err := service.NewAuthService(mongo, tokens, media, events, cfg.Auth)
	if err != nil {
		fatal(logger, "auth service init failed", err)
	}
	accountService := service.NewAccountService(mongo, media)
	profileService := service.NewProfileService(mongo)

	uploads, err := handler.NewUploads(cfg.Server)
	if err != nil {
		fatal(logger, "upload dir init failed", err)
	}

	router := gin.New()
	router.Use(
		handler.RequestLogger(logger),
		gin.CustomRecovery(handler.RecoveryHandler),
		handler.CORSMiddleware(cfg.Server.AllowedOrigins, true),
	)

	handler.RegisterRoutes(router, handler.Handlers{
		Auth:    handler.NewAuthHandler(authService, uploads),
		Account: handler.NewAccountHandler(accountService, uploads),
		Profile: handler.NewProfileHandler(profileService),
		Health:  handler.NewHealthHandler(mongo),
	}, authService)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server stopped", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
