package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eye-check/api/internal/bootstrap"
	"eye-check/api/internal/config"
	"eye-check/api/internal/handle"
	"eye-check/api/internal/httpserver"
	"eye-check/api/internal/logging"
)

func main() {
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	app, err := bootstrap.Build(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}
	defer app.Close()

	gin.SetMode(gin.ReleaseMode)
	r := httpserver.NewRouter(logger)

	var pinger handle.Pinger
	if app.Cache != nil {
		pinger = app.Cache
	}
	handle.New(app.Service, pinger, cfg.RequestTimeout, logger).RegisterRoutes(r)

	srv := httpserver.NewServer(":"+cfg.Port, r)
	if err := httpserver.StartHTTP(srv, 30*time.Second, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("eye-proxy stopped")
}
