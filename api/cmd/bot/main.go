package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"eye-check/api/internal/bootstrap"
	"eye-check/api/internal/config"
	"eye-check/api/internal/handle"
	"eye-check/api/internal/httpserver"
	"eye-check/api/internal/logging"
	"eye-check/api/internal/session"
	"eye-check/api/internal/telegram"
)

func main() {
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.TelegramToken == "" {
		logger.Fatal("missing required env TELEGRAM_BOT_TOKEN")
	}

	bootCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	app, err := bootstrap.Build(bootCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}
	defer app.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("telegram init failed", zap.Error(err))
	}
	bot.Debug = false

	router := telegram.NewRouter(bot, app.Service, session.Settings{
		LLMName: cfg.DefaultEngine,
		Schema:  app.Schema,
	}, cfg.RequestTimeout, logger)

	// healthz (и вебхук, если он включён) на одном gin
	gin.SetMode(gin.ReleaseMode)
	r := httpserver.NewRouter(logger)
	var pinger handle.Pinger
	if app.Cache != nil {
		pinger = app.Cache
	}
	handle.New(app.Service, pinger, cfg.RequestTimeout, logger).RegisterRoutes(r)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(ctx, bot, router, r, webhookURL, cfg.Port, logger)
	} else {
		go serveHealth(r, cfg.Port, logger)
		logger.Info("polling mode")
		telegram.RunPolling(ctx, bot, router.HandleUpdate, logger)
	}

	router.Wait()
	logger.Info("bot stopped")
}

func startWebhookMode(ctx context.Context, bot *tgbotapi.BotAPI, router *telegram.Router, r *gin.Engine, baseURL, port string, logger *zap.Logger) {
	path := telegram.WebhookPath(bot.Token)
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + path)
	if err != nil {
		logger.Fatal("webhook config failed", zap.Error(err))
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		logger.Fatal("set webhook failed", zap.Error(err))
	}

	hook := telegram.NewWebhook(bot.HandleUpdate, router.HandleUpdate, bot.Buffer, logger)
	r.POST(path, hook.Handle)

	srv := httpserver.NewServer(":"+port, r)
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("webhook mode", zap.String("path", path), zap.String("addr", srv.Addr))
	if err := hook.Serve(ctx, srv, ln, 30*time.Second); err != nil {
		logger.Fatal("webhook server stopped", zap.Error(err))
	}
}

func serveHealth(r *gin.Engine, port string, logger *zap.Logger) {
	srv := httpserver.NewServer(":"+port, r)
	logger.Info("health server listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("health server stopped", zap.Error(err))
	}
}
