package telegram

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Webhook принимает апдейты по HTTP и отдаёт их роутеру в одной горутине.
type Webhook struct {
	parse   func(*http.Request) (*tgbotapi.Update, error) // обычно bot.HandleUpdate
	handle  func(tgbotapi.Update)
	updates chan tgbotapi.Update
	drained chan struct{}
	log     *zap.Logger
}

func NewWebhook(parse func(*http.Request) (*tgbotapi.Update, error), handle func(tgbotapi.Update), buffer int, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Webhook{
		parse:   parse,
		handle:  handle,
		updates: make(chan tgbotapi.Update, buffer),
		drained: make(chan struct{}),
		log:     logger.Named("webhook"),
	}
	go w.drain()
	return w
}

func (w *Webhook) drain() {
	defer close(w.drained)
	for upd := range w.updates {
		w.handle(upd)
	}
}

// Handle: gin-хендлер для пути из WebhookPath.
func (w *Webhook) Handle(c *gin.Context) {
	upd, err := w.parse(c.Request)
	if err != nil {
		w.log.Warn("bad webhook update", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}
	w.updates <- *upd
	c.Status(http.StatusOK)
}

// Serve обслуживает ln до отмены ctx. Очередь закрывается только после того,
// как Shutdown дождался активных хендлеров; затем ждём, пока роутер разберёт остаток.
func (w *Webhook) Serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// хендлеры ещё могут писать в очередь, закрывать её нельзя
			return err
		}
	}

	close(w.updates)
	<-w.drained
	return nil
}
