package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eye-check/api/internal/assess"
	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/httpserver"
)

type Service interface {
	Assess(ctx context.Context, in assess.Request) (assess.Assessment, error)
	Engines() *assess.Engines
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handle struct {
	svc     Service
	cache   Pinger        // nil: кэш не настроен
	timeout time.Duration // дедлайн запроса без X-Request-Timeout/timeoutSec
	log     *zap.Logger
}

// New; timeout <= 0 означает DefaultTimeout.
func New(svc Service, cache Pinger, timeout time.Duration, logger *zap.Logger) *Handle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handle{svc: svc, cache: cache, timeout: timeout, log: logger.Named("handle")}
}

func (h *Handle) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)
	v1 := r.Group("/v1")
	v1.POST("/assess", h.Assess)
	v1.GET("/engines", h.Engines)
}

func (h *Handle) Engines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"engines": h.svc.Engines().List()})
}

func (h *Handle) Healthz(c *gin.Context) {
	if h.cache != nil {
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			h.log.Warn("cache ping failed", zap.Error(err))
			c.String(http.StatusServiceUnavailable, "cache unavailable")
			return
		}
	}
	c.String(http.StatusOK, "ok")
}

// writeError: ошибки ввода отдаём как 400, транспорт, статус вендора и конверт как 502.
func (h *Handle) writeError(c *gin.Context, op string, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, types.ErrBadInput) {
		status = http.StatusBadRequest
	}
	h.log.Warn("request failed",
		zap.String("op", op),
		zap.String("request_id", httpserver.RequestIDFromContext(c)),
		zap.Int("status", status),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(status, gin.H{"error": op + " error: " + err.Error()})
}
