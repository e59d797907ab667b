package handle

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"eye-check/api/internal/assess"
	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/httpserver"
	"eye-check/api/internal/util"
)

const DefaultTimeout = 180 * time.Second

type AssessRequest struct {
	LLMName string `json:"llm_name"`
	Schema  string `json:"schema"`
	Image   string `json:"image"` // base64 или data:URL
	APIKey  string `json:"api_key,omitempty"`
}

func (h *Handle) Assess(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, "assess", fmt.Errorf("%w: bad json: %v", types.ErrBadInput, err))
		return
	}
	schema, err := types.ParseSchema(req.Schema)
	if err != nil {
		h.writeError(c, "assess", err)
		return
	}
	img, err := util.ParseImage(req.Image)
	if err != nil {
		h.writeError(c, "assess", err)
		return
	}
	apiKey := req.APIKey
	if k := strings.TrimSpace(c.GetHeader("X-API-Key")); k != "" {
		apiKey = k
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestDeadline(c, h.timeout))
	defer cancel()

	out, err := h.svc.Assess(ctx, assess.Request{
		RequestID: httpserver.RequestIDFromContext(c),
		LLMName:   req.LLMName,
		APIKey:    apiKey,
		Schema:    schema,
		Image:     img,
	})
	if err != nil {
		h.writeError(c, "assess", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// requestDeadline: X-Request-Timeout, затем ?timeoutSec=, иначе def (REQUEST_TIMEOUT_SEC).
func requestDeadline(c *gin.Context, def time.Duration) time.Duration {
	for _, ts := range []string{c.GetHeader("X-Request-Timeout"), c.Query("timeoutSec")} {
		if ts == "" {
			continue
		}
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return def
}
