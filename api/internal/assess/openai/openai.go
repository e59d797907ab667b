package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"eye-check/api/internal/assess"
	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/util"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second, // TCP connect
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// vision-ответ может идти долго; общий дедлайн задаёт ctx вызывающего
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		BaseURL: DefaultBaseURL,
		httpc:   &http.Client{Transport: tr},
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for custom timeouts or tracing).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

// WithBaseURL points the engine at a compatible endpoint (proxies, tests).
func (e *Engine) WithBaseURL(u string) *Engine {
	if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
		e.BaseURL = u
	}
	return e
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }
func (e *Engine) HasAPIKey() bool  { return e.APIKey != "" }

// WithAPIKey: копия движка с ключом пользователя; общий движок не меняется.
func (e *Engine) WithAPIKey(key string) assess.Provider {
	cp := *e
	cp.APIKey = strings.TrimSpace(key)
	return &cp
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate отправляет кадр как image_url (data URI) и возвращает choices[0].message.content.
func (e *Engine) Generate(ctx context.Context, img types.Image, instruction string) (string, error) {
	if e.APIKey == "" {
		return "", types.ErrMissingAPIKey
	}
	if !util.IsImageMIME(img.MIME) {
		return "", types.ErrUnsupportedImage
	}

	body := map[string]any{
		"model": e.Model,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": instruction},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": img.DataURI(), "detail": "high"}},
				},
			},
		},
		"temperature":     0,
		"max_tokens":      1000,
		"response_format": map[string]any{"type": "json_object"},
	}
	if strings.Contains(e.Model, "gpt-5") {
		// gpt-5 принимает только temperature=1 и max_completion_tokens
		body["temperature"] = 1
		delete(body, "max_tokens")
		body["max_completion_tokens"] = 1000
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &types.StatusError{Provider: "openai", StatusCode: resp.StatusCode, Body: util.Truncate(strings.TrimSpace(string(raw)), 1024)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: openai: %v", types.ErrEnvelope, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("%w: openai: no choices[0].message.content; body=%s", types.ErrEnvelope, util.Truncate(string(raw), 512))
	}
	return *out.Choices[0].Message.Content, nil
}
