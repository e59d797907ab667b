package assess

import (
	"context"
	"strings"

	"eye-check/api/internal/assess/types"
)

// Provider: вендор vision-LLM: строит запрос и достаёт текст модели из конверта ответа.
// Разбор и очистка текста: общие, см. Normalizer.
type Provider interface {
	Name() string
	GetModel() string
	Generate(ctx context.Context, img types.Image, instruction string) (string, error)
}

// keyed: провайдеры, умеющие подменить ключ API на ключ пользователя.
type keyed interface {
	HasAPIKey() bool
	WithAPIKey(key string) Provider
}

type Engines struct {
	Gemini  Provider
	OpenAI  Provider
	Default string // имя движка при пустом llm_name
}

// GetEngine выбирает провайдера по имени; apiKey (если задан) заменяет ключ из конфига.
func (e *Engines) GetEngine(llmName, apiKey string) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(llmName))
	if name == "" {
		name = strings.ToLower(e.Default)
	}
	var p Provider
	switch name {
	case "gemini":
		p = e.Gemini
	case "gpt", "openai":
		p = e.OpenAI
	default:
		return nil, types.ErrUnknownEngine
	}
	if p == nil {
		return nil, types.ErrUnknownEngine
	}

	k, ok := p.(keyed)
	if !ok {
		return p, nil
	}
	if key := strings.TrimSpace(apiKey); key != "" {
		return k.WithAPIKey(key), nil
	}
	if !k.HasAPIKey() {
		return nil, types.ErrMissingAPIKey
	}
	return p, nil
}

// EngineInfo: для /v1/engines.
type EngineInfo struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	Configured bool   `json:"configured"`
}

func (e *Engines) List() []EngineInfo {
	var out []EngineInfo
	for _, p := range []Provider{e.Gemini, e.OpenAI} {
		if p == nil {
			continue
		}
		info := EngineInfo{Name: p.Name(), Model: p.GetModel(), Configured: true}
		if k, ok := p.(keyed); ok {
			info.Configured = k.HasAPIKey()
		}
		out = append(out, info)
	}
	return out
}
