package gemini

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"eye-check/api/internal/assess"
	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/util"
)

// generator: то, что нам нужно от genai.GenerativeModel.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type dialFunc func(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (generator, io.Closer, error)

type Engine struct {
	APIKey string
	Model  string
	opts   []option.ClientOption
	dial   dialFunc
}

func New(apiKey, model string, opts ...option.ClientOption) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		opts:   opts,
		dial:   dialGenAI,
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }
func (e *Engine) HasAPIKey() bool  { return e.APIKey != "" }

// WithAPIKey: копия движка с ключом пользователя; общий движок не меняется.
func (e *Engine) WithAPIKey(key string) assess.Provider {
	cp := *e
	cp.APIKey = strings.TrimSpace(key)
	return &cp
}

func dialGenAI(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (generator, io.Closer, error) {
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	m := cl.GenerativeModel(model)
	if m == nil {
		_ = cl.Close()
		return nil, nil, fmt.Errorf("gemini: model is nil")
	}
	// Возвращаем строго JSON
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	return m, cl, nil
}

// Generate отправляет инструкцию и кадр inline-блобом; текст берётся из первой
// текстовой части первого кандидата. Без ретраев: ошибка вендора уходит наверх.
func (e *Engine) Generate(ctx context.Context, img types.Image, instruction string) (string, error) {
	if e.APIKey == "" {
		return "", types.ErrMissingAPIKey
	}
	if !util.IsImageMIME(img.MIME) {
		return "", types.ErrUnsupportedImage
	}

	m, closer, err := e.dial(ctx, e.APIKey, e.Model, e.opts...)
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}
	defer closer.Close()

	parts := []genai.Part{
		genai.Text(instruction),
		genai.Blob{MIMEType: img.MIME, Data: img.Data},
	}
	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	txt, ok := firstText(resp)
	if !ok {
		return "", fmt.Errorf("%w: gemini: no candidates[0].content.parts text", types.ErrEnvelope)
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t), true
			}
		}
	}
	return "", false
}

func ptrFloat32(v float32) *float32 { return &v }
