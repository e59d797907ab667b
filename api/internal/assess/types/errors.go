package types

import (
	"errors"
	"fmt"
)

var (
	// ErrBadInput: общий предок ошибок входа (HTTP 400).
	ErrBadInput = errors.New("bad input")

	ErrUnknownSchema    = fmt.Errorf("%w: unknown schema; use 'v1' or 'v2'", ErrBadInput)
	ErrUnknownEngine    = fmt.Errorf("%w: unknown llm_name; use 'gemini' or 'gpt'", ErrBadInput)
	ErrMissingAPIKey    = fmt.Errorf("%w: api key is empty", ErrBadInput)
	ErrUnsupportedImage = fmt.Errorf("%w: unsupported image (need image/jpeg|png|webp)", ErrBadInput)

	// ErrEnvelope: ответ вендора успешен, но в конверте нет ожидаемых вложенных полей.
	ErrEnvelope = errors.New("vendor envelope: missing model text")
)

// StatusError: вендор ответил не-2xx статусом. Не ретраится и не подменяется дефолтом.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Provider, e.StatusCode, e.Body)
}
