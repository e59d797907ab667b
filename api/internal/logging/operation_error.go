package logging

import "strings"

// OperationError: ошибка шага с контекстом, который нужен в логе и в ответе клиенту.
// Сама ошибка доступна через errors.Is/As.
type OperationError struct {
	Operation string
	Engine    string // пусто, если шаг не касается вендора
	RequestID string
	Err       error
}

// Error: "assess.generate(gemini) request_id=r1: текст ошибки".
func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Operation)
	if e.Engine != "" {
		b.WriteString("(" + e.Engine + ")")
	}
	if e.RequestID != "" {
		b.WriteString(" request_id=" + e.RequestID)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewOperationError; nil остаётся nil, чтобы можно было оборачивать не глядя.
func NewOperationError(operation, engine, requestID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, Engine: engine, RequestID: requestID, Err: err}
}
