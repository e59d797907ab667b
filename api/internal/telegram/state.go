package telegram

import (
	"context"

	"eye-check/api/internal/session"
)

// sessionFor: сессия чата; новая сразу настраивается значениями по умолчанию.
func (r *Router) sessionFor(chatID int64) *session.Session {
	if v, ok := r.sessions.Load(chatID); ok {
		return v.(*session.Session)
	}
	s := session.New(r.Assessor, nil)
	_ = s.Configure(context.Background(), r.Defaults)
	v, _ := r.sessions.LoadOrStore(chatID, s)
	return v.(*session.Session)
}

func (r *Router) settings(chatID int64) session.Settings {
	return r.sessionFor(chatID).Settings()
}
