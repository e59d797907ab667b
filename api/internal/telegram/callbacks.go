package telegram

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"eye-check/api/internal/session"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(cb.Data, "engine:"):
		r.setEngine(cid, strings.TrimPrefix(cb.Data, "engine:"))
	case strings.HasPrefix(cb.Data, "schema:"):
		r.setSchema(cid, strings.TrimPrefix(cb.Data, "schema:"))
	case cb.Data == cbRetake:
		r.onRetake(cid, cb.Message.MessageID)
	}
}

func (r *Router) onRetake(chatID int64, msgID int) {
	err := r.sessionFor(chatID).Retake()
	if errors.Is(err, session.ErrBusy) {
		r.send(chatID, stillAnalysing)
		return
	}
	// убрать клавиатуру под старым отчётом
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	_, _ = r.Bot.Send(edit)
	r.send(chatID, "Send a new photo when ready.")
}
