package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/session"
)

// botAPI: то, что роутеру нужно от *tgbotapi.BotAPI.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot      botAPI
	Assessor session.Assessor
	Defaults session.Settings // engine/schema по умолчанию; ключ не задаётся
	Timeout  time.Duration    // дедлайн одного анализа
	Log      *zap.Logger

	sessions sync.Map // chatID -> *session.Session
	inflight sync.WaitGroup
}

func NewRouter(bot botAPI, assessor session.Assessor, defaults session.Settings, timeout time.Duration, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults.APIKey = ""
	return &Router{Bot: bot, Assessor: assessor, Defaults: defaults, Timeout: timeout, Log: logger.Named("telegram")}
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message

	if msg.IsCommand() {
		r.HandleCommand(*msg)
		return
	}
	if len(msg.Photo) > 0 || isImageDocument(msg.Document) {
		r.acceptPhoto(*msg)
		return
	}
	if msg.Text != "" {
		r.send(msg.Chat.ID, "Send a well-lit, front-facing photo of your face and I will rate the under-eye area.")
	}
}

func (r *Router) HandleCommand(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		st := r.settings(cid)
		r.sendWithKeyboard(cid, startText(st), engineKeyboard())
	case "health":
		r.send(cid, "✅ OK")
	case "engine":
		if len(args) == 0 {
			r.sendWithKeyboard(cid, "Current engine: "+r.settings(cid).LLMName+"\nUsage: /engine {gemini|gpt}", engineKeyboard())
			return
		}
		r.setEngine(cid, args[0])
	case "schema":
		if len(args) == 0 {
			r.send(cid, "Current schema: "+string(r.settings(cid).Schema)+"\nUsage: /schema {v1|v2}")
			return
		}
		r.setSchema(cid, args[0])
	case "key":
		// сообщение с ключом удаляем сразу, ключ остаётся только в памяти сессии
		_, _ = r.Bot.Request(tgbotapi.NewDeleteMessage(cid, msg.MessageID))
		if len(args) == 0 {
			r.send(cid, "Usage: /key <your API key>. The message is deleted right away.")
			return
		}
		r.setKey(cid, args[0])
	case "reset":
		r.reset(cid)
	default:
		r.send(cid, "Unknown command. Try /start")
	}
}

func (r *Router) setEngine(cid int64, name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "gemini":
	case "gpt", "openai":
		name = "gpt"
	default:
		r.send(cid, "Unknown engine. Available: gemini | gpt")
		return
	}
	st := r.settings(cid)
	if st.LLMName != name {
		// ключи у вендоров разные
		st.APIKey = ""
	}
	st.LLMName = name
	if r.configure(cid, st) {
		r.send(cid, "✅ Engine: "+name)
	}
}

func (r *Router) setSchema(cid int64, v string) {
	schema, err := types.ParseSchema(v)
	if err != nil {
		r.send(cid, "Unknown schema. Available: v1 | v2")
		return
	}
	st := r.settings(cid)
	st.Schema = schema
	if r.configure(cid, st) {
		r.send(cid, "✅ Schema: "+string(schema))
	}
}

func (r *Router) setKey(cid int64, key string) {
	st := r.settings(cid)
	st.APIKey = strings.TrimSpace(key)
	if r.configure(cid, st) {
		r.send(cid, "🔑 Key saved for this chat until /reset.")
	}
}

func (r *Router) reset(cid int64) {
	s := r.sessionFor(cid)
	if err := s.Reset(); errors.Is(err, session.ErrBusy) {
		r.send(cid, stillAnalysing)
		return
	}
	r.sessions.Delete(cid)
	r.send(cid, "Settings and key cleared.")
}

func (r *Router) configure(cid int64, st session.Settings) bool {
	err := r.sessionFor(cid).Configure(context.Background(), st)
	switch {
	case errors.Is(err, session.ErrBusy):
		r.send(cid, stillAnalysing)
		return false
	case err != nil:
		r.SendError(cid, err)
		return false
	}
	return true
}

// Wait блокирует до завершения анализов в полёте.
func (r *Router) Wait() { r.inflight.Wait() }

const stillAnalysing = "⏳ Still analysing the previous photo, please wait."

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.Log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := r.Bot.Send(msg); err != nil {
		r.Log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// SendError: ошибки ввода показываем как есть, сбои вендора: общим текстом.
func (r *Router) SendError(chatID int64, err error) {
	switch {
	case errors.Is(err, types.ErrMissingAPIKey):
		r.send(chatID, "❌ No API key for this engine. Send /key <your key> or switch with /engine.")
	case errors.Is(err, types.ErrUnsupportedImage):
		r.send(chatID, "❌ Please send a JPEG, PNG or WebP photo.")
	case errors.Is(err, types.ErrBadInput):
		r.send(chatID, fmt.Sprintf("❌ %v", err))
	default:
		r.send(chatID, "❌ The analysis service is unavailable right now. Please try again later.")
	}
}

func startText(st session.Settings) string {
	return "👁 Under-eye check\n\n" +
		"Send a well-lit, front-facing photo and I will rate dark circles and puffiness.\n\n" +
		"Engine: " + st.LLMName + ", schema: " + string(st.Schema) + "\n" +
		"Commands: /engine {gemini|gpt}, /schema {v1|v2}, /key <api key>, /reset"
}
