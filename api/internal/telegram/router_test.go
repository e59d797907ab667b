package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"eye-check/api/internal/assess"
	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/session"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []string
	requests []tgbotapi.Chattable
	fileIDs  []string
	fileURL  string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fileIDs = append(b.fileIDs, fileID)
	return b.fileURL, nil
}

func (b *fakeBot) last() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		return ""
	}
	return b.sent[len(b.sent)-1]
}

type stubAssessor struct {
	mu      sync.Mutex
	got     []assess.Request
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *stubAssessor) Assess(ctx context.Context, in assess.Request) (assess.Assessment, error) {
	s.mu.Lock()
	s.got = append(s.got, in)
	s.mu.Unlock()
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return assess.Assessment{}, s.err
	}
	return assess.Assessment{
		Engine: in.LLMName,
		Schema: in.Schema,
		Stage:  assess.StageDirect,
		Result: types.AnalysisResult{Darkness: 35, Puffiness: 20, OverallScore: 28, Severity: types.SeverityMild, Recommendations: []string{"Sleep"}},
	}, nil
}

func imageServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, a session.Assessor) (*Router, *fakeBot) {
	bot := &fakeBot{fileURL: imageServer(t).URL + "/photo.jpg"}
	r := NewRouter(bot, a, session.Settings{LLMName: "gemini", Schema: types.SchemaV2, APIKey: "ignored"}, time.Minute, zap.NewNop())
	return r, bot
}

func command(chatID int64, text string) tgbotapi.Update {
	n := strings.IndexByte(text, ' ')
	if n < 0 {
		n = len(text)
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 42,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}}
}

func photo(chatID int64) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 43,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Photo:     []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}},
	}}
}

func TestKeyCommandDeletesMessageAndKeepsKey(t *testing.T) {
	a := &stubAssessor{}
	r, bot := newTestRouter(t, a)

	r.HandleUpdate(command(1, "/key sk-user"))
	if len(bot.requests) != 1 {
		t.Fatalf("expected delete request, got %d", len(bot.requests))
	}
	del, ok := bot.requests[0].(tgbotapi.DeleteMessageConfig)
	if !ok || del.ChatID != 1 || del.MessageID != 42 {
		t.Fatalf("unexpected request %#v", bot.requests[0])
	}
	if strings.Contains(bot.last(), "sk-user") {
		t.Fatal("key must never be echoed back")
	}

	r.HandleUpdate(photo(1))
	r.Wait()

	if len(a.got) != 1 {
		t.Fatalf("expected one analysis, got %d", len(a.got))
	}
	got := a.got[0]
	if got.APIKey != "sk-user" || got.LLMName != "gemini" || got.Schema != types.SchemaV2 || got.Image.MIME != "image/jpeg" {
		t.Fatalf("unexpected request %+v", got)
	}
	if bot.fileIDs[0] != "big" {
		t.Fatalf("largest photo must be downloaded, got %q", bot.fileIDs[0])
	}
	if !strings.Contains(bot.last(), "Severity: Mild") {
		t.Fatalf("expected report, got %q", bot.last())
	}
}

func TestDefaultsNeverCarryKey(t *testing.T) {
	a := &stubAssessor{}
	r, _ := newTestRouter(t, a)
	r.HandleUpdate(photo(5))
	r.Wait()
	if a.got[0].APIKey != "" {
		t.Fatalf("default settings must not carry a key, got %q", a.got[0].APIKey)
	}
}

func TestEngineAndSchemaCommands(t *testing.T) {
	a := &stubAssessor{}
	r, bot := newTestRouter(t, a)

	r.HandleUpdate(command(2, "/key g-key"))
	r.HandleUpdate(command(2, "/engine openai"))
	if !strings.Contains(bot.last(), "Engine: gpt") {
		t.Fatalf("unexpected reply %q", bot.last())
	}
	r.HandleUpdate(command(2, "/schema V1"))
	r.HandleUpdate(command(2, "/engine claude"))
	if !strings.Contains(bot.last(), "Unknown engine") {
		t.Fatalf("unexpected reply %q", bot.last())
	}
	r.HandleUpdate(command(2, "/schema v7"))
	if !strings.Contains(bot.last(), "Unknown schema") {
		t.Fatalf("unexpected reply %q", bot.last())
	}

	st := r.settings(2)
	if st.LLMName != "gpt" || st.Schema != types.SchemaV1 {
		t.Fatalf("unexpected settings %+v", st)
	}
	if st.APIKey != "" {
		t.Fatal("switching engine must drop the other vendor's key")
	}

	r.HandleUpdate(command(2, "/reset"))
	if st := r.settings(2); st.LLMName != "gemini" || st.Schema != types.SchemaV2 {
		t.Fatalf("reset must restore defaults, got %+v", st)
	}
}

func TestCallbacks(t *testing.T) {
	a := &stubAssessor{}
	r, _ := newTestRouter(t, a)
	cb := func(data string) tgbotapi.Update {
		return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			Data:    data,
			Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: 3}},
		}}
	}
	r.HandleUpdate(cb(cbEngineGPT))
	r.HandleUpdate(cb(cbSchemaV1))
	if st := r.settings(3); st.LLMName != "gpt" || st.Schema != types.SchemaV1 {
		t.Fatalf("unexpected settings %+v", st)
	}

	r.HandleUpdate(photo(3))
	r.Wait()
	if r.sessionFor(3).State() != session.StateResults {
		t.Fatal("expected results state after analysis")
	}
	r.HandleUpdate(cb(cbRetake))
	if r.sessionFor(3).State() != session.StateCamera {
		t.Fatal("retake must go back to camera")
	}
}

func TestSecondPhotoWhileBusy(t *testing.T) {
	a := &stubAssessor{started: make(chan struct{}, 1), release: make(chan struct{})}
	r, bot := newTestRouter(t, a)

	r.HandleUpdate(photo(4))
	<-a.started
	r.HandleUpdate(photo(4))
	if bot.last() != stillAnalysing {
		t.Fatalf("expected busy reply, got %q", bot.last())
	}
	r.HandleUpdate(command(4, "/reset"))
	if bot.last() != stillAnalysing {
		t.Fatalf("reset while busy must be refused, got %q", bot.last())
	}

	close(a.release)
	r.Wait()
	if len(a.got) != 1 {
		t.Fatalf("only one analysis may run, got %d", len(a.got))
	}
}

func TestErrorReplies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"vendor status", &types.StatusError{Provider: "gemini", StatusCode: 500, Body: "internal"}, "unavailable"},
		{"envelope", types.ErrEnvelope, "unavailable"},
		{"missing key", types.ErrMissingAPIKey, "/key"},
		{"unknown engine", types.ErrUnknownEngine, "unknown llm_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, bot := newTestRouter(t, &stubAssessor{err: tt.err})
			r.HandleUpdate(photo(6))
			r.Wait()
			if !strings.Contains(bot.last(), tt.want) {
				t.Fatalf("expected %q in reply, got %q", tt.want, bot.last())
			}
			if strings.Contains(bot.last(), "internal") && tt.name == "vendor status" {
				t.Fatal("vendor body must not leak to the chat")
			}
		})
	}
}

func TestNonImageFileRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	a := &stubAssessor{}
	bot := &fakeBot{fileURL: srv.URL}
	r := NewRouter(bot, a, session.Settings{LLMName: "gemini"}, time.Minute, nil)
	r.HandleUpdate(photo(7))
	r.Wait()
	if len(a.got) != 0 {
		t.Fatal("non-image content must not reach the model")
	}
	if !strings.Contains(bot.last(), "JPEG, PNG or WebP") {
		t.Fatalf("unexpected reply %q", bot.last())
	}
}

func TestRetryDelayFromError(t *testing.T) {
	tests := []struct {
		err  error
		want time.Duration
	}{
		{nil, 0},
		{errors.New("Too Many Requests: retry after 7"), 7 * time.Second},
		{errors.New("too many requests"), 3 * time.Second},
		{errors.New("bad gateway"), time.Second},
	}
	for _, tt := range tests {
		if got := retryDelayFromError(tt.err); got != tt.want {
			t.Errorf("retryDelayFromError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

type fakeUpdates struct {
	calls  int
	cancel context.CancelFunc
	offs   []int
}

func (f *fakeUpdates) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.calls++
	f.offs = append(f.offs, cfg.Offset)
	if f.calls == 1 {
		return []tgbotapi.Update{{UpdateID: 10}, {UpdateID: 11}}, nil
	}
	f.cancel()
	return nil, nil
}

func TestRunPollingAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeUpdates{cancel: cancel}
	var seen []int
	RunPolling(ctx, f, func(u tgbotapi.Update) { seen = append(seen, u.UpdateID) }, zap.NewNop())

	if len(seen) != 2 || f.offs[1] != 12 {
		t.Fatalf("unexpected polling: seen=%v offsets=%v", seen, f.offs)
	}
}

func TestWebhookPath(t *testing.T) {
	p := WebhookPath("123:secret")
	if p != WebhookPath("123:secret") || strings.Contains(p, "secret") || !strings.HasPrefix(p, "/webhook/") {
		t.Fatalf("unexpected webhook path %q", p)
	}
}
