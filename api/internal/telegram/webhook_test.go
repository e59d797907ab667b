package telegram

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func TestWebhookShutdownWaitsForActiveHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	entered := make(chan struct{})
	release := make(chan struct{})
	parse := func(r *http.Request) (*tgbotapi.Update, error) {
		close(entered)
		<-release
		return &tgbotapi.Update{UpdateID: 42}, nil
	}

	var (
		mu      sync.Mutex
		handled []int
	)
	hook := NewWebhook(parse, func(u tgbotapi.Update) {
		mu.Lock()
		handled = append(handled, u.UpdateID)
		mu.Unlock()
	}, 0, zap.NewNop())

	r := gin.New()
	r.POST("/webhook/x", hook.Handle)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: r}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- hook.Serve(ctx, srv, ln, 5*time.Second) }()

	status := make(chan int, 1)
	go func() {
		resp, err := http.Post("http://"+ln.Addr().String()+"/webhook/x", "application/json", strings.NewReader("{}"))
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-entered
	cancel()

	select {
	case err := <-served:
		t.Fatalf("Serve returned while a handler was still running: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}
	if code := <-status; code != http.StatusOK {
		t.Fatalf("webhook status = %d", code)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != 42 {
		t.Fatalf("update must reach the router before Serve returns, got %v", handled)
	}
}

func TestWebhookRejectsBadUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hook := NewWebhook(func(*http.Request) (*tgbotapi.Update, error) {
		return nil, errors.New("bad json")
	}, func(tgbotapi.Update) { t.Error("bad update must not reach the router") }, 1, zap.NewNop())

	r := gin.New()
	r.POST("/webhook/x", hook.Handle)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- hook.Serve(ctx, &http.Server{Handler: r}, ln, time.Second) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/webhook/x", "application/json", strings.NewReader("nope"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	cancel()
	if err := <-served; err != nil {
		t.Fatalf("Serve: %v", err)
	}
}
