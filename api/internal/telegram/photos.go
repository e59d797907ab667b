package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/report"
	"eye-check/api/internal/session"
	"eye-check/api/internal/util"
)

const maxPhotoBytes = 20 << 20

// acceptPhoto скачивает кадр и запускает анализ в фоне; пока он идёт, новые фото чата отклоняются.
func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	s := r.sessionFor(cid)
	if s.Busy() {
		r.send(cid, stillAnalysing)
		return
	}

	fileID := ""
	if len(msg.Photo) > 0 {
		fileID = msg.Photo[len(msg.Photo)-1].FileID // самое крупное разрешение
	} else {
		fileID = msg.Document.FileID
	}
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.Log.Warn("get file failed", zap.Int64("chat_id", cid), zap.Error(err))
		r.SendError(cid, err)
		return
	}
	data, err := download(url)
	if err != nil {
		r.Log.Warn("download failed", zap.Int64("chat_id", cid), zap.Error(err))
		r.SendError(cid, err)
		return
	}
	mime := util.SniffMimeHTTP(data)
	if !util.IsImageMIME(mime) {
		r.SendError(cid, types.ErrUnsupportedImage)
		return
	}

	r.send(cid, "📷 Photo received, analysing…")
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		r.runAnalysis(cid, s, types.Image{Data: data, MIME: mime})
	}()
}

func (r *Router) runAnalysis(cid int64, s *session.Session, img types.Image) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := s.Submit(ctx, img)
	switch {
	case errors.Is(err, session.ErrBusy):
		r.send(cid, stillAnalysing)
		return
	case err != nil:
		r.Log.Warn("analysis failed", zap.Int64("chat_id", cid), zap.Error(err))
		r.SendError(cid, err)
		return
	}
	r.sendWithKeyboard(cid, report.Render(out), resultKeyboard())
}

func isImageDocument(d *tgbotapi.Document) bool {
	return d != nil && strings.HasPrefix(strings.ToLower(d.MimeType), "image/")
}

func download(url string) ([]byte, error) {
	resp, err := httpClient().Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("download status %d: %s", resp.StatusCode, string(b))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxPhotoBytes {
		return nil, fmt.Errorf("%w: photo is larger than %d MB", types.ErrBadInput, maxPhotoBytes>>20)
	}
	return b, nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
