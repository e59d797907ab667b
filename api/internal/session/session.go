package session

import (
	"context"
	"errors"
	"sync"

	"eye-check/api/internal/assess"
	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/capture"
)

type State int

const (
	StateSetup State = iota
	StateCamera
	StateResults
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateCamera:
		return "camera"
	case StateResults:
		return "results"
	}
	return "unknown"
}

var (
	ErrBusy          = errors.New("session: analysis already in progress")
	ErrNotConfigured = errors.New("session: not configured")
	ErrNoCamera      = errors.New("session: no camera attached")
)

type Assessor interface {
	Assess(ctx context.Context, in assess.Request) (assess.Assessment, error)
}

// Settings: выбор пользователя на шаге setup. Ключ живёт только в памяти сессии.
type Settings struct {
	LLMName string
	APIKey  string
	Schema  types.Schema
	Device  string
}

// Session: setup → camera → results. Одновременно выполняется не больше одного анализа:
// пока запрос в полёте, новый захват отклоняется с ErrBusy, а не ставится в очередь.
type Session struct {
	assessor Assessor
	cam      capture.Camera

	mu       sync.Mutex
	state    State
	busy     bool
	settings Settings
	image    types.Image
	result   *assess.Assessment
}

// New; cam может быть nil, если кадры приходят только через Submit.
func New(assessor Assessor, cam capture.Camera) *Session {
	return &Session{assessor: assessor, cam: cam}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Configure сохраняет выбор и переводит сессию на шаг camera; открывает камеру, если она есть.
func (s *Session) Configure(ctx context.Context, st Settings) error {
	if st.Schema == "" {
		st.Schema = types.DefaultSchema
	}
	if _, err := types.ParseSchema(string(st.Schema)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.cam != nil {
		if err := s.cam.Open(ctx, st.Device); err != nil {
			return err
		}
	}
	s.settings = st
	s.state = StateCamera
	s.image, s.result = types.Image{}, nil
	return nil
}

// Capture снимает кадр с камеры и отправляет его на анализ.
func (s *Session) Capture(ctx context.Context) (assess.Assessment, error) {
	if s.cam == nil {
		return assess.Assessment{}, ErrNoCamera
	}
	if err := s.begin(); err != nil {
		return assess.Assessment{}, err
	}
	img, err := s.cam.CaptureFrame(ctx)
	if err != nil {
		s.finish(types.Image{}, nil)
		return assess.Assessment{}, err
	}
	return s.run(ctx, img)
}

// Submit: анализ готового кадра (загрузка файла, фото из чата).
func (s *Session) Submit(ctx context.Context, img types.Image) (assess.Assessment, error) {
	if err := s.begin(); err != nil {
		return assess.Assessment{}, err
	}
	return s.run(ctx, img)
}

func (s *Session) run(ctx context.Context, img types.Image) (assess.Assessment, error) {
	st := s.Settings()
	out, err := s.assessor.Assess(ctx, assess.Request{
		LLMName: st.LLMName,
		APIKey:  st.APIKey,
		Schema:  st.Schema,
		Image:   img,
	})
	if err != nil {
		s.finish(types.Image{}, nil)
		return assess.Assessment{}, err
	}
	s.finish(img, &out)
	return out, nil
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSetup {
		return ErrNotConfigured
	}
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

// finish снимает флаг. Успех: results с новым кадром; ошибка: camera без старого результата.
func (s *Session) finish(img types.Image, out *assess.Assessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if out == nil {
		s.state = StateCamera
		s.image, s.result = types.Image{}, nil
		return
	}
	s.image, s.result = img, out
	s.state = StateResults
}

// Result: последний кадр и результат (шаг results).
func (s *Session) Result() (types.Image, assess.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return types.Image{}, assess.Assessment{}, false
	}
	return s.image, *s.result, true
}

// Retake возвращает на шаг camera и сбрасывает прошлый результат.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.state == StateSetup {
		return ErrNotConfigured
	}
	s.state = StateCamera
	s.image, s.result = types.Image{}, nil
	return nil
}

// Reset закрывает камеру и забывает настройки вместе с ключом API.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	var err error
	if s.cam != nil && s.state != StateSetup {
		err = s.cam.Close()
	}
	s.state = StateSetup
	s.settings = Settings{}
	s.image, s.result = types.Image{}, nil
	return err
}
