package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/util"
)

var (
	ErrNoDevice  = errors.New("capture: device not found")
	ErrNotOpened = errors.New("capture: no device is open")
)

type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Camera: доступ к устройству захвата. Камерой владеет хост (браузер, ОС, тест),
// её всегда передают снаружи.
type Camera interface {
	ListDevices(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, deviceID string) error
	Close() error
	CaptureFrame(ctx context.Context) (types.Image, error)
}

// DirCamera: «камера» поверх каталога. Каждое изображение в каталоге считается
// устройством, кадр равен содержимому файла.
type DirCamera struct {
	Dir string

	mu      sync.Mutex
	current string
}

func NewDirCamera(dir string) *DirCamera { return &DirCamera{Dir: dir} }

func (c *DirCamera) ListDevices(ctx context.Context) ([]Device, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("capture: list %s: %w", c.Dir, err)
	}
	var out []Device
	for _, e := range entries {
		if e.IsDir() || !isImageName(e.Name()) {
			continue
		}
		out = append(out, Device{ID: e.Name(), Label: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Open выбирает устройство; пустой deviceID: первое по алфавиту.
func (c *DirCamera) Open(ctx context.Context, deviceID string) error {
	devices, err := c.ListDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return ErrNoDevice
	}
	if deviceID == "" {
		deviceID = devices[0].ID
	}
	for _, d := range devices {
		if d.ID == deviceID {
			c.mu.Lock()
			c.current = d.ID
			c.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoDevice, deviceID)
}

func (c *DirCamera) Close() error {
	c.mu.Lock()
	c.current = ""
	c.mu.Unlock()
	return nil
}

func (c *DirCamera) CaptureFrame(ctx context.Context) (types.Image, error) {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == "" {
		return types.Image{}, ErrNotOpened
	}
	if err := ctx.Err(); err != nil {
		return types.Image{}, err
	}

	b, err := os.ReadFile(filepath.Join(c.Dir, cur))
	if err != nil {
		return types.Image{}, fmt.Errorf("capture: read frame: %w", err)
	}
	mime := util.SniffMimeHTTP(b)
	if !util.IsImageMIME(mime) {
		return types.Image{}, types.ErrUnsupportedImage
	}
	return types.Image{Data: b, MIME: mime}, nil
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}
