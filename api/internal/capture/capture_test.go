package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"eye-check/api/internal/assess/types"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirCameraListsImagesOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	writeFile(t, dir, "a.JPG", []byte{0xFF, 0xD8, 0xFF})
	writeFile(t, dir, "notes.txt", []byte("hello"))
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o700); err != nil {
		t.Fatal(err)
	}

	devices, err := NewDirCamera(dir).ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 || devices[0].ID != "a.JPG" || devices[1].ID != "b.png" {
		t.Fatalf("unexpected devices %+v", devices)
	}
	if devices[1].Label != "b" {
		t.Fatalf("unexpected label %q", devices[1].Label)
	}
}

func TestDirCameraCaptureFrame(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "face.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0})
	cam := NewDirCamera(dir)
	ctx := context.Background()

	if _, err := cam.CaptureFrame(ctx); !errors.Is(err, ErrNotOpened) {
		t.Fatalf("expected ErrNotOpened, got %v", err)
	}
	if err := cam.Open(ctx, ""); err != nil {
		t.Fatalf("Open: %v", err)
	}
	img, err := cam.CaptureFrame(ctx)
	if err != nil {
		t.Fatalf("CaptureFrame: %v", err)
	}
	if img.MIME != "image/jpeg" || len(img.Data) != 4 {
		t.Fatalf("unexpected frame %+v", img)
	}

	if err := cam.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := cam.CaptureFrame(ctx); !errors.Is(err, ErrNotOpened) {
		t.Fatalf("expected ErrNotOpened after Close, got %v", err)
	}
}

func TestDirCameraOpenErrors(t *testing.T) {
	dir := t.TempDir()
	cam := NewDirCamera(dir)
	if err := cam.Open(context.Background(), ""); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice on empty dir, got %v", err)
	}
	writeFile(t, dir, "face.jpg", []byte{0xFF, 0xD8})
	if err := cam.Open(context.Background(), "other.jpg"); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}

func TestDirCameraRejectsNonImageContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fake.png", []byte("definitely not a png"))
	cam := NewDirCamera(dir)
	if err := cam.Open(context.Background(), "fake.png"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := cam.CaptureFrame(context.Background()); !errors.Is(err, types.ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
}
